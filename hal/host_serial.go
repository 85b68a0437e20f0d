//go:build !tinygo

package hal

import (
	"errors"
	"io"
)

const hostSerialRxBuf = 256

// hostSerial is the simulated keypad UART. Bytes arrive from the window
// keyboard or from stdin in headless mode.
type hostSerial struct {
	rx chan byte
}

func newHostSerial() *hostSerial {
	return &hostSerial{rx: make(chan byte, hostSerialRxBuf)}
}

// Read blocks for the first byte, then returns whatever else is buffered.
func (s *hostSerial) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, ok := <-s.rx
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	n := 1
	for n < len(p) {
		select {
		case b, ok := <-s.rx:
			if !ok {
				return n, nil
			}
			p[n] = b
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

// inject queues one received byte, dropping it when the buffer is full.
func (s *hostSerial) inject(b byte) {
	select {
	case s.rx <- b:
	default:
	}
}

// pump copies r into the receive buffer until r fails.
func (s *hostSerial) pump(r io.Reader) error {
	var buf [64]byte
	for {
		n, err := r.Read(buf[:])
		for _, b := range buf[:n] {
			s.inject(b)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
