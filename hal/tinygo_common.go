//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"
)

const uartPollInterval = 10 * time.Millisecond

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.uart.WriteByte(b[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type pinBacklight struct {
	pin machine.Pin
}

func (b *pinBacklight) SetBacklight(on bool) { b.pin.Set(on) }

type uartSerial struct {
	uart *machine.UART
}

// Read blocks until at least one byte is buffered.
func (s *uartSerial) Read(p []byte) (int, error) {
	if s.uart == nil {
		return 0, ErrNotImplemented
	}
	if len(p) == 0 {
		return 0, nil
	}
	for s.uart.Buffered() == 0 {
		time.Sleep(uartPollInterval)
	}
	return s.uart.Read(p)
}
