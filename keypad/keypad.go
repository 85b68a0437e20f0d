// Package keypad turns bytes from the UART keypad into navigation keys.
package keypad

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"beatbyte/irq"
)

// Key is a navigation key understood by the UI.
type Key uint8

const (
	KeyNone Key = iota
	KeyPrev
	KeyNext
	KeyLeft
	KeyRight
	KeyEnter
	KeyEsc
)

func (k Key) String() string {
	switch k {
	case KeyPrev:
		return "prev"
	case KeyNext:
		return "next"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyEnter:
		return "enter"
	case KeyEsc:
		return "esc"
	default:
		return "none"
	}
}

// Event is a key transition.
type Event struct {
	Key     Key
	Pressed bool
}

// Map translates one UART byte. Unknown bytes map to KeyNone.
func Map(b byte) Key {
	switch b {
	case 'w', 'W':
		return KeyPrev
	case 's', 'S':
		return KeyNext
	case 'a', 'A':
		return KeyLeft
	case 'd', 'D':
		return KeyRight
	case '\r', '\n':
		return KeyEnter
	case 0x1b:
		return KeyEsc
	default:
		return KeyNone
	}
}

// Queue is the hand-off between the reader and the render engine.
type Queue = irq.Ring[Event]

// NewQueue returns a key queue sized for the UART receive buffer.
func NewQueue() *Queue { return irq.NewRing[Event](32) }

// Reader pumps bytes from a serial port into a Queue.
type Reader struct {
	src io.Reader
	q   *Queue
	log *slog.Logger

	buf [64]byte
}

// NewReader creates a reader for src.
func NewReader(src io.Reader, q *Queue, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{src: src, q: q, log: log}
}

// Run reads until src reports EOF or ctx is done. Keys are dropped when the
// queue is full.
func (r *Reader) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.src.Read(r.buf[:])
		r.feed(r.buf[:n])
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// feed queues a press for every mapped byte in p. Once the batch is
// drained the last key is released, as the UART keypad has no key-up code.
func (r *Reader) feed(p []byte) {
	last := KeyNone
	for _, b := range p {
		k := Map(b)
		if k == KeyNone {
			continue
		}
		r.log.Debug("key", "key", k)
		if !r.q.TryPush(Event{Key: k, Pressed: true}) {
			r.log.Warn("key queue full, dropping", "key", k)
			continue
		}
		last = k
	}
	if last != KeyNone && !r.q.TryPush(Event{Key: last}) {
		r.log.Debug("key queue full, release dropped", "key", last)
	}
}
