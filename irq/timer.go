// Package irq provides the interrupt-context primitives used by the
// firmware: a periodic timer and a lock-free ring.
package irq

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidPeriod = errors.New("irq: timer period must be positive")
	ErrStarted       = errors.New("irq: timer already started")
)

// Timer calls fn once per period from its own goroutine, like a periodic
// hardware timer interrupt. fn must not block.
type Timer struct {
	period time.Duration
	fn     func()

	fired   atomic.Uint64
	started atomic.Bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewTimer creates a stopped timer.
func NewTimer(period time.Duration, fn func()) *Timer {
	return &Timer{
		period: period,
		fn:     fn,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Period returns the firing period.
func (t *Timer) Period() time.Duration { return t.period }

// Start begins firing. A timer can be started once.
func (t *Timer) Start() error {
	if t.period <= 0 {
		return ErrInvalidPeriod
	}
	if !t.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	go t.run()
	return nil
}

func (t *Timer) run() {
	defer close(t.done)
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.fired.Add(1)
			if t.fn != nil {
				t.fn()
			}
		}
	}
}

// Stop halts the timer and waits for the firing goroutine to exit.
// The firmware never stops its tick timer; the host runners and tests do.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	if t.started.Load() {
		<-t.done
	}
}

// Fired returns how many times the timer has fired.
func (t *Timer) Fired() uint64 { return t.fired.Load() }
