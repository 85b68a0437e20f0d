// Package refresh drives the render engine at a bounded cadence.
//
// A single worker runs Scheduler.Run. The tick source and the display
// transfer-complete interrupt only post to atomics through Tick and
// FlushDone; the worker hands those to the engine at the top of the next
// iteration, under the render lock.
package refresh

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxDelay bounds idle re-polling so the UI stays responsive.
	DefaultMaxDelay = 500 * time.Millisecond
	// DefaultSchedulerHz is the board's RTOS tick rate.
	DefaultSchedulerHz = 100
)

// Config holds the sleep bounds of the refresh loop.
type Config struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultConfig returns the board defaults.
func DefaultConfig() Config {
	return Config{
		MinDelay: MinDelayForHz(DefaultSchedulerHz),
		MaxDelay: DefaultMaxDelay,
	}
}

// MinDelayForHz returns one scheduler tick, in whole milliseconds and never
// below 1ms.
func MinDelayForHz(hz int) time.Duration {
	if hz <= 0 {
		hz = DefaultSchedulerHz
	}
	ms := 1000 / hz
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// Clamp converts a suggested delay to a sleep duration within [min, max].
// min is applied first, so max wins if the bounds cross.
func Clamp(suggested uint32, min, max time.Duration) time.Duration {
	d := time.Duration(suggested) * time.Millisecond
	if d < min {
		d = min
	}
	if d > max {
		d = max
	}
	return d
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSleep replaces the sleep used between iterations.
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// Scheduler owns the render lock and the refresh loop.
type Scheduler struct {
	mu     sync.Mutex
	engine Engine

	min time.Duration
	max time.Duration

	sleep func(ctx context.Context, d time.Duration)
	log   *slog.Logger

	pendingMs atomic.Uint64
	clock     atomic.Uint64
	flushDone atomic.Bool

	iterations atomic.Uint64
}

// New creates a scheduler for e. Non-positive bounds fall back to the
// defaults.
func New(e Engine, cfg Config, opts ...Option) *Scheduler {
	def := DefaultConfig()
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = def.MinDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	s := &Scheduler{
		engine: e,
		min:    cfg.MinDelay,
		max:    cfg.MaxDelay,
		sleep:  sleepContext,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bounds returns the effective minimum and maximum sleep.
func (s *Scheduler) Bounds() (min, max time.Duration) { return s.min, s.max }

// Run is the refresh loop. It does not return unless ctx is cancelled; the
// board passes context.Background().
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("starting refresh loop", "min_delay", s.min, "max_delay", s.max)
	for {
		d := s.Step()
		if err := ctx.Err(); err != nil {
			return err
		}
		s.sleep(ctx, d)
	}
}

// Step runs one iteration without sleeping and returns how long the loop
// would sleep afterwards.
func (s *Scheduler) Step() time.Duration {
	suggested := s.process()
	s.iterations.Add(1)
	return Clamp(suggested, s.min, s.max)
}

func (s *Scheduler) process() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ms := s.pendingMs.Swap(0); ms > 0 {
		for ms > math.MaxUint32 {
			s.engine.AdvanceClock(math.MaxUint32)
			ms -= math.MaxUint32
		}
		s.engine.AdvanceClock(uint32(ms))
	}
	if s.flushDone.Swap(false) {
		s.engine.NotifyFlushComplete()
	}
	return s.engine.ProcessPendingWork()
}

// WithLock runs fn while holding the render lock. Startup code uses it to
// touch engine state from outside the loop.
func (s *Scheduler) WithLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Tick advances the logical clock by ms. It is called from the tick
// source's context, never blocks, and never takes the render lock.
func (s *Scheduler) Tick(ms uint32) {
	s.pendingMs.Add(uint64(ms))
	s.clock.Add(uint64(ms))
}

// FlushDone reports that the display finished the last transfer. It is
// called from the transfer-complete context, never blocks, and never takes
// the render lock.
func (s *Scheduler) FlushDone() {
	s.flushDone.Store(true)
}

// Now returns the logical clock: the sum of all ticks delivered so far.
func (s *Scheduler) Now() uint64 { return s.clock.Load() }

// Iterations returns the number of completed loop iterations.
func (s *Scheduler) Iterations() uint64 { return s.iterations.Load() }

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
