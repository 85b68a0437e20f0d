package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeEngine struct {
	s *Scheduler

	delays []uint32
	calls  int

	clock         uint64
	flushing      bool
	notifications int

	seenClock    []uint64
	seenFlushing []bool
	lockFree     bool
}

func (e *fakeEngine) ProcessPendingWork() uint32 {
	if e.s != nil && e.s.mu.TryLock() {
		e.s.mu.Unlock()
		e.lockFree = true
	}
	e.seenClock = append(e.seenClock, e.clock)
	e.seenFlushing = append(e.seenFlushing, e.flushing)

	d := uint32(NoTimerReady)
	if e.calls < len(e.delays) {
		d = e.delays[e.calls]
	}
	e.calls++
	return d
}

func (e *fakeEngine) AdvanceClock(ms uint32) { e.clock += uint64(ms) }

func (e *fakeEngine) NotifyFlushComplete() {
	e.flushing = false
	e.notifications++
}

func TestClamp(t *testing.T) {
	const (
		min = time.Millisecond
		max = 500 * time.Millisecond
	)
	tests := []struct {
		name      string
		suggested uint32
		want      time.Duration
	}{
		{"zero", 0, min},
		{"in range", 33, 33 * time.Millisecond},
		{"at max", 500, max},
		{"above max", 10000, max},
		{"idle", NoTimerReady, max},
		{"wrapped negative", uint32(0xFFFFFFF6), max},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.suggested, min, max); got != tt.want {
				t.Fatalf("Clamp(%d) = %v, want %v", tt.suggested, got, tt.want)
			}
		})
	}
}

func TestClampCrossedBoundsPrefersMax(t *testing.T) {
	if got := Clamp(0, 600*time.Millisecond, 500*time.Millisecond); got != 500*time.Millisecond {
		t.Fatalf("Clamp() = %v, want 500ms", got)
	}
}

func TestMinDelayForHz(t *testing.T) {
	tests := []struct {
		hz   int
		want time.Duration
	}{
		{100, 10 * time.Millisecond},
		{1000, time.Millisecond},
		{4000, time.Millisecond},
		{0, 10 * time.Millisecond},
		{-5, 10 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := MinDelayForHz(tt.hz); got != tt.want {
			t.Fatalf("MinDelayForHz(%d) = %v, want %v", tt.hz, got, tt.want)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	s := New(&fakeEngine{}, Config{})
	min, max := s.Bounds()
	if min != 10*time.Millisecond || max != DefaultMaxDelay {
		t.Fatalf("Bounds() = %v, %v, want 10ms, %v", min, max, DefaultMaxDelay)
	}
}

func TestStepScenario(t *testing.T) {
	e := &fakeEngine{delays: []uint32{0, 10000, NoTimerReady, 40}}
	s := New(e, Config{MinDelay: time.Millisecond, MaxDelay: 500 * time.Millisecond})

	want := []time.Duration{
		time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
		40 * time.Millisecond,
	}
	for i, w := range want {
		if got := s.Step(); got != w {
			t.Fatalf("Step() #%d = %v, want %v", i, got, w)
		}
	}
	if s.Iterations() != uint64(len(want)) {
		t.Fatalf("Iterations() = %d, want %d", s.Iterations(), len(want))
	}
}

func TestRunReleasesLockBeforeSleep(t *testing.T) {
	e := &fakeEngine{delays: []uint32{0, 5, 1000, NoTimerReady}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sleeps []time.Duration
	var s *Scheduler
	s = New(e, Config{MinDelay: time.Millisecond, MaxDelay: 500 * time.Millisecond},
		WithSleep(func(ctx context.Context, d time.Duration) {
			if !s.mu.TryLock() {
				t.Errorf("render lock held during sleep %d", len(sleeps))
			} else {
				s.mu.Unlock()
			}
			sleeps = append(sleeps, d)
			if len(sleeps) == 4 {
				cancel()
			}
		}),
	)
	e.s = s

	err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() err = %v, want context.Canceled", err)
	}
	if e.lockFree {
		t.Fatal("ProcessPendingWork ran without the render lock")
	}
	for i, d := range sleeps {
		if d < time.Millisecond || d > 500*time.Millisecond {
			t.Fatalf("sleep %d = %v, out of bounds", i, d)
		}
	}
}

func TestTickAdvancesClockExactly(t *testing.T) {
	const (
		period = 2
		n      = 5000
	)
	e := &fakeEngine{}
	s := New(e, Config{MinDelay: time.Millisecond, MaxDelay: 500 * time.Millisecond})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				s.Step()
			}
		}
	}()

	for i := 0; i < n; i++ {
		s.Tick(period)
	}
	close(done)
	wg.Wait()
	s.Step()

	if e.clock != period*n {
		t.Fatalf("engine clock = %d, want %d", e.clock, period*n)
	}
	if s.Now() != period*n {
		t.Fatalf("Now() = %d, want %d", s.Now(), period*n)
	}
}

func TestSignalsDuringSleepVisibleNextIteration(t *testing.T) {
	e := &fakeEngine{delays: []uint32{NoTimerReady, NoTimerReady}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sleeps []time.Duration
	var s *Scheduler
	s = New(e, Config{MinDelay: time.Millisecond, MaxDelay: 500 * time.Millisecond},
		WithSleep(func(ctx context.Context, d time.Duration) {
			sleeps = append(sleeps, d)
			if len(sleeps) == 1 {
				// 50ms into the sleep: 25 ticks of 2ms, then the transfer ends.
				for i := 0; i < 25; i++ {
					s.Tick(2)
				}
				s.FlushDone()
				return
			}
			cancel()
		}),
	)
	// A flush was started before the loop began.
	e.flushing = true

	_ = s.Run(ctx)

	if len(sleeps) < 1 || sleeps[0] != 500*time.Millisecond {
		t.Fatalf("first sleep = %v, want 500ms", sleeps)
	}
	if len(e.seenClock) < 2 {
		t.Fatalf("ProcessPendingWork calls = %d, want >= 2", len(e.seenClock))
	}
	if e.seenClock[1] != 50 {
		t.Fatalf("second call saw clock %d, want 50", e.seenClock[1])
	}
	if !e.seenFlushing[0] || e.seenFlushing[1] {
		t.Fatalf("flushing seen = %v, want [true false ...]", e.seenFlushing)
	}
}

func TestFlushDoneCoalesces(t *testing.T) {
	e := &fakeEngine{flushing: true}
	s := New(e, Config{})

	s.FlushDone()
	s.FlushDone()
	s.Step()
	s.Step()

	if e.notifications != 1 {
		t.Fatalf("NotifyFlushComplete calls = %d, want 1", e.notifications)
	}
}

func TestWithLockExcludesLoop(t *testing.T) {
	e := &fakeEngine{}
	s := New(e, Config{})
	e.s = s

	s.WithLock(func() {
		if s.mu.TryLock() {
			s.mu.Unlock()
			t.Fatal("render lock not held inside WithLock")
		}
	})
	s.Step()
	if e.lockFree {
		t.Fatal("ProcessPendingWork ran without the render lock")
	}
}

func TestSignalsDoNotNeedRenderLock(t *testing.T) {
	e := &fakeEngine{flushing: true}
	s := New(e, Config{})

	s.WithLock(func() {
		done := make(chan struct{})
		go func() {
			s.Tick(5)
			s.FlushDone()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Tick/FlushDone blocked on the render lock")
		}
	})

	if s.Now() != 5 {
		t.Fatalf("Now() = %d, want 5", s.Now())
	}
	s.Step()
	if e.clock != 5 || e.notifications != 1 {
		t.Fatalf("clock = %d notifications = %d, want 5 and 1", e.clock, e.notifications)
	}
}

func TestAreaPixels(t *testing.T) {
	tests := []struct {
		a    Area
		want int
	}{
		{Area{0, 0, 239, 31}, 240 * 32},
		{Area{10, 10, 10, 10}, 1},
		{Area{5, 5, 4, 9}, 0},
	}
	for _, tt := range tests {
		if got := tt.a.Pixels(); got != tt.want {
			t.Fatalf("%+v.Pixels() = %d, want %d", tt.a, got, tt.want)
		}
	}
}
