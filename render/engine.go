// Package render is the engine driven by the refresh loop: a logical
// clock, periodic timers, a dirty-area list and partial rendering into two
// strip buffers.
//
// Nothing in this package locks. Every exported method expects the caller
// to hold the scheduler's render lock.
package render

import (
	"log/slog"

	"beatbyte/keypad"
	"beatbyte/refresh"
)

// Config sizes the engine.
type Config struct {
	Width  int
	Height int
	// DrawBufLines is the height of one render strip.
	DrawBufLines int
	// RefreshPeriod and InputPeriod are in logical milliseconds.
	RefreshPeriod uint32
	InputPeriod   uint32
}

// DefaultConfig returns the board values.
func DefaultConfig() Config {
	return Config{
		Width:         240,
		Height:        320,
		DrawBufLines:  32,
		RefreshPeriod: 33,
		InputPeriod:   33,
	}
}

// Stats counts engine activity.
type Stats struct {
	Strips      uint64
	Flushes     uint64
	Completions uint64
	Refreshes   uint64
	Keys        uint64
}

type strip struct {
	area refresh.Area
	buf  int
}

// Engine implements refresh.Engine.
type Engine struct {
	cfg     Config
	bounds  refresh.Area
	flusher refresh.Flusher
	keys    *keypad.Queue
	log     *slog.Logger

	now    uint64
	timers []*Timer

	refreshTimer *Timer
	inputTimer   *Timer

	screen Screen
	inv    invalidList

	bufs     [2][]byte
	next     int
	staged   *strip
	flushing bool

	// job is the dirty list taken at the start of a refresh pass; row is
	// the first row of the next strip inside job[0].
	job []refresh.Area
	row int16

	stats Stats
}

// New returns an engine that flushes through f and reads keys from keys.
// keys may be nil.
func New(cfg Config, f refresh.Flusher, keys *keypad.Queue, log *slog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.DrawBufLines <= 0 {
		cfg.DrawBufLines = def.DrawBufLines
	}
	if cfg.DrawBufLines > cfg.Height {
		cfg.DrawBufLines = cfg.Height
	}
	if cfg.RefreshPeriod == 0 {
		cfg.RefreshPeriod = def.RefreshPeriod
	}
	if cfg.InputPeriod == 0 {
		cfg.InputPeriod = def.InputPeriod
	}
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		cfg:     cfg,
		bounds:  refresh.Area{X2: int16(cfg.Width - 1), Y2: int16(cfg.Height - 1)},
		flusher: f,
		keys:    keys,
		log:     log.With("component", "render"),
	}
	size := cfg.Width * cfg.DrawBufLines * 2
	e.bufs[0] = make([]byte, size)
	e.bufs[1] = make([]byte, size)

	e.refreshTimer = e.AddTimer(cfg.RefreshPeriod, e.onRefresh)
	e.inputTimer = e.AddTimer(cfg.InputPeriod, e.onInput)
	return e
}

// Now returns the logical clock in milliseconds.
func (e *Engine) Now() uint64 { return e.now }

// RefreshTimer returns the built-in timer that renders dirty areas.
func (e *Engine) RefreshTimer() *Timer { return e.refreshTimer }

// InputTimer returns the built-in timer that drains the keypad queue.
func (e *Engine) InputTimer() *Timer { return e.inputTimer }

// Stats returns the counters.
func (e *Engine) Stats() Stats { return e.stats }

// Flushing reports whether a transfer is in flight.
func (e *Engine) Flushing() bool { return e.flushing }

// SetScreen replaces the active screen and schedules a full redraw.
func (e *Engine) SetScreen(s Screen) {
	e.screen = s
	e.InvalidateAll()
}

// Invalidate marks area for redraw. Areas outside the screen are ignored.
func (e *Engine) Invalidate(area refresh.Area) {
	area = clip(area, e.bounds)
	if area.Empty() {
		return
	}
	e.inv.add(area)
}

// InvalidateAll marks the whole screen for redraw.
func (e *Engine) InvalidateAll() {
	e.inv.reset()
	e.inv.add(e.bounds)
}

// AdvanceClock implements refresh.Engine.
func (e *Engine) AdvanceClock(ms uint32) {
	e.now += uint64(ms)
}

// NotifyFlushComplete implements refresh.Engine.
func (e *Engine) NotifyFlushComplete() {
	if !e.flushing {
		return
	}
	e.flushing = false
	e.stats.Completions++
}

// ProcessPendingWork implements refresh.Engine. It returns 0 while a
// refresh pass is still in progress, otherwise the time to the nearest
// timer, or refresh.NoTimerReady when every timer is paused.
func (e *Engine) ProcessPendingWork() uint32 {
	for _, t := range e.timers {
		if t.due(e.now) {
			t.run(e.now)
		}
	}
	if e.Busy() {
		e.pump()
	}
	if e.Busy() {
		return 0
	}
	return e.nextTimer()
}

func (e *Engine) nextTimer() uint32 {
	var (
		best  uint64
		found bool
	)
	for _, t := range e.timers {
		if t.paused {
			continue
		}
		r := t.remaining(e.now)
		if !found || r < best {
			best, found = r, true
		}
	}
	if !found {
		return refresh.NoTimerReady
	}
	return uint32(best)
}

// Busy reports whether a refresh pass is still rendering or flushing.
func (e *Engine) Busy() bool {
	return e.staged != nil || len(e.job) > 0 || e.flushing
}

func (e *Engine) onRefresh(*Timer) {
	e.stats.Refreshes++
	if e.screen == nil {
		return
	}
	e.screen.Update(e.now, e)
	if len(e.job) == 0 && e.staged == nil && !e.inv.empty() {
		e.takeJob()
	}
	e.pump()
}

func (e *Engine) takeJob() {
	if e.inv.full {
		e.job = append(e.job[:0], e.bounds)
	} else {
		e.job = append(e.job[:0], e.inv.areas[:e.inv.n]...)
	}
	e.inv.reset()
	e.row = e.job[0].Y1
}

// pump flushes the staged strip when the bus is free and renders the next
// strip into the other buffer. It never waits for a transfer.
func (e *Engine) pump() {
	for {
		if e.staged != nil {
			if e.flushing {
				return
			}
			s := e.staged
			e.staged = nil
			e.flushing = true
			e.stats.Flushes++
			e.flusher.Flush(s.area, e.bufs[s.buf][:s.area.Pixels()*2])
			continue
		}
		a, ok := e.nextStrip()
		if !ok {
			return
		}
		e.render(a, e.next)
		e.staged = &strip{area: a, buf: e.next}
		e.next ^= 1
	}
}

func (e *Engine) nextStrip() (refresh.Area, bool) {
	if len(e.job) == 0 || e.screen == nil {
		e.job = e.job[:0]
		return refresh.Area{}, false
	}
	cur := e.job[0]
	s := cur
	s.Y1 = e.row
	if y2 := int(e.row) + e.cfg.DrawBufLines - 1; y2 < int(cur.Y2) {
		s.Y2 = int16(y2)
	}
	if s.Y2 >= cur.Y2 {
		e.job = e.job[1:]
		if len(e.job) > 0 {
			e.row = e.job[0].Y1
		}
	} else {
		e.row = s.Y2 + 1
	}
	return s, true
}

func (e *Engine) render(a refresh.Area, buf int) {
	c := newCanvas(e.bufs[buf], a, int16(e.cfg.Width), int16(e.cfg.Height))
	n := a.Pixels() * 2
	clear(e.bufs[buf][:n])
	e.screen.Draw(c)
	e.stats.Strips++
}

func (e *Engine) onInput(*Timer) {
	if e.keys == nil {
		return
	}
	for {
		ev, ok := e.keys.TryPop()
		if !ok {
			return
		}
		if !ev.Pressed || e.screen == nil {
			continue
		}
		e.stats.Keys++
		e.log.Debug("key", "key", ev.Key)
		e.screen.HandleKey(ev.Key, e)
	}
}

var _ refresh.Engine = (*Engine)(nil)
