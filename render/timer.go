package render

// Timer is a periodic job on the engine's logical clock.
type Timer struct {
	period uint32
	last   uint64
	paused bool
	ready  bool
	runs   uint64
	fn     func(*Timer)
}

// AddTimer registers fn to run every period logical milliseconds.
// The caller must hold the render lock.
func (e *Engine) AddTimer(period uint32, fn func(*Timer)) *Timer {
	t := &Timer{period: period, last: e.now, fn: fn}
	e.timers = append(e.timers, t)
	return t
}

// Pause stops the timer until Resume.
func (t *Timer) Pause() { t.paused = true }

// Resume restarts a paused timer.
func (t *Timer) Resume() { t.paused = false }

// Period returns the timer period in logical milliseconds.
func (t *Timer) Period() uint32 { return t.period }

// Ready makes the timer run on the next ProcessPendingWork.
func (t *Timer) Ready() { t.ready = true }

// Runs returns how many times the timer has fired.
func (t *Timer) Runs() uint64 { return t.runs }

func (t *Timer) due(now uint64) bool {
	if t.paused {
		return false
	}
	return t.ready || now-t.last >= uint64(t.period)
}

// remaining is the time until the timer is due.
func (t *Timer) remaining(now uint64) uint64 {
	if t.ready {
		return 0
	}
	elapsed := now - t.last
	if elapsed >= uint64(t.period) {
		return 0
	}
	return uint64(t.period) - elapsed
}

func (t *Timer) run(now uint64) {
	t.last = now
	t.ready = false
	t.runs++
	if t.fn != nil {
		t.fn(t)
	}
}
