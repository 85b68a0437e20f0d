package refresh

import "math"

// NoTimerReady is returned by Engine.ProcessPendingWork when nothing is
// scheduled. The scheduler treats it like any oversized delay.
const NoTimerReady = math.MaxUint32

// Area is an inclusive screen rectangle.
type Area struct {
	X1, Y1 int16
	X2, Y2 int16
}

// Width returns the number of columns covered by the area.
func (a Area) Width() int { return int(a.X2) - int(a.X1) + 1 }

// Height returns the number of rows covered by the area.
func (a Area) Height() int { return int(a.Y2) - int(a.Y1) + 1 }

// Empty reports whether the area covers no pixels.
func (a Area) Empty() bool { return a.X2 < a.X1 || a.Y2 < a.Y1 }

// Pixels returns Width*Height, or 0 for an empty area.
func (a Area) Pixels() int {
	if a.Empty() {
		return 0
	}
	return a.Width() * a.Height()
}

// Engine is the render engine as seen by the scheduler.
//
// All three methods are called with the render lock held.
type Engine interface {
	// ProcessPendingWork runs due timers, layout, paint and flush dispatch.
	// It returns the suggested delay in logical milliseconds until the next
	// call, or NoTimerReady.
	ProcessPendingWork() uint32
	// AdvanceClock moves the engine's logical clock forward by ms.
	AdvanceClock(ms uint32)
	// NotifyFlushComplete marks the in-flight pixel transfer as finished.
	NotifyFlushComplete()
}

// Flusher transfers a rendered region to the display.
//
// Flush is invoked synchronously by the engine from inside
// ProcessPendingWork. It must start the transfer and return without waiting
// for it; completion is reported through Scheduler.FlushDone.
type Flusher interface {
	Flush(area Area, px []byte)
}
