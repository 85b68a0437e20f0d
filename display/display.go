// Package display moves rendered strips from the render engine to the LCD.
//
// The engine renders RGB565 in little-endian order; the panel bus wants
// big-endian. Port swaps each strip in place and hands it to the panel
// without waiting for the transfer.
package display

import (
	"log/slog"
	"sync/atomic"

	"beatbyte/hal"
	"beatbyte/refresh"
)

// SwapRGB565 converts up to pixels RGB565 values in buf between byte
// orders, bounded by len(buf)/2. It returns the number of pixels swapped.
func SwapRGB565(buf []byte, pixels int) int {
	if max := len(buf) / 2; pixels > max {
		pixels = max
	}
	if pixels <= 0 {
		return 0
	}
	b := buf[:pixels*2]
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
	return pixels
}

// Stats counts flush activity.
type Stats struct {
	Flushes uint64
	Pixels  uint64
	Skipped uint64
	Errors  uint64
}

// Port implements refresh.Flusher on top of a hal.Panel.
type Port struct {
	panel hal.Panel
	done  func()
	swap  func(buf []byte, pixels int) int
	log   *slog.Logger

	flushes atomic.Uint64
	pixels  atomic.Uint64
	skipped atomic.Uint64
	errors  atomic.Uint64
}

// NewPort returns a port for panel. done is called once per finished
// flush; it is normally refresh.Scheduler.FlushDone and is also installed
// as the panel's transfer-done callback.
func NewPort(panel hal.Panel, done func(), log *slog.Logger) *Port {
	if log == nil {
		log = slog.Default()
	}
	if done == nil {
		done = func() {}
	}
	p := &Port{
		panel: panel,
		done:  done,
		swap:  SwapRGB565,
		log:   log.With("component", "display"),
	}
	panel.OnTransferDone(done)
	return p
}

// Flush swaps area's pixels to bus order and starts the transfer.
//
// If nothing is sent, done is called directly so the engine does not wait
// for a completion that will never come.
func (p *Port) Flush(area refresh.Area, px []byte) {
	n := area.Pixels()
	if n == 0 {
		p.skipped.Add(1)
		p.done()
		return
	}

	w := area.Width()
	rows := area.Height()
	if avail := len(px) / 2; n > avail {
		rows = avail / w
		p.log.Warn("short flush buffer", "want", n, "have", avail, "rows", rows)
		if rows == 0 {
			p.skipped.Add(1)
			p.done()
			return
		}
		n = rows * w
	}

	swapped := p.swap(px, n)
	p.pixels.Add(uint64(swapped))
	p.flushes.Add(1)

	if err := p.panel.DrawBitmapAsync(int(area.X1), int(area.Y1), w, rows, px[:n*2]); err != nil {
		p.errors.Add(1)
		p.log.Error("panel transfer failed", "x", area.X1, "y", area.Y1, "w", w, "h", rows, "err", err)
		p.done()
	}
}

// Stats returns a snapshot of the counters.
func (p *Port) Stats() Stats {
	return Stats{
		Flushes: p.flushes.Load(),
		Pixels:  p.pixels.Load(),
		Skipped: p.skipped.Load(),
		Errors:  p.errors.Load(),
	}
}

var _ refresh.Flusher = (*Port)(nil)
