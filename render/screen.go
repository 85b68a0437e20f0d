package render

import (
	"beatbyte/keypad"
	"beatbyte/refresh"
)

// Invalidator collects areas to redraw.
type Invalidator interface {
	Invalidate(area refresh.Area)
	InvalidateAll()
}

// Screen is the content shown by the engine. All methods run with the
// render lock held.
type Screen interface {
	// Draw paints the canvas strip. The strip is cleared to black first.
	Draw(c *Canvas)
	// HandleKey reacts to a key press.
	HandleKey(k keypad.Key, inv Invalidator)
	// Update runs on every refresh period with the logical time in ms.
	Update(now uint64, inv Invalidator)
}
