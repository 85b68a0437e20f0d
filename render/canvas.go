package render

import (
	"image/color"

	"tinygo.org/x/drivers"

	"beatbyte/refresh"
)

// Canvas is a drivers.Displayer over one strip of a draw buffer. It
// reports the full screen size so screens draw in screen coordinates;
// pixels outside the strip are dropped.
//
// Pixels are stored as little-endian RGB565.
type Canvas struct {
	buf    []byte
	area   refresh.Area
	stride int
	width  int16
	height int16
}

func newCanvas(buf []byte, area refresh.Area, width, height int16) *Canvas {
	return &Canvas{
		buf:    buf,
		area:   area,
		stride: area.Width() * 2,
		width:  width,
		height: height,
	}
}

// Size returns the screen size.
func (c *Canvas) Size() (x, y int16) { return c.width, c.height }

// Area returns the strip being drawn.
func (c *Canvas) Area() refresh.Area { return c.area }

// SetPixel writes one pixel if it lies inside the strip.
func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	if x < c.area.X1 || x > c.area.X2 || y < c.area.Y1 || y > c.area.Y2 {
		return
	}
	i := int(y-c.area.Y1)*c.stride + int(x-c.area.X1)*2
	v := RGB565(col)
	c.buf[i] = byte(v)
	c.buf[i+1] = byte(v >> 8)
}

// Display is a no-op: the engine flushes the strip once drawing is done.
func (c *Canvas) Display() error { return nil }

// FillRectangle fills the part of (x, y, w, h) inside the strip.
func (c *Canvas) FillRectangle(x, y, w, h int16, col color.RGBA) {
	a := clip(refresh.Area{X1: x, Y1: y, X2: x + w - 1, Y2: y + h - 1}, c.area)
	if w <= 0 || h <= 0 || a.Empty() {
		return
	}
	v := RGB565(col)
	lo, hi := byte(v), byte(v>>8)
	for row := a.Y1; row <= a.Y2; row++ {
		i := int(row-c.area.Y1)*c.stride + int(a.X1-c.area.X1)*2
		for n := a.Width(); n > 0; n-- {
			c.buf[i] = lo
			c.buf[i+1] = hi
			i += 2
		}
	}
}

// Fill paints the whole strip.
func (c *Canvas) Fill(col color.RGBA) {
	c.FillRectangle(c.area.X1, c.area.Y1, int16(c.area.Width()), int16(c.area.Height()), col)
}

// RGB565 packs col as rrrrrggggggbbbbb.
func RGB565(col color.RGBA) uint16 {
	return uint16(col.R&0xF8)<<8 | uint16(col.G&0xFC)<<3 | uint16(col.B)>>3
}

var _ drivers.Displayer = (*Canvas)(nil)
