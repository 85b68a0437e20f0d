package ui

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"beatbyte/keypad"
	"beatbyte/render"
)

const (
	faultLineHeight = 11
	faultBaseline   = 9
	faultCharWidth  = 6
)

var (
	colorFaultBackground = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorFaultText       = color.RGBA{A: 0xFF}
)

// Fault is the last screen shown before the board halts: black text on
// white, long lines wrapped to the panel width.
type Fault struct {
	lines []string
}

// NewFault wraps lines for a panel width pixels wide.
func NewFault(width int, lines ...string) *Fault {
	cols := width / faultCharWidth
	if cols <= 0 {
		cols = 1
	}
	f := &Fault{}
	for _, line := range lines {
		for _, l := range strings.Split(line, "\n") {
			if l == "" {
				continue
			}
			for len(l) > 0 {
				chunk, rest := takeRunes(l, cols)
				f.lines = append(f.lines, chunk)
				l = strings.TrimLeft(rest, " ")
			}
		}
	}
	return f
}

// Lines returns the wrapped text.
func (f *Fault) Lines() []string { return f.lines }

func (f *Fault) Draw(c *render.Canvas) {
	_, h := c.Size()
	c.Fill(colorFaultBackground)
	y := int16(0)
	for _, line := range f.lines {
		if y+faultLineHeight > h {
			return
		}
		x := int16(0)
		for _, r := range line {
			tinyfont.DrawChar(c, &proggy.TinySZ8pt7b, x, y+faultBaseline, r, colorFaultText)
			x += faultCharWidth
		}
		y += faultLineHeight
	}
}

func (f *Fault) HandleKey(keypad.Key, render.Invalidator) {}
func (f *Fault) Update(uint64, render.Invalidator)        {}

// takeRunes splits s after n runes.
func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= n {
		return s, ""
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}

var _ render.Screen = (*Fault)(nil)
