// Package ui holds the screens shown on the LCD.
package ui

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync/atomic"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"beatbyte/hal"
	"beatbyte/keypad"
	"beatbyte/refresh"
	"beatbyte/render"
)

const (
	Title = "Beat-Byte"

	titleHeight = 24
	rowHeight   = 18
	rowTop      = titleHeight + 8
	textInset   = 8
	baseline    = 13
)

var (
	colorBackground = color.RGBA{A: 0xFF}
	colorTitleBar   = color.RGBA{R: 0x10, G: 0x60, B: 0xC0, A: 0xFF}
	colorText       = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorDim        = color.RGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xFF}
	colorCursor     = color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
)

// Rows of the status screen, top to bottom.
const (
	RowVersion = iota
	RowBluetooth
	RowBacklight
	RowDevices
	RowUptime
	rowCount
)

func selectable(row int) bool {
	return row == RowBluetooth || row == RowBacklight
}

// Status shows the firmware version, radio and backlight switches and the
// uptime. The Bluetooth switch runs in the background; the result is
// picked up on the next Update.
type Status struct {
	version   string
	bt        hal.Bluetooth
	backlight hal.Backlight
	log       *slog.Logger
	width     int16

	cursor  int
	lightOn bool
	uptime  uint64
	devices int

	btOn      atomic.Bool
	btBusy    atomic.Bool
	btChanged atomic.Bool

	// Device count, polled off the render path.
	devCount   atomic.Int32
	devPolling atomic.Bool
}

// NewStatus returns the status screen. version may be empty when no card
// is present.
func NewStatus(version string, bt hal.Bluetooth, bl hal.Backlight, width int, log *slog.Logger) *Status {
	if log == nil {
		log = slog.Default()
	}
	if version == "" {
		version = "unknown"
	}
	s := &Status{
		version:   version,
		bt:        bt,
		backlight: bl,
		log:       log.With("component", "ui"),
		width:     int16(width),
		cursor:    RowBluetooth,
		lightOn:   true,
	}
	if bt != nil {
		s.btOn.Store(bt.Enabled())
	}
	return s
}

// Cursor returns the selected row.
func (s *Status) Cursor() int { return s.cursor }

// RowArea returns the screen area covered by row.
func (s *Status) RowArea(row int) refresh.Area {
	y := int16(rowTop + row*rowHeight)
	return refresh.Area{X1: 0, Y1: y, X2: s.width - 1, Y2: y + rowHeight - 1}
}

func (s *Status) Draw(c *render.Canvas) {
	w, _ := c.Size()
	c.Fill(colorBackground)
	c.FillRectangle(0, 0, w, titleHeight, colorTitleBar)
	tinyfont.WriteLine(c, &proggy.TinySZ8pt7b, textInset, 16, Title, colorText)

	for row := 0; row < rowCount; row++ {
		a := s.RowArea(row)
		if row == s.cursor {
			c.FillRectangle(a.X1, a.Y1, int16(a.Width()), int16(a.Height()), colorCursor)
		}
		col := colorText
		if !selectable(row) {
			col = colorDim
		}
		tinyfont.WriteLine(c, &proggy.TinySZ8pt7b, textInset, a.Y1+baseline, s.label(row), col)
	}
}

func (s *Status) label(row int) string {
	switch row {
	case RowVersion:
		return "Version: " + s.version
	case RowBluetooth:
		state := onOff(s.btOn.Load())
		if s.btBusy.Load() {
			state = "..."
		}
		return "Bluetooth: " + state
	case RowBacklight:
		return "Backlight: " + onOff(s.lightOn)
	case RowDevices:
		return fmt.Sprintf("Devices: %d", s.devices)
	case RowUptime:
		return "Uptime: " + formatUptime(s.uptime)
	}
	return ""
}

func (s *Status) HandleKey(k keypad.Key, inv render.Invalidator) {
	switch k {
	case keypad.KeyPrev, keypad.KeyLeft:
		s.move(-1, inv)
	case keypad.KeyNext, keypad.KeyRight:
		s.move(1, inv)
	case keypad.KeyEsc:
		s.moveTo(RowBluetooth, inv)
	case keypad.KeyEnter:
		s.activate(inv)
	}
}

func (s *Status) move(dir int, inv render.Invalidator) {
	for row := s.cursor + dir; row >= 0 && row < rowCount; row += dir {
		if selectable(row) {
			s.moveTo(row, inv)
			return
		}
	}
}

func (s *Status) moveTo(row int, inv render.Invalidator) {
	if row == s.cursor {
		return
	}
	inv.Invalidate(s.RowArea(s.cursor))
	s.cursor = row
	inv.Invalidate(s.RowArea(row))
}

func (s *Status) activate(inv render.Invalidator) {
	switch s.cursor {
	case RowBluetooth:
		s.toggleBluetooth()
		inv.Invalidate(s.RowArea(RowBluetooth))
	case RowBacklight:
		s.lightOn = !s.lightOn
		if s.backlight != nil {
			s.backlight.SetBacklight(s.lightOn)
		}
		inv.Invalidate(s.RowArea(RowBacklight))
	}
}

// toggleBluetooth flips the radio off the render path. A toggle while one
// is in progress is ignored.
func (s *Status) toggleBluetooth() {
	if s.bt == nil || !s.btBusy.CompareAndSwap(false, true) {
		return
	}
	want := !s.btOn.Load()
	go func() {
		defer func() {
			s.btBusy.Store(false)
			s.btChanged.Store(true)
		}()
		if err := s.bt.SetEnabled(want); err != nil {
			s.log.Error("bluetooth toggle failed", "enable", want, "err", err)
			return
		}
		s.btOn.Store(want)
		s.log.Info("bluetooth", "enabled", want)
	}()
}

// Update runs under the render lock, so it only reads what the background
// toggle and device poll have published.
func (s *Status) Update(now uint64, inv render.Invalidator) {
	if s.btChanged.Swap(false) {
		inv.Invalidate(s.RowArea(RowBluetooth))
	}
	if n := int(s.devCount.Load()); n != s.devices {
		s.devices = n
		inv.Invalidate(s.RowArea(RowDevices))
	}
	secs := now / 1000
	if secs == s.uptime {
		return
	}
	s.uptime = secs
	inv.Invalidate(s.RowArea(RowUptime))
	s.pollDevices()
}

// pollDevices refreshes the device count in the background. A poll still
// waiting on the radio is not doubled up.
func (s *Status) pollDevices() {
	if s.bt == nil || !s.devPolling.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.devPolling.Store(false)
		s.devCount.Store(int32(len(s.bt.Devices())))
	}()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func formatUptime(secs uint64) string {
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

var _ render.Screen = (*Status)(nil)
