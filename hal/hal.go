package hal

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Backlight drives the LCD backlight pin.
type Backlight interface {
	SetBacklight(on bool)
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the panel pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Panel is the LCD controller at the end of the display bus.
//
// Pixel data handed to DrawBitmapAsync is RGB565 in bus order (big-endian)
// and must stay untouched until the transfer-done callback fires.
type Panel interface {
	Width() int
	Height() int
	Format() PixelFormat
	// DrawBitmapAsync queues a w*h transfer at x,y and returns without
	// waiting for the bus.
	DrawBitmapAsync(x, y, w, h int, px []byte) error
	// OnTransferDone installs the callback run from the transfer context
	// after each queued transfer completes.
	OnTransferDone(fn func())
	// SetEnabled turns the panel output on or off.
	SetEnabled(on bool) error
}

// Serial is the keypad UART.
type Serial interface {
	Read(p []byte) (int, error)
}

// Storage is the SD card slot.
type Storage interface {
	Mount() error
	Open(name string) (io.ReadCloser, error)
}

// Bluetooth toggles the radio and reports nearby device names.
type Bluetooth interface {
	Enabled() bool
	SetEnabled(on bool) error
	Devices() []string
}

// HAL provides the only contact point between the firmware and the board.
type HAL interface {
	Logger() Logger
	Backlight() Backlight
	Panel() Panel
	Serial() Serial
	Storage() Storage
	Bluetooth() Bluetooth
}

// LogWriter adapts a Logger to io.Writer, emitting one line per '\n'.
func LogWriter(l Logger) io.Writer {
	return &logWriter{l: l}
}

type logWriter struct {
	mu  sync.Mutex
	l   Logger
	buf []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.l.WriteLineBytes(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) == 0 {
		w.buf = w.buf[:0:0]
	}
	return len(p), nil
}

// softBluetooth is the fallback radio for boards without a backend: it only
// tracks the switch state.
type softBluetooth struct {
	mu      sync.Mutex
	enabled bool
}

func (b *softBluetooth) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *softBluetooth) SetEnabled(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = on
	return nil
}

func (b *softBluetooth) Devices() []string { return nil }
