//go:build !tinygo

package hal

import "time"

// SPIPanelConfig wires an ST7789 on a Linux spidev port.
type SPIPanelConfig struct {
	Port string
	Hz   int64

	DC        string
	Reset     string
	Backlight string

	// LinesPerTransfer caps one SPI write; the bus limit applies if lower.
	LinesPerTransfer int

	Width  int
	Height int
}

const (
	st7789SWRESET = 0x01
	st7789SLPOUT  = 0x11
	st7789NORON   = 0x13
	st7789INVON   = 0x21
	st7789DISPOFF = 0x28
	st7789DISPON  = 0x29
	st7789CASET   = 0x2A
	st7789RASET   = 0x2B
	st7789RAMWR   = 0x2C
	st7789MADCTL  = 0x36
	st7789COLMOD  = 0x3A

	st7789ResetDelay = 150 * time.Millisecond
	st7789WakeDelay  = 120 * time.Millisecond
)
