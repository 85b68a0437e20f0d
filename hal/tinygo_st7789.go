//go:build tinygo && baremetal

package hal

import (
	"errors"
	"machine"
	"sync/atomic"

	"tinygo.org/x/drivers/st7789"
)

type boardTransfer struct {
	x, y int16
	w, h int16
	px   []byte
}

// boardPanel drives the ST7789. Writes are queued to a transfer goroutine
// which fires the done callback when the bus is free again.
type boardPanel struct {
	dev    st7789.Device
	logger Logger
	jobs   chan boardTransfer
	done   atomic.Pointer[func()]

	failures atomic.Uint64
}

func newBoardPanel(logger Logger) (*boardPanel, error) {
	spi := machine.SPI3
	if err := spi.Configure(machine.SPIConfig{
		Frequency: lcdSPIHz,
		SCK:       lcdSCLK,
		SDO:       lcdMOSI,
		SDI:       machine.NoPin,
		Mode:      0,
	}); err != nil {
		return nil, errors.New("lcd: spi configure failed: " + err.Error())
	}

	dev := st7789.New(spi, lcdRST, lcdDC, lcdCS, machine.NoPin)
	dev.Configure(st7789.Config{
		Width:     lcdWidth,
		Height:    lcdHeight,
		Rotation:  st7789.NO_ROTATION,
		FrameRate: st7789.FRAMERATE_60,
	})

	p := &boardPanel{
		dev:    dev,
		logger: logger,
		jobs:   make(chan boardTransfer, 10),
	}
	go p.run()
	return p, nil
}

func (p *boardPanel) Width() int          { return lcdWidth }
func (p *boardPanel) Height() int         { return lcdHeight }
func (p *boardPanel) Format() PixelFormat { return PixelFormatRGB565 }

func (p *boardPanel) OnTransferDone(fn func()) {
	if fn == nil {
		p.done.Store(nil)
		return
	}
	p.done.Store(&fn)
}

func (p *boardPanel) DrawBitmapAsync(x, y, w, h int, px []byte) error {
	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > lcdWidth || y+h > lcdHeight {
		return errors.New("lcd: area outside panel")
	}
	if len(px) < w*h*2 {
		return errors.New("lcd: pixel buffer shorter than area")
	}
	p.jobs <- boardTransfer{x: int16(x), y: int16(y), w: int16(w), h: int16(h), px: px}
	return nil
}

func (p *boardPanel) SetEnabled(on bool) error {
	return p.dev.Sleep(!on)
}

func (p *boardPanel) run() {
	for t := range p.jobs {
		// Bytes are already in bus order.
		if err := p.dev.DrawRGBBitmap8(t.x, t.y, t.px[:int(t.w)*int(t.h)*2], t.w, t.h); err != nil {
			reportTransferError(p.logger, p.failures.Add(1), err)
		}
		if fn := p.done.Load(); fn != nil {
			(*fn)()
		}
	}
}
