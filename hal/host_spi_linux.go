//go:build !tinygo && linux

package hal

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// spiPanel drives an ST7789 through spidev. Transfers run on their own
// goroutine and signal completion through the done callback.
type spiPanel struct {
	cfg    SPIPanelConfig
	logger Logger
	port   spi.PortCloser
	bus  spi.Conn
	dc   gpio.PinIO
	rst  gpio.PinIO
	bl   gpio.PinIO

	chunk int

	mu   sync.Mutex // bus
	jobs chan hostTransfer
	done atomic.Pointer[func()]

	transfers atomic.Uint64
	failures  atomic.Uint64
}

func newSPIPanel(cfg SPIPanelConfig, logger Logger) (*spiPanel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	bus, err := port.Connect(physic.Frequency(cfg.Hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Port, err)
	}

	p := &spiPanel{
		cfg:    cfg,
		logger: logger,
		port:   port,
		bus:    bus,
		dc:     gpioreg.ByName(cfg.DC),
		rst:    gpioreg.ByName(cfg.Reset),
		bl:     gpioreg.ByName(cfg.Backlight),
		jobs:   make(chan hostTransfer, hostTransferQueueDepth),
	}
	if p.dc == nil {
		port.Close()
		return nil, fmt.Errorf("dc pin %q not found", cfg.DC)
	}

	lines := cfg.LinesPerTransfer
	if lines <= 0 {
		lines = 80
	}
	p.chunk = lines * cfg.Width * 2
	if l, ok := bus.(conn.Limits); ok {
		if max := l.MaxTxSize(); max > 0 && max < p.chunk {
			p.chunk = max &^ 1
		}
	}

	if err := p.init(); err != nil {
		port.Close()
		return nil, err
	}
	go p.run()
	return p, nil
}

func (p *spiPanel) init() error {
	if p.rst != nil {
		if err := p.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("reset pin: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		if err := p.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("reset pin: %w", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	steps := []struct {
		cmd   byte
		data  []byte
		delay time.Duration
	}{
		{cmd: st7789SWRESET, delay: st7789ResetDelay},
		{cmd: st7789SLPOUT, delay: st7789WakeDelay},
		{cmd: st7789COLMOD, data: []byte{0x55}},
		{cmd: st7789MADCTL, data: []byte{0x00}},
		{cmd: st7789INVON},
		{cmd: st7789NORON},
	}
	for _, s := range steps {
		if err := p.command(s.cmd, s.data...); err != nil {
			return fmt.Errorf("st7789 init 0x%02x: %w", s.cmd, err)
		}
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}
	return nil
}

func (p *spiPanel) Width() int          { return p.cfg.Width }
func (p *spiPanel) Height() int         { return p.cfg.Height }
func (p *spiPanel) Format() PixelFormat { return PixelFormatRGB565 }

func (p *spiPanel) OnTransferDone(fn func()) {
	if fn == nil {
		p.done.Store(nil)
		return
	}
	p.done.Store(&fn)
}

func (p *spiPanel) DrawBitmapAsync(x, y, w, h int, px []byte) error {
	if err := checkArea(p.cfg.Width, p.cfg.Height, x, y, w, h, px); err != nil {
		return err
	}
	p.jobs <- hostTransfer{x: x, y: y, w: w, h: h, px: px}
	return nil
}

func (p *spiPanel) SetEnabled(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if on {
		return p.command(st7789DISPON)
	}
	return p.command(st7789DISPOFF)
}

func (p *spiPanel) SetBacklight(on bool) {
	if p.bl == nil {
		return
	}
	_ = p.bl.Out(gpio.Level(on))
}

func (p *spiPanel) run() {
	for t := range p.jobs {
		if err := p.write(t); err != nil {
			reportTransferError(p.logger, p.failures.Add(1), err)
		}
		p.transfers.Add(1)
		if fn := p.done.Load(); fn != nil {
			(*fn)()
		}
	}
}

func (p *spiPanel) write(t hostTransfer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	x0, y0 := uint16(t.x), uint16(t.y)
	x1, y1 := uint16(t.x+t.w-1), uint16(t.y+t.h-1)
	if err := p.command(st7789CASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := p.command(st7789RASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	if err := p.command(st7789RAMWR); err != nil {
		return err
	}

	data := t.px[:t.w*t.h*2]
	for len(data) > 0 {
		n := p.chunk
		if n > len(data) {
			n = len(data)
		}
		if err := p.bus.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// command sends cmd with DC low, then its parameters with DC high. The
// caller holds p.mu.
func (p *spiPanel) command(cmd byte, data ...byte) error {
	if err := p.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := p.bus.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if err := p.dc.Out(gpio.High); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return p.bus.Tx(data, nil)
}

var _ Panel = (*spiPanel)(nil)
