//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
)

const hostTransferQueueDepth = 10

var errShortBuffer = errors.New("panel: pixel buffer shorter than area")

type hostTransfer struct {
	x, y int
	w, h int
	px   []byte
}

// hostPanel emulates an SPI LCD: transfers are queued and copied into panel
// memory by a separate goroutine, which then fires the done callback like a
// DMA-complete interrupt.
type hostPanel struct {
	mu      sync.Mutex
	width   int
	height  int
	stride  int
	mem     []byte
	enabled bool

	jobs      chan hostTransfer
	done      atomic.Pointer[func()]
	transfers atomic.Uint64
}

func newHostPanel(width, height int) *hostPanel {
	p := &hostPanel{
		width:  width,
		height: height,
		stride: width * 2,
		mem:    make([]byte, width*height*2),
		jobs:   make(chan hostTransfer, hostTransferQueueDepth),
	}
	go p.run()
	return p
}

func (p *hostPanel) Width() int          { return p.width }
func (p *hostPanel) Height() int         { return p.height }
func (p *hostPanel) Format() PixelFormat { return PixelFormatRGB565 }

func (p *hostPanel) OnTransferDone(fn func()) {
	if fn == nil {
		p.done.Store(nil)
		return
	}
	p.done.Store(&fn)
}

func (p *hostPanel) DrawBitmapAsync(x, y, w, h int, px []byte) error {
	if err := checkArea(p.width, p.height, x, y, w, h, px); err != nil {
		return err
	}
	p.jobs <- hostTransfer{x: x, y: y, w: w, h: h, px: px}
	return nil
}

func (p *hostPanel) SetEnabled(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = on
	return nil
}

func (p *hostPanel) run() {
	for t := range p.jobs {
		p.blit(t)
		p.transfers.Add(1)
		if fn := p.done.Load(); fn != nil {
			(*fn)()
		}
	}
}

func (p *hostPanel) blit(t hostTransfer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	row := t.w * 2
	for j := 0; j < t.h; j++ {
		dst := (t.y+j)*p.stride + t.x*2
		src := j * row
		copy(p.mem[dst:dst+row], t.px[src:src+row])
	}
}

// snapshot renders panel memory into dst, black while the panel is off.
func (p *hostPanel) snapshot(dst *image.RGBA) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pix := dst.Pix
	for i, j := 0, 0; i+1 < len(p.mem) && j+3 < len(pix); i, j = i+2, j+4 {
		var r, g, b uint8
		if p.enabled {
			r, g, b = rgb888From565(be565(p.mem[i:]))
		}
		pix[j+0] = r
		pix[j+1] = g
		pix[j+2] = b
		pix[j+3] = 0xFF
	}
}

func checkArea(width, height, x, y, w, h int, px []byte) error {
	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > width || y+h > height {
		return fmt.Errorf("panel: area %dx%d at %d,%d outside %dx%d", w, h, x, y, width, height)
	}
	if len(px) < w*h*2 {
		return errShortBuffer
	}
	return nil
}
