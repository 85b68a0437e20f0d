//go:build !tinygo && cgo

package hal

import (
	"context"
	"errors"
	"image"

	"beatbyte/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"
)

// RunWindow opens a desktop window that mirrors the simulated panel and
// forwards keyboard input to the keypad UART. run is started alongside the
// window; RunWindow blocks until the window closes or run fails.
func RunWindow(ctx context.Context, h HAL, scale int, run func(ctx context.Context) error) error {
	hh, ok := h.(*hostHAL)
	if !ok || hh.sim == nil {
		return errors.New("window mode requires the sim panel")
	}
	if scale <= 0 {
		scale = 2
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return run(gctx) })

	game := &hostGame{h: hh, ctx: gctx}
	ebiten.SetWindowTitle("Beat-Byte (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(hh.sim.width*scale, hh.sim.height*scale)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(game)
	cancel()

	werr := g.Wait()
	if err != nil {
		return err
	}
	if werr != nil && !errors.Is(werr, context.Canceled) {
		return werr
	}
	return nil
}

type hostGame struct {
	h     *hostHAL
	ctx   context.Context
	img   *image.RGBA
	fbImg *ebiten.Image
}

func (g *hostGame) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}
	pollKeyboard(g.h.serial)
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	p := g.h.sim
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, p.width, p.height))
		g.fbImg = ebiten.NewImage(p.width, p.height)
	}
	p.snapshot(g.img)
	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.sim.width, g.h.sim.height
}
