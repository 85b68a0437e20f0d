//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	// Duration stops the run after this long (0 = run until cancelled).
	Duration time.Duration
	// Input, when set, feeds keypad bytes (standard input from the CLI).
	Input io.Reader
	// Snapshot, when set, is a PNG path the final panel image is written to.
	Snapshot string
}

// RunHeadless runs the firmware without opening a window.
func RunHeadless(ctx context.Context, h HAL, cfg HeadlessConfig, run func(ctx context.Context) error) error {
	hh, ok := h.(*hostHAL)
	if !ok {
		return errors.New("headless mode requires the host HAL")
	}
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return run(gctx) })
	if cfg.Input != nil {
		g.Go(func() error { return feedSerial(gctx, hh.serial, cfg.Input) })
	}
	err := g.Wait()
	if cfg.Duration > 0 && errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	if cfg.Snapshot != "" && hh.sim != nil {
		if serr := writeSnapshot(hh.sim, cfg.Snapshot); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// feedSerial pumps in into the keypad UART. A read error stops the run;
// EOF does not. The pump itself is left behind on cancel since a terminal
// read cannot be interrupted.
func feedSerial(ctx context.Context, s *hostSerial, in io.Reader) error {
	errc := make(chan error, 1)
	go func() { errc <- s.pump(in) }()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("keypad input: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

func writeSnapshot(p *hostPanel, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	p.snapshot(img)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("snapshot: encode %q: %w", path, err)
	}
	return f.Close()
}
