//go:build !tinygo

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"beatbyte/hal"
	"beatbyte/internal/config"
)

func testConfig(t *testing.T) (config.Config, hal.HAL) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "version.txt"), []byte("0.9.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Scheduler.Hz = 1000
	cfg.Storage.Root = dir

	h, err := hal.New(hal.HostConfig{
		Width:       cfg.Display.Width,
		Height:      cfg.Display.Height,
		StorageRoot: dir,
	})
	if err != nil {
		t.Fatalf("hal.New: %v", err)
	}
	return cfg, h
}

func TestSystemRendersFirstFrame(t *testing.T) {
	cfg, h := testConfig(t)
	sys, err := New(h, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sys.Version() != "0.9.1" {
		t.Fatalf("version=%q", sys.Version())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- sys.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for sys.Port().Stats().Flushes < 10 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: %v", err)
	}

	st := sys.Port().Stats()
	if st.Flushes < 10 {
		t.Fatalf("flushes=%d, want a full frame of 10 strips", st.Flushes)
	}
	if st.Pixels < 240*320 {
		t.Fatalf("pixels=%d", st.Pixels)
	}
	if sys.Scheduler().Now() == 0 {
		t.Fatalf("logical clock did not advance")
	}
	if es := sys.EngineStats(); es.Strips < 10 {
		t.Fatalf("engine stats=%+v", es)
	}
}

func TestRunTwiceFails(t *testing.T) {
	cfg, h := testConfig(t)
	sys, err := New(h, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = sys.Run(ctx)
	if err := sys.Run(ctx); err == nil {
		t.Fatalf("second Run succeeded")
	}
}

func TestMissingCardIsNotFatal(t *testing.T) {
	cfg := config.Default()
	h, err := hal.New(hal.HostConfig{Width: 240, Height: 320})
	if err != nil {
		t.Fatalf("hal.New: %v", err)
	}
	sys, err := New(h, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sys.Version() != "" {
		t.Fatalf("version=%q", sys.Version())
	}
}

type brokenPanel struct{ hal.Panel }

func (brokenPanel) SetEnabled(bool) error { return errors.New("no response") }

type brokenHAL struct {
	hal.HAL
	panel hal.Panel
}

func (b brokenHAL) Panel() hal.Panel { return b.panel }

func TestPanelFailureAbortsStartup(t *testing.T) {
	cfg, h := testConfig(t)
	bad := brokenHAL{HAL: h, panel: brokenPanel{Panel: h.Panel()}}
	if _, err := New(bad, cfg, nil); err == nil {
		t.Fatalf("expected startup error")
	}
}

func TestInvalidConfigAbortsStartup(t *testing.T) {
	cfg, h := testConfig(t)
	cfg.Scheduler.Hz = 0
	if _, err := New(h, cfg, nil); err == nil {
		t.Fatalf("expected config error")
	}
}

type countingPanel struct {
	hal.Panel
	draws int
}

func (p *countingPanel) DrawBitmapAsync(x, y, w, h int, px []byte) error {
	p.draws++
	return p.Panel.DrawBitmapAsync(x, y, w, h, px)
}

func TestShowFaultDrawsWholeScreen(t *testing.T) {
	_, h := testConfig(t)
	p := &countingPanel{Panel: h.Panel()}
	if !showFault(brokenHAL{HAL: h, panel: p}, "Beat-Byte halted:", "display: enable panel: no response") {
		t.Fatalf("showFault gave up")
	}
	if p.draws != 10 {
		t.Fatalf("draws=%d want 10", p.draws)
	}
}
