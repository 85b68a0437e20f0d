package cli

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"beatbyte/internal/buildinfo"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, buildinfo.Version) || !strings.HasPrefix(out, "beatbyte ") {
		t.Fatalf("output=%q", out)
	}
}

func TestHeadlessRunsAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	card := filepath.Join(dir, "card")
	if err := os.Mkdir(card, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(card, "version.txt"), []byte("1.0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	shot := filepath.Join(dir, "screen.png")

	out, err := execute(t, "headless",
		"--log-level", "error",
		"--storage", card,
		"--hz", "1000",
		"--ticks", "250",
		"--snapshot", shot)
	if err != nil {
		t.Fatalf("headless: %v\n%s", err, out)
	}
	if !strings.Contains(out, "clock=") || !strings.Contains(out, "flushes=") {
		t.Fatalf("output=%q", out)
	}

	f, err := os.Open(shot)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 240 || b.Dy() != 320 {
		t.Fatalf("snapshot size=%v", b)
	}
}

func TestInvalidPanelFlag(t *testing.T) {
	if _, err := execute(t, "--panel", "vga", "version"); err == nil || !strings.Contains(err.Error(), "unknown driver") {
		t.Fatalf("err=%v", err)
	}
}

func TestMissingConfigFile(t *testing.T) {
	if _, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "version"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beatbyte.yaml")
	body := "log:\n  level: debug\nstorage:\n  root: /from/file\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := &rootOptions{}
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "")
	f.StringVar(&opts.logLevel, "log-level", "info", "")
	f.StringVar(&opts.logFormat, "log-format", "text", "")
	f.StringVar(&opts.storage, "storage", "", "")
	f.StringVar(&opts.panel, "panel", "", "")
	f.BoolVar(&opts.bluetooth, "bluetooth", false, "")
	if err := f.Parse([]string{"--config", path, "--storage", "/from/flag"}); err != nil {
		t.Fatal(err)
	}

	if err := opts.load(cmd); err != nil {
		t.Fatalf("load: %v", err)
	}
	if opts.cfg.Log.Level != "debug" {
		t.Errorf("level=%q, want file value", opts.cfg.Log.Level)
	}
	if opts.cfg.Storage.Root != "/from/flag" {
		t.Errorf("storage=%q, want flag value", opts.cfg.Storage.Root)
	}
	if opts.cfg.Log.Format != "text" {
		t.Errorf("format=%q, want default", opts.cfg.Log.Format)
	}
	if opts.logger == nil {
		t.Errorf("logger not built")
	}
}

func TestSDCardCmd(t *testing.T) {
	card := filepath.Join(t.TempDir(), "card")
	out, err := execute(t, "sdcard", "--storage", card, "--version", "3.1.4")
	if err != nil {
		t.Fatalf("sdcard: %v", err)
	}
	if !strings.Contains(out, "version 3.1.4") {
		t.Fatalf("output=%q", out)
	}
	b, err := os.ReadFile(filepath.Join(card, "version.txt"))
	if err != nil || string(b) != "3.1.4\n" {
		t.Fatalf("version.txt=%q err=%v", b, err)
	}
}
