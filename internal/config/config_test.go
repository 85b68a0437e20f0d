package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beatbyte.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	rc := cfg.RefreshConfig()
	if rc.MinDelay != 10*time.Millisecond || rc.MaxDelay != 500*time.Millisecond {
		t.Fatalf("refresh config=%+v", rc)
	}
	if got := cfg.TickMillis(); got != 2 {
		t.Fatalf("tick=%d", got)
	}
	r := cfg.RenderConfig()
	if r.Width != 240 || r.Height != 320 || r.DrawBufLines != 32 || r.RefreshPeriod != 33 || r.InputPeriod != 33 {
		t.Fatalf("render config=%+v", r)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  hz: 1000
  max_delay: 250ms
storage:
  root: /tmp/card
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.Hz != 1000 || cfg.Scheduler.MaxDelay != 250*time.Millisecond {
		t.Fatalf("scheduler=%+v", cfg.Scheduler)
	}
	if cfg.RefreshConfig().MinDelay != time.Millisecond {
		t.Fatalf("min delay=%s", cfg.RefreshConfig().MinDelay)
	}
	if cfg.Storage.Root != "/tmp/card" || cfg.Log.Level != "debug" {
		t.Fatalf("cfg=%+v", cfg)
	}
	// Untouched sections keep their defaults.
	if cfg.Display.Width != 240 || cfg.Scheduler.TickPeriod != 2*time.Millisecond {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("empty file changed config: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "display:\n  colour: red\n", "colour"},
		{"bad driver", "display:\n  driver: vga\n", "unknown driver"},
		{"bad duration", "scheduler:\n  max_delay: soon\n", "parse config"},
		{"zero hz", "scheduler:\n  hz: 0\n", "hz must be positive"},
		{"strip too tall", "display:\n  draw_buf_lines: 400\n", "draw_buf_lines"},
		{"log format", "log:\n  format: xml\n", "unknown format"},
		{"tick below 1ms", "scheduler:\n  tick_period: 500us\n", "below 1ms"},
		{"fractional tick", "scheduler:\n  tick_period: 1500us\n", "whole number of milliseconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err=%v want %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMinAboveMaxIsAllowed(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.MinDelay = time.Second
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	rc := cfg.RefreshConfig()
	if rc.MinDelay != time.Second || rc.MaxDelay != 500*time.Millisecond {
		t.Fatalf("refresh config=%+v", rc)
	}
}
