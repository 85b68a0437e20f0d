package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "text", &buf)
	logger.Info("filesystem mounted", "path", "/sdcard")

	out := buf.String()
	if !strings.Contains(out, "filesystem mounted") || !strings.Contains(out, "path=/sdcard") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "JSON", &buf)
	logger.Info("key", "key", "enter")

	out := buf.String()
	if !strings.Contains(out, `"msg":"key"`) || !strings.Contains(out, `"key":"enter"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf)

	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("INFO logged at WARN level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("WARN missing: %s", out)
	}
}

func TestComponentAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelDebug, "text", &buf).With("component", "render")
	logger.Debug("strip", "y", 32)

	out := buf.String()
	if !strings.Contains(out, "component=render") || !strings.Contains(out, "y=32") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q)=%v want %v", tt.in, got, tt.want)
		}
	}
	if ValidLevel("verbose") || !ValidLevel("Debug") {
		t.Errorf("ValidLevel mismatch")
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Errorf("discard logger enabled")
	}
}
