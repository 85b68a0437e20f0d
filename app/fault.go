package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"beatbyte/display"
	"beatbyte/hal"
	"beatbyte/internal/config"
	"beatbyte/internal/logging"
	"beatbyte/render"
	"beatbyte/ui"
)

const (
	faultFlushTimeout = time.Second
	faultMaxSteps     = 64
)

// Run is the board entry point. It never returns: on a startup failure or
// a panic in the refresh loop it shows the error and halts.
func Run(h hal.HAL) {
	cfg := config.Default()
	log := logging.NewLoggerWithWriter(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, hal.LogWriter(h.Logger()))

	defer func() {
		if r := recover(); r != nil {
			halt(h, log, fmt.Sprintf("panic: %v", r), string(debug.Stack()))
		}
	}()

	sys, err := New(h, cfg, log)
	if err != nil {
		halt(h, log, "startup failed", err.Error())
	}
	err = sys.Run(context.Background())
	halt(h, log, "refresh loop exited", fmt.Sprint(err))
}

func halt(h hal.HAL, log *slog.Logger, msg, detail string) {
	log.Error(msg, "detail", firstLine(detail))
	if l := h.Logger(); l != nil {
		for _, line := range strings.Split(detail, "\n") {
			if line != "" {
				l.WriteLineString(line)
			}
		}
	}
	showFault(h, "Beat-Byte halted:", msg, detail)
	select {}
}

// showFault draws lines on the panel without the scheduler, waiting for
// each transfer in turn. It gives up if the panel stops answering.
func showFault(h hal.HAL, lines ...string) bool {
	panel := h.Panel()
	if panel == nil {
		return false
	}
	done := make(chan struct{}, 1)
	port := display.NewPort(panel, func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}, logging.Discard())

	e := render.New(render.Config{Width: panel.Width(), Height: panel.Height()}, port, nil, logging.Discard())
	e.SetScreen(ui.NewFault(panel.Width(), lines...))
	e.RefreshTimer().Ready()

	for i := 0; i < faultMaxSteps; i++ {
		e.ProcessPendingWork()
		if !e.Busy() {
			break
		}
		if e.Flushing() {
			select {
			case <-done:
				e.NotifyFlushComplete()
			case <-time.After(faultFlushTimeout):
				return false
			}
		}
	}
	_ = panel.SetEnabled(true)
	if bl := h.Backlight(); bl != nil {
		bl.SetBacklight(true)
	}
	return true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
