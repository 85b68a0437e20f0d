// Package app wires the firmware together: it owns the scheduler, the
// render engine and every collaborator, and passes them by reference.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"beatbyte/display"
	"beatbyte/hal"
	"beatbyte/internal/config"
	"beatbyte/internal/logging"
	"beatbyte/irq"
	"beatbyte/keypad"
	"beatbyte/refresh"
	"beatbyte/render"
	"beatbyte/storage"
	"beatbyte/ui"
)

// System is the running firmware.
type System struct {
	cfg config.Config
	h   hal.HAL
	log *slog.Logger

	keys   *keypad.Queue
	reader *keypad.Reader
	port   *display.Port
	engine *render.Engine
	sched  *refresh.Scheduler
	tick   *irq.Timer
	card   *storage.Card
	screen *ui.Status

	version string
}

// New initializes the hardware and builds the system. Any display init
// failure aborts startup; a missing SD card does not.
func New(h hal.HAL, cfg config.Config, log *slog.Logger) (*System, error) {
	if log == nil {
		log = logging.Discard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	panel := h.Panel()
	if panel == nil {
		return nil, errors.New("display: no panel")
	}
	if panel.Format() != hal.PixelFormatRGB565 {
		return nil, fmt.Errorf("display: unsupported pixel format %d", panel.Format())
	}
	if panel.Width() != cfg.Display.Width || panel.Height() != cfg.Display.Height {
		log.Warn("panel size differs from config, using panel",
			"panel", fmt.Sprintf("%dx%d", panel.Width(), panel.Height()),
			"config", fmt.Sprintf("%dx%d", cfg.Display.Width, cfg.Display.Height))
		cfg.Display.Width, cfg.Display.Height = panel.Width(), panel.Height()
		if cfg.Display.DrawBufLines > cfg.Display.Height {
			cfg.Display.DrawBufLines = cfg.Display.Height
		}
	}

	s := &System{
		cfg:  cfg,
		h:    h,
		log:  log,
		keys: keypad.NewQueue(),
	}

	s.port = display.NewPort(panel, s.flushDone, log)
	s.engine = render.New(cfg.RenderConfig(), s.port, s.keys, log)
	s.sched = refresh.New(s.engine, cfg.RefreshConfig(), refresh.WithLogger(log.With("component", "refresh")))

	tickMs := cfg.TickMillis()
	s.tick = irq.NewTimer(cfg.Scheduler.TickPeriod, func() { s.sched.Tick(tickMs) })

	s.reader = keypad.NewReader(h.Serial(), s.keys, log.With("component", "keypad"))

	s.card = storage.NewCard(h.Storage(), log)
	if err := s.card.Mount(); err != nil {
		log.Warn("sd card unavailable", "err", err)
	} else if v, err := s.card.ReadVersion(); err != nil {
		log.Warn("firmware version unavailable", "err", err)
	} else {
		s.version = v
	}

	s.screen = ui.NewStatus(s.version, h.Bluetooth(), h.Backlight(), cfg.Display.Width, log)
	s.sched.WithLock(func() { s.engine.SetScreen(s.screen) })

	if err := panel.SetEnabled(true); err != nil {
		return nil, fmt.Errorf("display: enable panel: %w", err)
	}
	if bl := h.Backlight(); bl != nil {
		bl.SetBacklight(true)
	}

	log.Info("system initialized",
		"width", cfg.Display.Width,
		"height", cfg.Display.Height,
		"draw_buf_lines", cfg.Display.DrawBufLines,
		"refresh_ms", s.engine.RefreshTimer().Period(),
		"input_ms", s.engine.InputTimer().Period(),
		"version", s.version)
	return s, nil
}

// flushDone is the panel's transfer-complete callback.
func (s *System) flushDone() { s.sched.FlushDone() }

// Run starts the tick source and the keypad reader and runs the refresh
// loop until ctx is done.
func (s *System) Run(ctx context.Context) error {
	if err := s.tick.Start(); err != nil {
		return fmt.Errorf("start tick timer: %w", err)
	}
	defer s.tick.Stop()

	go func() {
		if err := s.reader.Run(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("keypad reader stopped", "err", err)
		}
	}()

	err := s.sched.Run(ctx)

	st := s.port.Stats()
	s.log.Info("refresh loop stopped",
		"iterations", s.sched.Iterations(),
		"clock_ms", s.sched.Now(),
		"flushes", st.Flushes,
		"pixels", st.Pixels,
		"ticks", s.tick.Fired())
	return err
}

// Scheduler returns the refresh scheduler.
func (s *System) Scheduler() *refresh.Scheduler { return s.sched }

// Port returns the display flush port.
func (s *System) Port() *display.Port { return s.port }

// Version returns the firmware version read from the SD card, or "".
func (s *System) Version() string { return s.version }

// EngineStats returns the render engine counters.
func (s *System) EngineStats() render.Stats {
	var st render.Stats
	s.sched.WithLock(func() { st = s.engine.Stats() })
	return st
}
