//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
)

// HostConfig selects the host implementations.
type HostConfig struct {
	Width  int
	Height int

	// PanelDriver is "sim" (in-memory panel) or "spi" (ST7789 on spidev).
	PanelDriver string
	SPI         SPIPanelConfig

	// StorageRoot is the directory standing in for the SD card.
	StorageRoot string
	// Bluetooth enables the BlueZ backend where available.
	Bluetooth bool
}

type hostHAL struct {
	logger    *hostLogger
	backlight Backlight
	panel     Panel
	sim       *hostPanel
	serial    *hostSerial
	storage   *hostStorage
	bt        Bluetooth
}

// New returns a host HAL implementation.
func New(cfg HostConfig) (HAL, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("hal: invalid panel size %dx%d", cfg.Width, cfg.Height)
	}
	logger := &hostLogger{w: os.Stderr}
	h := &hostHAL{
		logger:    logger,
		backlight: &hostBacklight{logger: logger},
		serial:    newHostSerial(),
		storage:   &hostStorage{root: cfg.StorageRoot},
	}

	switch cfg.PanelDriver {
	case "", "sim":
		h.sim = newHostPanel(cfg.Width, cfg.Height)
		h.panel = h.sim
	case "spi":
		spiCfg := cfg.SPI
		spiCfg.Width = cfg.Width
		spiCfg.Height = cfg.Height
		p, err := newSPIPanel(spiCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("hal: spi panel: %w", err)
		}
		h.panel = p
		h.backlight = p
	default:
		return nil, fmt.Errorf("hal: unknown panel driver %q", cfg.PanelDriver)
	}

	if cfg.Bluetooth {
		h.bt = newHostBluetooth(logger)
	} else {
		h.bt = &softBluetooth{}
	}
	return h, nil
}

func (h *hostHAL) Logger() Logger       { return h.logger }
func (h *hostHAL) Backlight() Backlight { return h.backlight }
func (h *hostHAL) Panel() Panel         { return h.panel }
func (h *hostHAL) Serial() Serial       { return h.serial }
func (h *hostHAL) Storage() Storage     { return h.storage }
func (h *hostHAL) Bluetooth() Bluetooth { return h.bt }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostBacklight struct {
	mu     sync.Mutex
	on     bool
	logger *hostLogger
}

func (b *hostBacklight) SetBacklight(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.on = on
	if on {
		b.logger.WriteLineString("backlight: ON")
	} else {
		b.logger.WriteLineString("backlight: OFF")
	}
}
