// Package config holds the firmware settings. Defaults are the board
// values; the host binary can overlay a YAML file (see Load).
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"beatbyte/internal/logging"
	"beatbyte/refresh"
	"beatbyte/render"
)

// Config is the full firmware configuration.
type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Render    RenderConfig    `yaml:"render"`
	Storage   StorageConfig   `yaml:"storage"`
	Bluetooth BluetoothConfig `yaml:"bluetooth"`
	Log       LogConfig       `yaml:"log"`
}

// DisplayConfig describes the LCD.
type DisplayConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	DrawBufLines int `yaml:"draw_buf_lines"`

	// Driver is "sim" or "spi" on the host. The board always uses its own
	// ST7789 wiring.
	Driver string    `yaml:"driver"`
	SPI    SPIConfig `yaml:"spi"`
}

// SPIConfig is the Linux spidev wiring used by the "spi" driver.
type SPIConfig struct {
	Port             string `yaml:"port"`
	Hz               int64  `yaml:"hz"`
	DC               string `yaml:"dc"`
	Reset            string `yaml:"reset"`
	Backlight        string `yaml:"backlight"`
	LinesPerTransfer int    `yaml:"lines_per_transfer"`
}

// SchedulerConfig bounds the refresh loop.
type SchedulerConfig struct {
	// Hz is the OS tick rate; one tick is the default minimum sleep.
	Hz int `yaml:"hz"`
	// MinDelay overrides the tick-derived minimum when non-zero.
	MinDelay   time.Duration `yaml:"min_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
	TickPeriod time.Duration `yaml:"tick_period"`
}

// RenderConfig holds the render engine timer periods.
type RenderConfig struct {
	RefreshPeriod time.Duration `yaml:"refresh_period"`
	InputPeriod   time.Duration `yaml:"input_period"`
}

// StorageConfig locates the SD card contents on the host.
type StorageConfig struct {
	Root string `yaml:"root"`
}

// BluetoothConfig selects the radio backend on the host.
type BluetoothConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the board configuration.
func Default() Config {
	return Config{
		Display: DisplayConfig{
			Width:        240,
			Height:       320,
			DrawBufLines: 32,
			Driver:       "sim",
			SPI: SPIConfig{
				Port:             "SPI0.0",
				Hz:               20_000_000,
				DC:               "GPIO25",
				Reset:            "GPIO24",
				Backlight:        "GPIO18",
				LinesPerTransfer: 80,
			},
		},
		Scheduler: SchedulerConfig{
			Hz:         refresh.DefaultSchedulerHz,
			MaxDelay:   refresh.DefaultMaxDelay,
			TickPeriod: 2 * time.Millisecond,
		},
		Render: RenderConfig{
			RefreshPeriod: 33 * time.Millisecond,
			InputPeriod:   33 * time.Millisecond,
		},
		Storage: StorageConfig{
			Root: "sdcard",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks ranges. A minimum delay above the maximum is allowed;
// the maximum wins.
func (c Config) Validate() error {
	var errs []error
	d := c.Display
	if d.Width <= 0 || d.Width > math.MaxInt16 || d.Height <= 0 || d.Height > math.MaxInt16 {
		errs = append(errs, fmt.Errorf("display: invalid size %dx%d", d.Width, d.Height))
	}
	if d.DrawBufLines <= 0 || d.DrawBufLines > d.Height {
		errs = append(errs, fmt.Errorf("display: draw_buf_lines %d outside 1..%d", d.DrawBufLines, d.Height))
	}
	switch d.Driver {
	case "sim", "spi":
	default:
		errs = append(errs, fmt.Errorf("display: unknown driver %q", d.Driver))
	}
	if d.Driver == "spi" && (d.SPI.Port == "" || d.SPI.DC == "" || d.SPI.Hz <= 0) {
		errs = append(errs, errors.New("display: spi driver needs port, dc and hz"))
	}

	s := c.Scheduler
	if s.Hz <= 0 {
		errs = append(errs, fmt.Errorf("scheduler: hz must be positive, got %d", s.Hz))
	}
	if s.MinDelay < 0 {
		errs = append(errs, fmt.Errorf("scheduler: negative min_delay %s", s.MinDelay))
	}
	if s.MaxDelay <= 0 {
		errs = append(errs, fmt.Errorf("scheduler: max_delay must be positive, got %s", s.MaxDelay))
	}
	if s.TickPeriod < time.Millisecond {
		errs = append(errs, fmt.Errorf("scheduler: tick_period %s below 1ms", s.TickPeriod))
	} else if s.TickPeriod%time.Millisecond != 0 {
		errs = append(errs, fmt.Errorf("scheduler: tick_period %s is not a whole number of milliseconds", s.TickPeriod))
	}

	if c.Render.RefreshPeriod < time.Millisecond || c.Render.InputPeriod < time.Millisecond {
		errs = append(errs, errors.New("render: periods must be at least 1ms"))
	}

	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// RefreshConfig returns the scheduler bounds.
func (c Config) RefreshConfig() refresh.Config {
	min := c.Scheduler.MinDelay
	if min <= 0 {
		min = refresh.MinDelayForHz(c.Scheduler.Hz)
	}
	return refresh.Config{MinDelay: min, MaxDelay: c.Scheduler.MaxDelay}
}

// RenderConfig returns the engine configuration.
func (c Config) RenderConfig() render.Config {
	return render.Config{
		Width:         c.Display.Width,
		Height:        c.Display.Height,
		DrawBufLines:  c.Display.DrawBufLines,
		RefreshPeriod: millis(c.Render.RefreshPeriod),
		InputPeriod:   millis(c.Render.InputPeriod),
	}
}

// TickMillis is the logical time added per tick, at least 1.
func (c Config) TickMillis() uint32 {
	if ms := millis(c.Scheduler.TickPeriod); ms > 0 {
		return ms
	}
	return 1
}

func millis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	if ms <= 0 {
		return 0
	}
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}
