// Package cli is the command tree of the host binary.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"beatbyte/internal/config"
	"beatbyte/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	storage    string
	panel      string
	bluetooth  bool

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root cobra command for the beatbyte binary.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "beatbyte",
		Short: "Beat-Byte firmware simulator",
		Long:  "Runs the Beat-Byte firmware on the desktop, headless, or against an ST7789 on Linux spidev.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVar(&opts.storage, "storage", "", "Directory served as the SD card")
	pf.StringVar(&opts.panel, "panel", "", "Panel driver (sim, spi)")
	pf.BoolVar(&opts.bluetooth, "bluetooth", false, "Use the BlueZ radio backend")

	root.AddCommand(
		newRunCmd(opts),
		newHeadlessCmd(opts),
		newSDCardCmd(opts),
		newVersionCmd(),
	)
	return root
}

// load reads the config file and applies flags the user set explicitly.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("storage") {
		cfg.Storage.Root = o.storage
	}
	if flags.Changed("panel") {
		cfg.Display.Driver = o.panel
	}
	if flags.Changed("bluetooth") {
		cfg.Bluetooth.Enabled = o.bluetooth
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	o.cfg = cfg
	o.logger = logging.NewLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	return nil
}
