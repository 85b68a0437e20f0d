package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"beatbyte/app"
	"beatbyte/hal"
	"beatbyte/internal/buildinfo"
	"beatbyte/internal/config"
)

func hostConfig(cfg config.Config) hal.HostConfig {
	spi := cfg.Display.SPI
	return hal.HostConfig{
		Width:       cfg.Display.Width,
		Height:      cfg.Display.Height,
		PanelDriver: cfg.Display.Driver,
		SPI: hal.SPIPanelConfig{
			Port:             spi.Port,
			Hz:               spi.Hz,
			DC:               spi.DC,
			Reset:            spi.Reset,
			Backlight:        spi.Backlight,
			LinesPerTransfer: spi.LinesPerTransfer,
		},
		StorageRoot: cfg.Storage.Root,
		Bluetooth:   cfg.Bluetooth.Enabled,
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var scale int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the firmware in a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := hal.New(hostConfig(opts.cfg))
			if err != nil {
				return err
			}
			sys, err := app.New(h, opts.cfg, opts.logger)
			if err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			opts.logger.Info("starting", "version", buildinfo.Short(), "mode", "window")
			return ignoreCancel(hal.RunWindow(cmd.Context(), h, scale, sys.Run))
		},
	}
	cmd.Flags().IntVar(&scale, "scale", 2, "Window scale factor")
	return cmd
}

func newHeadlessCmd(opts *rootOptions) *cobra.Command {
	var (
		hz       int
		ticks    uint64
		duration time.Duration
		snapshot string
		stdin    bool
	)
	cmd := &cobra.Command{
		Use:   "headless",
		Short: "Run the firmware without a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("hz") {
				cfg.Scheduler.Hz = hz
				cfg.Scheduler.MinDelay = 0
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			hc := hal.HeadlessConfig{Duration: duration, Snapshot: snapshot}
			if stdin {
				hc.Input = cmd.InOrStdin()
			}
			if ticks > 0 {
				hc.Duration = time.Duration(ticks) * cfg.Scheduler.TickPeriod
			}

			h, err := hal.New(hostConfig(cfg))
			if err != nil {
				return err
			}
			sys, err := app.New(h, cfg, opts.logger)
			if err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			opts.logger.Info("starting", "version", buildinfo.Short(), "mode", "headless", "duration", hc.Duration)
			if err := ignoreCancel(hal.RunHeadless(cmd.Context(), h, hc, sys.Run)); err != nil {
				return err
			}
			st := sys.Port().Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "clock=%dms iterations=%d flushes=%d pixels=%d\n",
				sys.Scheduler().Now(), sys.Scheduler().Iterations(), st.Flushes, st.Pixels)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&hz, "hz", 0, "Scheduler tick rate; sets the minimum sleep to one tick")
	f.Uint64Var(&ticks, "ticks", 0, "Stop after N tick periods (0 = run until interrupted)")
	f.DurationVar(&duration, "duration", 0, "Stop after this long (ignored with --ticks)")
	f.StringVar(&snapshot, "snapshot", "", "Write the final screen to this PNG file")
	f.BoolVar(&stdin, "stdin", false, "Read keypad bytes from standard input")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
			return nil
		},
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
