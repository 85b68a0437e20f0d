package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"beatbyte/internal/buildinfo"
	"beatbyte/storage"
)

func newSDCardCmd(opts *rootOptions) *cobra.Command {
	var (
		src     string
		version string
	)
	cmd := &cobra.Command{
		Use:   "sdcard",
		Short: "Prepare the directory served as the SD card",
		Long:  "Copies --src into the storage root and writes version.txt.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := opts.cfg.Storage.Root
			if err := storage.BuildCard(src, dst, version); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sd card ready at %s (version %s)\n", dst, version)
			return nil
		},
	}
	cmd.Flags().StringVar(&src, "src", "", "Directory copied onto the card")
	cmd.Flags().StringVar(&version, "version", buildinfo.Short(), "Firmware version written to version.txt")
	return cmd
}
