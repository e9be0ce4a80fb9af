package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/entrypoint"
	"github.com/mrlokans/kobo-highlights/internal/importers"
)

func newScanCommand(opts *options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Detect a connected Kobo device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *entrypoint.App) error {
				out := cmd.OutOrStdout()
				if all {
					devices := app.Orchestrator.ScanAll()
					if len(devices) == 0 {
						fmt.Fprintln(out, "No Kobo volumes found")
						return nil
					}
					for _, dev := range devices {
						printDevice(out, dev)
					}
					return nil
				}

				dev := app.Orchestrator.Scan()
				if dev == nil {
					return importers.ErrDeviceNotFound
				}
				printDevice(out, *dev)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "list every candidate volume, including unreadable ones")
	return cmd
}

func printDevice(out io.Writer, dev entities.Device) {
	status := "valid"
	if !dev.Valid {
		status = "invalid database"
	}
	fmt.Fprintf(out, "%s\t%s\t%s", dev.Name, dev.Path, status)
	if dev.SerialNumber != "" {
		fmt.Fprintf(out, "\tserial %s", dev.SerialNumber)
	}
	fmt.Fprintln(out)
}
