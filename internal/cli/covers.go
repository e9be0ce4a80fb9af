package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/kobo-highlights/internal/entrypoint"
)

func newCoversCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covers",
		Short: "Manage the cover image cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached cover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *entrypoint.App) error {
				if app.Covers == nil {
					return errors.New("cover cache is not available")
				}
				removed, err := app.Covers.ClearCache()
				if err != nil {
					return fmt.Errorf("failed to clear cover cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached covers from %s\n", removed, app.Covers.CacheDir())
				return nil
			})
		},
	})
	return cmd
}
