package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/entrypoint"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

func newImportCommand(opts *options) *cobra.Command {
	var (
		devicePath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Read books and highlights from the device",
		Long: `Read books and highlights from the connected Kobo device and cache
their covers. The run is recorded in the import history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *entrypoint.App) error {
				result, err := app.Library.Import(ctx, services.TriggerCLI, devicePath)
				if result == nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if encErr := enc.Encode(result); encErr != nil {
						return encErr
					}
				} else {
					printImport(out, result)
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&devicePath, "device", "", "device mount path (default: scan for one)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printImport(out io.Writer, result *importers.ImportResult) {
	fmt.Fprintf(out, "Device: %s (%s)\n", result.Device.Name, result.Device.Path)
	for _, book := range result.Books {
		fmt.Fprintf(out, "  %s - %s (%d highlights)\n", book.Title, book.Author, book.HighlightCount())
	}
	printFailures(out, result.Skipped)
	fmt.Fprintf(out, "Imported %d books, %d highlights, %d covers\n",
		len(result.Books), result.HighlightsCount, result.CoversExtracted)
}

func printFailures(out io.Writer, failures []entities.ItemFailure) {
	for _, failure := range failures {
		fmt.Fprintf(out, "  [SKIPPED] %s\n", failure.Error())
	}
}
