package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/entrypoint"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

type exportFlags struct {
	devicePath string
	output     string
	dateFormat string
	books      []string
	metadata   entities.MetadataConfig
}

func newExportCommand(opts *options) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Import from the device and write one Markdown file per book",
		Long: `Import from the device and write one Markdown file per book.

The saved export settings are used; flags given on the command line
override them for this run only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *entrypoint.App) error {
				cfg, err := flags.apply(cmd.Flags(), app.Settings.GetExportConfig())
				if err != nil {
					return err
				}

				result, err := app.Library.ImportAndExport(ctx, services.TriggerCLI, flags.devicePath, flags.books, &cfg)
				if result != nil {
					printSync(cmd.OutOrStdout(), result)
				}
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.devicePath, "device", "", "device mount path (default: scan for one)")
	f.StringVarP(&flags.output, "output", "o", "", "export directory")
	f.StringVar(&flags.dateFormat, "date-format", "", "date format: dd_mm_yyyy, dd_month_yyyy or iso8601")
	f.StringSliceVar(&flags.books, "book", nil, "content ID of a book to export (repeatable, default: all)")
	f.BoolVar(&flags.metadata.Author, "author", false, "include the author")
	f.BoolVar(&flags.metadata.ISBN, "isbn", false, "include the ISBN")
	f.BoolVar(&flags.metadata.Publisher, "publisher", false, "include the publisher")
	f.BoolVar(&flags.metadata.DateLastRead, "date-last-read", false, "include the date last read")
	f.BoolVar(&flags.metadata.Language, "language", false, "include the language")
	f.BoolVar(&flags.metadata.Description, "description", false, "include the description")
	return cmd
}

// apply overrides saved with the flags that were set explicitly.
func (f *exportFlags) apply(set *pflag.FlagSet, saved entities.ExportConfig) (entities.ExportConfig, error) {
	cfg := saved
	if set.Changed("output") {
		cfg.ExportPath = f.output
	}
	if set.Changed("date-format") {
		format, err := entities.ParseDateFormat(f.dateFormat)
		if err != nil {
			return cfg, err
		}
		cfg.DateFormat = format
	}

	overrides := []struct {
		flag  string
		value bool
		field *bool
	}{
		{"author", f.metadata.Author, &cfg.Metadata.Author},
		{"isbn", f.metadata.ISBN, &cfg.Metadata.ISBN},
		{"publisher", f.metadata.Publisher, &cfg.Metadata.Publisher},
		{"date-last-read", f.metadata.DateLastRead, &cfg.Metadata.DateLastRead},
		{"language", f.metadata.Language, &cfg.Metadata.Language},
		{"description", f.metadata.Description, &cfg.Metadata.Description},
	}
	for _, o := range overrides {
		if set.Changed(o.flag) {
			*o.field = o.value
		}
	}
	return cfg, nil
}

func printSync(out io.Writer, result *importers.SyncResult) {
	if result.Import != nil {
		printFailures(out, result.Import.Skipped)
	}
	if result.Export == nil {
		return
	}
	for _, file := range result.Export.Files {
		fmt.Fprintf(out, "  wrote %s\n", file.Path)
	}
	printFailures(out, result.Export.Failures)
	fmt.Fprintf(out, "Exported %d books, %d highlights", result.Export.BooksProcessed, result.Export.HighlightsProcessed)
	if result.Export.BooksFailed > 0 {
		fmt.Fprintf(out, ", %d failed", result.Export.BooksFailed)
	}
	fmt.Fprintln(out)
}
