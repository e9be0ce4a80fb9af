// Package cli implements the kobo-highlights command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/entrypoint"
	"github.com/mrlokans/kobo-highlights/internal/log"
)

// options are shared by every command.
type options struct {
	configFile string
	logLevel   string

	version string
	commit  string
	cfg     *config.Config
}

// Execute runs the command line and returns the first error.
func Execute(version, commit string) error {
	defer log.Sync()
	return NewRootCommand(version, commit).Execute()
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(version, commit string) *cobra.Command {
	opts := &options{version: version, commit: commit}

	root := &cobra.Command{
		Use:           "kobo-highlights",
		Short:         "Export Kobo e-reader highlights to Markdown",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.Log.Level = opts.logLevel
			}
			log.Setup(cfg.Log)
			opts.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(opts.cfg, opts.version)
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (YAML, TOML or JSON); KOBO_* environment variables take precedence")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCommand(opts),
		newScanCommand(opts),
		newImportCommand(opts),
		newExportCommand(opts),
		newCoversCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, task workers and the auto-sync scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(opts.cfg, opts.version)
		},
	}
}

// withApp opens the application state for a one-shot command.
func withApp(opts *options, fn func(ctx context.Context, app *entrypoint.App) error) error {
	app, err := entrypoint.NewApp(opts.cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, app)
}
