package entrypoint

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/covers"
	"github.com/mrlokans/kobo-highlights/internal/database"
	"github.com/mrlokans/kobo-highlights/internal/device"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/log"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

// App holds the components shared by the server and the one-shot commands.
type App struct {
	Config       *config.Config
	DB           *database.Database
	Settings     *settingsstore.SettingsStore
	Covers       *covers.Extractor // nil when the cache directory is unusable
	Orchestrator *importers.Orchestrator
	Library      *services.LibraryService
}

// NewApp opens the database and wires the import pipeline.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	settings := settingsstore.New(db, cfg)

	// Without a cache the import still succeeds, only covers are skipped
	var coverExtractor importers.CoverExtractor
	extractor, err := covers.NewExtractor(cfg.Covers.CacheDir)
	if err != nil {
		log.Warn("cover cache disabled", zap.String("dir", cfg.Covers.CacheDir), zap.Error(err))
		extractor = nil
	} else {
		coverExtractor = extractor
		log.Debug("cover cache initialized", zap.String("dir", cfg.Covers.CacheDir))
	}

	orchestrator := importers.NewOrchestrator(
		device.NewScanner(cfg.Device.MountRoots),
		coverExtractor,
		exporters.NewMarkdownExporter(),
		importers.WithCoverWorkers(cfg.Covers.Workers),
	)

	return &App{
		Config:       cfg,
		DB:           db,
		Settings:     settings,
		Covers:       extractor,
		Orchestrator: orchestrator,
		Library:      services.NewLibraryService(orchestrator, settings, db.Sessions()),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
