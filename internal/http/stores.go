package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

// Each controller depends only on the methods it uses. The concrete types
// wired in by the entrypoint are services.LibraryService,
// importers.Orchestrator, covers.Extractor, settingsstore.SettingsStore,
// scheduler.AutoSyncScheduler and tasks.Client.

// Library imports from the device and serves the last imported books.
type Library interface {
	Import(ctx context.Context, trigger, devicePath string) (*importers.ImportResult, error)
	Export(ctx context.Context, contentIDs []string, cfg *entities.ExportConfig) (*exporters.ExportResult, error)
	Preview(contentID string, cfg *entities.ExportConfig) (*exporters.PreviewResult, error)
	Books() []entities.Book
	Book(contentID string) (entities.Book, error)
	Sessions(limit int) ([]entities.ImportSession, error)
}

// DeviceFinder detects connected readers.
type DeviceFinder interface {
	Scan() *entities.Device
	ScanAll() []entities.Device
}

// CoverStore serves and clears cached cover images.
type CoverStore interface {
	CachedCover(bookID string) string
	ClearCache() (int, error)
}

// ExportSettings loads and saves the export configuration.
type ExportSettings interface {
	DefaultExportConfig() entities.ExportConfig
	GetExportConfigInfo() settingsstore.ExportConfigInfo
	SetExportConfig(cfg entities.ExportConfig) error
	ResetExportConfig() (entities.ExportConfig, error)
	GetLastImport() *entities.LastImportRecord
}

// AutoSyncSettings loads and saves the periodic sync configuration.
type AutoSyncSettings interface {
	GetAutoSyncConfigInfo() settingsstore.AutoSyncConfigInfo
	GetAutoSyncStatus() settingsstore.AutoSyncStatus
	SetAutoSyncEnabled(enabled bool) error
	SetAutoSyncSchedule(schedule string) error
}

// SyncScheduler runs the periodic sync.
type SyncScheduler interface {
	Reschedule() error
	RunNow(trigger string) (string, error)
	IsRunning() bool
	NextRunTime() *time.Time
}

// TaskQueue enqueues background work and reports its progress.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	StatusString(ctx context.Context, taskID string) (string, error)
}
