package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/kobo-highlights/internal/covers"
	"github.com/mrlokans/kobo-highlights/internal/database/sessions"
	"github.com/mrlokans/kobo-highlights/internal/device"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/http"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/kobo"
	"github.com/mrlokans/kobo-highlights/internal/scheduler"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
	"github.com/mrlokans/kobo-highlights/internal/tasks"
)

// =============================================================================
// Pipeline
// =============================================================================

var _ importers.DeviceScanner = (*device.Scanner)(nil)
var _ importers.CoverExtractor = (*covers.Extractor)(nil)
var _ importers.BookReader = (*kobo.Reader)(nil)
var _ exporters.BookExporter = (*exporters.MarkdownExporter)(nil)

// =============================================================================
// Services and Persistence
// =============================================================================

var _ services.SessionStore = (*sessions.Repository)(nil)
var _ services.SettingsProvider = (*settingsstore.SettingsStore)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.Library = (*services.LibraryService)(nil)
var _ tasks.SyncStatusRecorder = (*settingsstore.SettingsStore)(nil)
var _ tasks.SessionPruner = (*sessions.Repository)(nil)
var _ scheduler.Settings = (*settingsstore.SettingsStore)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)

// =============================================================================
// HTTP Controllers
// =============================================================================

var _ http.Library = (*services.LibraryService)(nil)
var _ http.DeviceFinder = (*importers.Orchestrator)(nil)
var _ http.DeviceFinder = (*device.Scanner)(nil)
var _ http.CoverStore = (*covers.Extractor)(nil)
var _ http.ExportSettings = (*settingsstore.SettingsStore)(nil)
var _ http.AutoSyncSettings = (*settingsstore.SettingsStore)(nil)
var _ http.SyncScheduler = (*scheduler.AutoSyncScheduler)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
