package http

import "github.com/mrlokans/kobo-highlights/internal/database"

// RouterConfig contains all dependencies needed to create the HTTP router.
// Optional dependencies left nil disable their endpoints.
type RouterConfig struct {
	// Core dependencies
	Library  Library
	Devices  DeviceFinder
	Settings ExportSettings
	Database *database.Database

	// Cover cache (optional)
	Covers CoverStore

	// Periodic sync (optional)
	AutoSync  AutoSyncSettings
	Scheduler SyncScheduler

	// Task queue (optional)
	Tasks TaskQueue

	// Application info
	Version string
}
