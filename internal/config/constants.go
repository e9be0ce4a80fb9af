package config

// Default paths for local state
const (
	// DefaultDatabasePath is the default path for the settings and import history database
	DefaultDatabasePath = "./kobo-highlights.db"

	// DefaultCoversCacheDir is where extracted cover images are cached
	DefaultCoversCacheDir = "./covers"

	// DefaultAutoSyncSchedule runs a sync every 15 minutes when enabled
	DefaultAutoSyncSchedule = "*/15 * * * *"

	// EnvPrefix is prepended to every environment variable, e.g. KOBO_PORT
	EnvPrefix = "KOBO"
)
