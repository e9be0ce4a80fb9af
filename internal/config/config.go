package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Device
		Covers
		Export
		Tasks
		AutoSync
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Device struct {
		MountRoots []string // overrides the platform defaults when non-empty
	}
	Covers struct {
		CacheDir string
		Workers  int // parallel extractions per import
	}
	Export struct {
		Dir string // overrides the default export path when set
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	AutoSync struct {
		Enabled  bool
		Schedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
	Log struct {
		Level          string
		File           string
		FileMaxSize    int // megabytes
		FileMaxBackups int
		FileMaxAge     int // days
		Compress       bool
	}
)

// NewConfig reads configuration from KOBO_* environment variables.
func NewConfig() *Config {
	cfg, _ := Load("")
	return cfg
}

// Load reads configuration from KOBO_* environment variables and, when
// configFile is set, from that file. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8189)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("device_mount_roots", "")
	v.SetDefault("covers_cache_dir", DefaultCoversCacheDir)
	v.SetDefault("covers_workers", 4)
	v.SetDefault("export_dir", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Auto-sync defaults
	v.SetDefault("auto_sync_enabled", false)
	v.SetDefault("auto_sync_schedule", DefaultAutoSyncSchedule)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_file_max_size", 10)
	v.SetDefault("log_file_max_backups", 3)
	v.SetDefault("log_file_max_age", 28)
	v.SetDefault("log_compress", false)

	var loadErr error
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			loadErr = fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Device: Device{
			MountRoots: splitList(v.GetString("DEVICE_MOUNT_ROOTS")),
		},
		Covers: Covers{
			CacheDir: v.GetString("COVERS_CACHE_DIR"),
			Workers:  v.GetInt("COVERS_WORKERS"),
		},
		Export: Export{
			Dir: v.GetString("EXPORT_DIR"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		AutoSync: AutoSync{
			Enabled:  v.GetBool("AUTO_SYNC_ENABLED"),
			Schedule: v.GetString("AUTO_SYNC_SCHEDULE"),
		},
		Log: Log{
			Level:          v.GetString("LOG_LEVEL"),
			File:           v.GetString("LOG_FILE"),
			FileMaxSize:    v.GetInt("LOG_FILE_MAX_SIZE"),
			FileMaxBackups: v.GetInt("LOG_FILE_MAX_BACKUPS"),
			FileMaxAge:     v.GetInt("LOG_FILE_MAX_AGE"),
			Compress:       v.GetBool("LOG_COMPRESS"),
		},
	}, loadErr
}

// splitList parses a comma-separated value, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
