package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8189), cfg.HTTP.Port)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultCoversCacheDir, cfg.Covers.CacheDir)
	assert.Equal(t, 4, cfg.Covers.Workers)
	assert.Empty(t, cfg.Device.MountRoots)
	assert.False(t, cfg.AutoSync.Enabled)
	assert.Equal(t, DefaultAutoSyncSchedule, cfg.AutoSync.Schedule)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Tasks.TaskTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("KOBO_PORT", "9000")
	t.Setenv("KOBO_DEVICE_MOUNT_ROOTS", "/Volumes, /media/reader ,")
	t.Setenv("KOBO_AUTO_SYNC_ENABLED", "true")
	t.Setenv("KOBO_TASK_TIMEOUT", "90s")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, []string{"/Volumes", "/media/reader"}, cfg.Device.MountRoots)
	assert.True(t, cfg.AutoSync.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Tasks.TaskTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kobo.yaml")
	content := "port: 9100\nlog_level: debug\ncovers_cache_dir: /var/cache/kobo\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("KOBO_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int32(9100), cfg.HTTP.Port)
	assert.Equal(t, "/var/cache/kobo", cfg.Covers.CacheDir)
	assert.Equal(t, "warn", cfg.Log.Level, "environment wins over the file")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, int32(8189), cfg.HTTP.Port)
}
