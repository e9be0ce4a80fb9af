package settingsstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/entities"
)

func TestAutoSyncEnabled(t *testing.T) {
	db := setupTestDB(t)
	store := New(db, &config.Config{})

	assert.False(t, store.GetAutoSyncEnabled())
	assert.Equal(t, SourceDefault, store.GetAutoSyncEnabledSource())

	require.NoError(t, store.SetAutoSyncEnabled(true))
	assert.True(t, store.GetAutoSyncEnabled())
	assert.Equal(t, SourceDatabase, store.GetAutoSyncEnabledSource())

	require.NoError(t, db.DeleteSetting(entities.SettingKeyAutoSyncEnabled))
	assert.False(t, store.GetAutoSyncEnabled())
	assert.Equal(t, SourceDefault, store.GetAutoSyncEnabledSource())
}

func TestAutoSyncEnabled_FromConfig(t *testing.T) {
	store := New(setupTestDB(t), &config.Config{AutoSync: config.AutoSync{Enabled: true}})

	assert.True(t, store.GetAutoSyncEnabled())
	assert.Equal(t, SourceConfig, store.GetAutoSyncEnabledSource())

	// Database overrides config
	require.NoError(t, store.SetAutoSyncEnabled(false))
	assert.False(t, store.GetAutoSyncEnabled())
	assert.Equal(t, SourceDatabase, store.GetAutoSyncEnabledSource())
}

func TestAutoSyncSchedule(t *testing.T) {
	store := New(setupTestDB(t), &config.Config{})

	assert.Equal(t, config.DefaultAutoSyncSchedule, store.GetAutoSyncSchedule())
	assert.Equal(t, SourceDefault, store.GetAutoSyncScheduleSource())

	require.NoError(t, store.SetAutoSyncSchedule("0 * * * *"))
	assert.Equal(t, "0 * * * *", store.GetAutoSyncSchedule())
	assert.Equal(t, SourceDatabase, store.GetAutoSyncScheduleSource())

	assert.Error(t, store.SetAutoSyncSchedule("every minute"))
	assert.Equal(t, "0 * * * *", store.GetAutoSyncSchedule())
}

func TestAutoSyncSchedule_FromConfig(t *testing.T) {
	store := New(setupTestDB(t), &config.Config{AutoSync: config.AutoSync{Schedule: "0 0 * * *"}})

	assert.Equal(t, "0 0 * * *", store.GetAutoSyncSchedule())
	assert.Equal(t, SourceConfig, store.GetAutoSyncScheduleSource())
}

func TestAutoSyncConfigInfo(t *testing.T) {
	store := New(setupTestDB(t), &config.Config{})

	info := store.GetAutoSyncConfigInfo()
	assert.False(t, info.Enabled)
	assert.Nil(t, info.NextRunAt)
	assert.Equal(t, "Every 15 minutes", info.ScheduleDescription)

	require.NoError(t, store.SetAutoSyncEnabled(true))
	info = store.GetAutoSyncConfigInfo()
	assert.True(t, info.Enabled)
	require.NotNil(t, info.NextRunAt)
	assert.True(t, info.NextRunAt.After(time.Now()))

	assert.Equal(t, AutoSyncConfig{Enabled: true, Schedule: config.DefaultAutoSyncSchedule}, store.GetAutoSyncConfig())
}

func TestAutoSyncStatus(t *testing.T) {
	store := New(setupTestDB(t), &config.Config{})

	status := store.GetAutoSyncStatus()
	assert.Nil(t, status.LastSyncAt)
	assert.Empty(t, status.Status)

	require.NoError(t, store.SetAutoSyncStatus(AutoSyncStatusSuccess, "2 books exported"))

	status = store.GetAutoSyncStatus()
	require.NotNil(t, status.LastSyncAt)
	assert.WithinDuration(t, time.Now(), *status.LastSyncAt, time.Minute)
	assert.Equal(t, AutoSyncStatusSuccess, status.Status)
	assert.Equal(t, "2 books exported", status.Message)
}

func TestClearAutoSyncSettings(t *testing.T) {
	store := New(setupTestDB(t), &config.Config{})

	require.NoError(t, store.SetAutoSyncEnabled(true))
	require.NoError(t, store.SetAutoSyncSchedule("0 * * * *"))
	require.NoError(t, store.ClearAutoSyncSettings())

	assert.False(t, store.GetAutoSyncEnabled())
	assert.Equal(t, config.DefaultAutoSyncSchedule, store.GetAutoSyncSchedule())
}

func TestValidateCronSchedule(t *testing.T) {
	valid := []string{"*/15 * * * *", "0 * * * *", "0 0 * * 0", "30 6 1 * *"}
	for _, schedule := range valid {
		assert.NoError(t, ValidateCronSchedule(schedule), schedule)
	}

	invalid := []string{"", "* * * *", "61 * * * *", "hourly", "0 0 * * * *"}
	for _, schedule := range invalid {
		assert.Error(t, ValidateCronSchedule(schedule), schedule)
	}
}

func TestGetCronDescription(t *testing.T) {
	assert.Equal(t, "Every hour at :00", GetCronDescription("0 * * * *"))
	assert.Equal(t, "Daily at midnight", GetCronDescription("0 0 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", GetCronDescription("5 4 * * *"))
}

func TestGetNextRunTime(t *testing.T) {
	next, err := GetNextRunTime("0 * * * *")
	require.NoError(t, err)
	assert.Zero(t, next.Minute())
	assert.True(t, next.After(time.Now()))
	assert.True(t, next.Before(time.Now().Add(time.Hour+time.Second)))

	_, err = GetNextRunTime("bad")
	assert.Error(t, err)
}
