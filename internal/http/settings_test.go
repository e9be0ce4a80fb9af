package http

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

func TestExportSettingsEndpoints(t *testing.T) {
	server := setupTestServer(t, false, nil)

	w := performRequest(server.router, "GET", "/api/settings/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info settingsstore.ExportConfigInfo
	decodeJSON(t, w, &info)
	assert.Equal(t, server.exportDir, info.Config.ExportPath)
	assert.Equal(t, settingsstore.SourceConfig, info.Source)

	saved := entities.ExportConfig{
		ExportPath: "  " + t.TempDir() + "  ",
		Metadata:   entities.MetadataConfig{Author: true, ISBN: true},
		DateFormat: entities.DateFormatISO8601,
	}
	w = performRequest(server.router, "PUT", "/api/settings/export", saved)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeJSON(t, w, &info)
	assert.Equal(t, settingsstore.SourceDatabase, info.Source)
	assert.NotContains(t, info.Config.ExportPath, " ")
	assert.True(t, info.Config.Metadata.ISBN)
	assert.Equal(t, entities.DateFormatISO8601, server.settings.GetExportConfig().DateFormat)

	w = performRequest(server.router, "DELETE", "/api/settings/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &info)
	assert.Equal(t, server.exportDir, info.Config.ExportPath)
	assert.False(t, info.Config.Metadata.ISBN)
}

func TestExportSettingsEndpoints_Invalid(t *testing.T) {
	server := setupTestServer(t, false, nil)

	w := performRequest(server.router, "PUT", "/api/settings/export", map[string]any{
		"export_path": "",
		"date_format": "iso8601",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(server.router, "PUT", "/api/settings/export", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, server.exportDir, server.settings.GetExportConfig().ExportPath)
}

func TestExportPathEndpoints(t *testing.T) {
	server := setupTestServer(t, false, nil)

	w := performRequest(server.router, "GET", "/api/settings/export-path/default", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var def map[string]string
	decodeJSON(t, w, &def)
	assert.Equal(t, server.exportDir, def["path"])

	t.Run("accepts a missing directory without creating it", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "new", "vault")

		w := performRequest(server.router, "POST", "/api/settings/export-path/validate", ValidatePathRequest{Path: dir})
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		decodeJSON(t, w, &response)
		assert.Equal(t, true, response["valid"])
		assert.Equal(t, dir, response["path"])
		assert.NoDirExists(t, filepath.Dir(dir))
	})

	t.Run("rejects a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(file, nil, 0644))

		w := performRequest(server.router, "POST", "/api/settings/export-path/validate", ValidatePathRequest{Path: file})
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		decodeJSON(t, w, &response)
		assert.Equal(t, false, response["valid"])
		assert.NotEmpty(t, response["error"])
	})

	t.Run("rejects an empty path", func(t *testing.T) {
		w := performRequest(server.router, "POST", "/api/settings/export-path/validate", ValidatePathRequest{Path: "   "})

		var response map[string]any
		decodeJSON(t, w, &response)
		assert.Equal(t, false, response["valid"])
	})
}

func TestAutoSyncEndpoints(t *testing.T) {
	sched := &fakeScheduler{taskID: "task-7"}
	server := setupTestServer(t, false, func(cfg *RouterConfig) {
		cfg.Scheduler = sched
	})

	w := performRequest(server.router, "GET", "/api/settings/auto-sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var response AutoSyncSettingsResponse
	decodeJSON(t, w, &response)
	assert.False(t, response.Config.Enabled)
	assert.Equal(t, settingsstore.SourceDefault, response.Config.ScheduleSource)
	assert.NotEmpty(t, response.Presets)
	assert.False(t, response.IsRunning)

	enabled := true
	w = performRequest(server.router, "PUT", "/api/settings/auto-sync", UpdateAutoSyncRequest{Enabled: &enabled, Schedule: "0 * * * *"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeJSON(t, w, &response)
	assert.True(t, response.Config.Enabled)
	assert.Equal(t, "0 * * * *", response.Config.Schedule)
	assert.Equal(t, settingsstore.SourceDatabase, response.Config.ScheduleSource)
	assert.Equal(t, 1, sched.rescheduled)

	w = performRequest(server.router, "PUT", "/api/settings/auto-sync", UpdateAutoSyncRequest{Schedule: "every day"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "0 * * * *", server.settings.GetAutoSyncSchedule())
	assert.Equal(t, 1, sched.rescheduled)

	w = performRequest(server.router, "POST", "/api/sync/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "task-7")
	assert.Equal(t, []string{"api"}, sched.triggers)
}

func TestAutoSyncEndpoints_NoScheduler(t *testing.T) {
	server := setupTestServer(t, false, nil)

	w := performRequest(server.router, "POST", "/api/sync/run", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	enabled := true
	w = performRequest(server.router, "PUT", "/api/settings/auto-sync", UpdateAutoSyncRequest{Enabled: &enabled})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, server.settings.GetAutoSyncEnabled())
}
