package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/database"
	"github.com/mrlokans/kobo-highlights/internal/device"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/kobo/kobotest"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

type testEnv struct {
	service   *LibraryService
	db        *database.Database
	settings  *settingsstore.SettingsStore
	mount     string
	deviceDir string
	exportDir string
}

func setupTestEnv(t *testing.T, withDevice bool) testEnv {
	t.Helper()

	mount := t.TempDir()
	deviceDir := filepath.Join(mount, "KOBOeReader")
	if withDevice {
		fixture, err := kobotest.CreateDevice(deviceDir, "N905000000001")
		require.NoError(t, err)
		require.NoError(t, kobotest.SeedSample(fixture))
		require.NoError(t, fixture.Close())
	}

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exportDir := filepath.Join(t.TempDir(), "export")
	settings := settingsstore.New(db, &config.Config{Export: config.Export{Dir: exportDir}})
	orchestrator := importers.NewOrchestrator(device.NewScanner([]string{mount}), nil, exporters.NewMarkdownExporter())

	return testEnv{
		service:   NewLibraryService(orchestrator, settings, db.Sessions()),
		db:        db,
		settings:  settings,
		mount:     mount,
		deviceDir: deviceDir,
		exportDir: exportDir,
	}
}

func TestImport_RecordsSessionAndLastImport(t *testing.T) {
	env := setupTestEnv(t, true)

	assert.Nil(t, env.service.Library())
	assert.Empty(t, env.service.Books())

	result, err := env.service.Import(context.Background(), TriggerCLI, "")
	require.NoError(t, err)
	assert.Len(t, result.Books, 2)
	assert.Equal(t, 3, result.HighlightsCount)

	assert.Same(t, result, env.service.Library())
	assert.Len(t, env.service.Books(), 2)

	last := env.settings.GetLastImport()
	require.NotNil(t, last)
	assert.Equal(t, "N905000000001", last.DeviceID)
	assert.Equal(t, 2, last.BooksCount)
	assert.Equal(t, 3, last.HighlightsCount)

	sessions, err := env.service.Sessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, TriggerCLI, sessions[0].Trigger)
	assert.Equal(t, entities.ImportStatusCompleted, sessions[0].Status)
	assert.Equal(t, 2, sessions[0].BooksCount)
	assert.Equal(t, 3, sessions[0].HighlightsCount)
	assert.Zero(t, sessions[0].FilesWritten)
	assert.Empty(t, sessions[0].Errors)
	assert.NotNil(t, sessions[0].CompletedAt)
}

func TestImport_ExplicitDevicePath(t *testing.T) {
	env := setupTestEnv(t, true)

	result, err := env.service.Import(context.Background(), TriggerAPI, env.deviceDir)
	require.NoError(t, err)
	assert.Equal(t, env.deviceDir, result.Device.Path)

	_, err = env.service.Import(context.Background(), TriggerAPI, t.TempDir())
	assert.ErrorIs(t, err, importers.ErrDeviceNotFound)
}

func TestImport_NoDevice(t *testing.T) {
	env := setupTestEnv(t, false)

	result, err := env.service.Import(context.Background(), TriggerCLI, "")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, importers.ErrDeviceNotFound)

	sessions, err := env.service.Sessions(10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Nil(t, env.settings.GetLastImport())
}

func TestImport_UnreadableDatabaseFailsSession(t *testing.T) {
	env := setupTestEnv(t, false)
	koboDir := filepath.Join(env.deviceDir, entities.KoboDirName)
	require.NoError(t, os.MkdirAll(koboDir, 0755))

	// A .kobo directory without a database is a device, but not a valid one
	_, err := env.service.Import(context.Background(), TriggerAPI, env.deviceDir)
	assert.ErrorIs(t, err, importers.ErrDeviceNotFound)

	sessions, err := env.service.Sessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, entities.ImportStatusFailed, sessions[0].Status)

	var failures []map[string]string
	require.NoError(t, json.Unmarshal([]byte(sessions[0].Errors), &failures))
	require.Len(t, failures, 1)
	assert.Equal(t, entities.StageDevice, failures[0]["stage"])
	assert.Equal(t, importers.ErrDeviceNotFound.Error(), failures[0]["error"])
}

func TestSync_UsesSavedSettings(t *testing.T) {
	env := setupTestEnv(t, true)

	result, err := env.service.Sync(context.Background(), TriggerSchedule)
	require.NoError(t, err)
	require.NotNil(t, result.Export)
	assert.Equal(t, 2, result.Export.BooksProcessed)
	assert.FileExists(t, filepath.Join(env.exportDir, "Atomic Habits - James Clear.md"))
	assert.FileExists(t, filepath.Join(env.exportDir, "Sapiens - Yuval Noah Harari.md"))

	sessions, err := env.service.Sessions(1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].FilesWritten)
	assert.Equal(t, TriggerSchedule, sessions[0].Trigger)
}

func TestImportAndExport_Selection(t *testing.T) {
	env := setupTestEnv(t, true)
	out := t.TempDir()
	cfg := entities.ExportConfig{ExportPath: out, DateFormat: entities.DateFormatISO8601}

	result, err := env.service.ImportAndExport(context.Background(), TriggerTask, env.deviceDir, []string{kobotest.SapiensID}, &cfg)
	require.NoError(t, err)
	assert.Len(t, result.Import.Books, 2)
	require.Len(t, result.Export.Files, 1)
	assert.Equal(t, kobotest.SapiensID, result.Export.Files[0].ContentID)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExport_FromLibrary(t *testing.T) {
	env := setupTestEnv(t, true)

	_, err := env.service.Export(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoLibrary)

	_, err = env.service.Import(context.Background(), TriggerAPI, "")
	require.NoError(t, err)

	result, err := env.service.Export(context.Background(), []string{kobotest.AtomicHabitsID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksProcessed)
	assert.Equal(t, 3, result.HighlightsProcessed)
	assert.FileExists(t, filepath.Join(env.exportDir, "Atomic Habits - James Clear.md"))
}

func TestExport_DestinationError(t *testing.T) {
	env := setupTestEnv(t, true)
	_, err := env.service.Import(context.Background(), TriggerAPI, "")
	require.NoError(t, err)

	blocker := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg := entities.ExportConfig{ExportPath: blocker, DateFormat: entities.DateFormatISO8601}

	_, err = env.service.Export(context.Background(), nil, &cfg)
	assert.ErrorIs(t, err, exporters.ErrDestination)
}

func TestPreview(t *testing.T) {
	env := setupTestEnv(t, true)

	_, err := env.service.Preview(kobotest.SapiensID, nil)
	assert.ErrorIs(t, err, ErrNoLibrary)

	_, err = env.service.Import(context.Background(), TriggerAPI, "")
	require.NoError(t, err)

	preview, err := env.service.Preview(kobotest.SapiensID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sapiens - Yuval Noah Harari.md", preview.Filename)
	assert.Equal(t, "# Sapiens\n", preview.Content)
	assert.Zero(t, preview.HighlightCount)

	cfg := entities.ExportConfig{ExportPath: "/x", Metadata: entities.MetadataConfig{Author: true}, DateFormat: entities.DateFormatISO8601}
	preview, err = env.service.Preview(kobotest.AtomicHabitsID, &cfg)
	require.NoError(t, err)
	assert.Contains(t, preview.Content, "**Author:** James Clear")
	assert.Equal(t, 3, preview.HighlightCount)

	_, err = env.service.Preview("missing", nil)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestSessions_WithoutStore(t *testing.T) {
	env := setupTestEnv(t, true)
	service := NewLibraryService(env.service.Orchestrator(), env.settings, nil)

	_, err := service.Import(context.Background(), TriggerCLI, "")
	require.NoError(t, err)

	sessions, err := service.Sessions(10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionStatus(t *testing.T) {
	assert.Equal(t, entities.ImportStatusCompleted, sessionStatus(nil, 0))
	assert.Equal(t, entities.ImportStatusPartial, sessionStatus(nil, 2))
	assert.Equal(t, entities.ImportStatusFailed, sessionStatus(assert.AnError, 0))
	assert.Equal(t, entities.ImportStatusCancelled, sessionStatus(context.Canceled, 0))
	assert.Equal(t, entities.ImportStatusCancelled, sessionStatus(context.DeadlineExceeded, 1))
}
