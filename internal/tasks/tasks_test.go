package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/exporters"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

type fakeLibrary struct {
	err        error
	trigger    string
	devicePath string
	contentIDs []string
	config     *entities.ExportConfig
	deadline   bool
}

func (f *fakeLibrary) result() *importers.SyncResult {
	return &importers.SyncResult{
		Import: &importers.ImportResult{Device: entities.Device{SerialNumber: "N1"}},
		Export: &exporters.ExportResult{BooksProcessed: 2, HighlightsProcessed: 3, BooksFailed: 1},
	}
}

func (f *fakeLibrary) ImportAndExport(ctx context.Context, trigger, devicePath string, contentIDs []string, cfg *entities.ExportConfig) (*importers.SyncResult, error) {
	f.trigger, f.devicePath, f.contentIDs, f.config = trigger, devicePath, contentIDs, cfg
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

func (f *fakeLibrary) Sync(ctx context.Context, trigger string) (*importers.SyncResult, error) {
	f.trigger = trigger
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

type fakeRecorder struct {
	status, message string
}

func (r *fakeRecorder) SetAutoSyncStatus(status, message string) error {
	r.status, r.message = status, message
	return nil
}

type fakePruner struct {
	retention time.Duration
	err       error
}

func (p *fakePruner) Prune(retention time.Duration) (int64, error) {
	p.retention = retention
	return 4, p.err
}

func TestExportBooksTaskConfig(t *testing.T) {
	cfg := ExportBooksTask{}.Config()

	assert.Equal(t, "export_books", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestSyncDeviceTaskConfig(t *testing.T) {
	cfg := SyncDeviceTask{}.Config()

	assert.Equal(t, "sync_device", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
}

func TestPruneSessionsTaskConfig(t *testing.T) {
	cfg := PruneSessionsTask{}.Config()

	assert.Equal(t, "prune_sessions", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestExportBooksProcessor(t *testing.T) {
	library := &fakeLibrary{}
	exportCfg := &entities.ExportConfig{ExportPath: "/tmp/out", DateFormat: entities.DateFormatISO8601}
	process := ExportBooksProcessor(library, time.Minute)

	err := process(context.Background(), ExportBooksTask{
		DevicePath: "/media/KOBO",
		ContentIDs: []string{"a", "b"},
		Config:     exportCfg,
	})
	require.NoError(t, err)
	assert.Equal(t, services.TriggerTask, library.trigger)
	assert.Equal(t, "/media/KOBO", library.devicePath)
	assert.Equal(t, []string{"a", "b"}, library.contentIDs)
	assert.Equal(t, exportCfg, library.config)
	assert.True(t, library.deadline)
}

func TestExportBooksProcessor_Error(t *testing.T) {
	library := &fakeLibrary{err: &importers.StageError{Stage: entities.StageDevice, Err: importers.ErrDeviceNotFound}}

	err := ExportBooksProcessor(library, 0)(context.Background(), ExportBooksTask{})
	assert.ErrorIs(t, err, importers.ErrDeviceNotFound)
	assert.False(t, library.deadline)

	err = ExportBooksProcessor(nil, 0)(context.Background(), ExportBooksTask{})
	assert.Error(t, err)
}

func TestRunSync(t *testing.T) {
	t.Run("records success", func(t *testing.T) {
		library := &fakeLibrary{}
		recorder := &fakeRecorder{}

		require.NoError(t, RunSync(context.Background(), library, recorder, ""))
		assert.Equal(t, services.TriggerSchedule, library.trigger)
		assert.Equal(t, settingsstore.AutoSyncStatusSuccess, recorder.status)
		assert.Equal(t, "2 books, 3 highlights exported, 1 failed", recorder.message)
	})

	t.Run("no device is not an error", func(t *testing.T) {
		library := &fakeLibrary{err: &importers.StageError{Stage: entities.StageDevice, Err: importers.ErrDeviceNotFound}}
		recorder := &fakeRecorder{}

		require.NoError(t, RunSync(context.Background(), library, recorder, services.TriggerAPI))
		assert.Equal(t, services.TriggerAPI, library.trigger)
		assert.Equal(t, settingsstore.AutoSyncStatusNoDevice, recorder.status)
	})

	t.Run("records failure", func(t *testing.T) {
		library := &fakeLibrary{err: errors.New("disk full")}
		recorder := &fakeRecorder{}

		err := RunSync(context.Background(), library, recorder, "")
		assert.Error(t, err)
		assert.Equal(t, settingsstore.AutoSyncStatusFailed, recorder.status)
		assert.Equal(t, "disk full", recorder.message)
	})

	t.Run("recorder is optional", func(t *testing.T) {
		assert.NoError(t, RunSync(context.Background(), &fakeLibrary{}, nil, ""))
	})
}

func TestSyncDeviceProcessor(t *testing.T) {
	library := &fakeLibrary{}
	recorder := &fakeRecorder{}

	require.NoError(t, SyncDeviceProcessor(library, recorder)(context.Background(), SyncDeviceTask{Trigger: services.TriggerAPI}))
	assert.Equal(t, services.TriggerAPI, library.trigger)
	assert.Equal(t, settingsstore.AutoSyncStatusSuccess, recorder.status)

	assert.Error(t, SyncDeviceProcessor(nil, recorder)(context.Background(), SyncDeviceTask{}))
}

func TestPruneSessionsProcessor(t *testing.T) {
	pruner := &fakePruner{}

	require.NoError(t, PruneSessionsProcessor(pruner)(context.Background(), PruneSessionsTask{}))
	assert.Equal(t, 90*24*time.Hour, pruner.retention)

	require.NoError(t, PruneSessionsProcessor(pruner)(context.Background(), PruneSessionsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, pruner.retention)

	pruner.err = errors.New("locked")
	assert.Error(t, PruneSessionsProcessor(pruner)(context.Background(), PruneSessionsTask{}))
	assert.Error(t, PruneSessionsProcessor(nil)(context.Background(), PruneSessionsTask{}))
}
