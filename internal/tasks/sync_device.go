package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/log"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
)

// SyncStatusRecorder keeps the outcome of the last sync.
type SyncStatusRecorder interface {
	SetAutoSyncStatus(status, message string) error
}

// SyncDeviceTask exports every book of the connected device with the saved
// settings. It does nothing when no device is connected.
type SyncDeviceTask struct {
	Trigger string `json:"trigger,omitempty"`
}

// Config returns the queue configuration for sync tasks.
func (t SyncDeviceTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_device",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RunSync performs one sync and records its outcome. A missing device is
// recorded but is not an error.
func RunSync(ctx context.Context, library Library, recorder SyncStatusRecorder, trigger string) error {
	if trigger == "" {
		trigger = services.TriggerSchedule
	}

	result, err := library.Sync(ctx, trigger)
	switch {
	case errors.Is(err, importers.ErrDeviceNotFound):
		log.Debug("sync skipped, no device connected")
		record(recorder, settingsstore.AutoSyncStatusNoDevice, "no device connected")
		return nil
	case err != nil:
		log.Error("sync failed", zap.Error(err))
		record(recorder, settingsstore.AutoSyncStatusFailed, err.Error())
		return fmt.Errorf("sync device: %w", err)
	}

	message := fmt.Sprintf("%d books, %d highlights exported", result.Export.BooksProcessed, result.Export.HighlightsProcessed)
	if result.Export.BooksFailed > 0 {
		message += fmt.Sprintf(", %d failed", result.Export.BooksFailed)
	}
	log.Info("sync completed", zap.String("device", result.Import.Device.Identifier()), zap.String("summary", message))
	record(recorder, settingsstore.AutoSyncStatusSuccess, message)
	return nil
}

func record(recorder SyncStatusRecorder, status, message string) {
	if recorder == nil {
		return
	}
	if err := recorder.SetAutoSyncStatus(status, message); err != nil {
		log.Warn("failed to save sync status", zap.Error(err))
	}
}

// SyncDeviceProcessor creates a processor function for SyncDeviceTask.
func SyncDeviceProcessor(library Library, recorder SyncStatusRecorder) backlite.QueueProcessor[SyncDeviceTask] {
	return func(ctx context.Context, task SyncDeviceTask) error {
		if library == nil {
			return fmt.Errorf("library not configured")
		}
		return RunSync(ctx, library, recorder, task.Trigger)
	}
}

// NewSyncDeviceQueue creates a backlite queue for sync tasks.
func NewSyncDeviceQueue(library Library, recorder SyncStatusRecorder) backlite.Queue {
	return backlite.NewQueue(SyncDeviceProcessor(library, recorder))
}
