package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/importers"
	"github.com/mrlokans/kobo-highlights/internal/log"
	"github.com/mrlokans/kobo-highlights/internal/services"
)

// Library runs device imports and exports.
type Library interface {
	ImportAndExport(ctx context.Context, trigger, devicePath string, contentIDs []string, cfg *entities.ExportConfig) (*importers.SyncResult, error)
	Sync(ctx context.Context, trigger string) (*importers.SyncResult, error)
}

// ExportBooksTask re-reads the device and exports the selected books.
type ExportBooksTask struct {
	DevicePath string                 `json:"device_path,omitempty"`
	ContentIDs []string               `json:"content_ids,omitempty"`
	Config     *entities.ExportConfig `json:"config,omitempty"`
}

// Config returns the queue configuration for export tasks.
func (t ExportBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_books",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExportBooksProcessor creates a processor function for ExportBooksTask.
func ExportBooksProcessor(library Library, timeout time.Duration) backlite.QueueProcessor[ExportBooksTask] {
	return func(ctx context.Context, task ExportBooksTask) error {
		if library == nil {
			return fmt.Errorf("library not configured")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		result, err := library.ImportAndExport(ctx, services.TriggerTask, task.DevicePath, task.ContentIDs, task.Config)
		if err != nil {
			return fmt.Errorf("export books: %w", err)
		}

		log.Info("export task completed",
			zap.String("device", result.Import.Device.Identifier()),
			zap.Int("books", result.Export.BooksProcessed),
			zap.Int("highlights", result.Export.HighlightsProcessed),
			zap.Int("failed", result.Export.BooksFailed))
		return nil
	}
}

// NewExportBooksQueue creates a backlite queue for export tasks.
func NewExportBooksQueue(library Library, timeout time.Duration) backlite.Queue {
	return backlite.NewQueue(ExportBooksProcessor(library, timeout))
}
