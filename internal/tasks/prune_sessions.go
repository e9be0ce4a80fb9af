package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/log"
)

// SessionPruner deletes old import history.
type SessionPruner interface {
	Prune(retention time.Duration) (int64, error)
}

// PruneSessionsTask removes import sessions older than the retention period.
type PruneSessionsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for session pruning tasks.
func (t PruneSessionsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_sessions",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneSessionsProcessor creates a processor function for PruneSessionsTask.
func PruneSessionsProcessor(pruner SessionPruner) backlite.QueueProcessor[PruneSessionsTask] {
	return func(ctx context.Context, task PruneSessionsTask) error {
		if pruner == nil {
			return fmt.Errorf("session pruner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 90
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := pruner.Prune(retention)
		if err != nil {
			return fmt.Errorf("prune import sessions: %w", err)
		}

		log.Info("pruned import sessions", zap.Int64("deleted", deleted), zap.Int("retention_days", retentionDays))
		return nil
	}
}

// NewPruneSessionsQueue creates a backlite queue for session pruning tasks.
func NewPruneSessionsQueue(pruner SessionPruner) backlite.Queue {
	return backlite.NewQueue(PruneSessionsProcessor(pruner))
}
