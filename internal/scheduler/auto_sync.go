package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/log"
	"github.com/mrlokans/kobo-highlights/internal/services"
	"github.com/mrlokans/kobo-highlights/internal/settingsstore"
	"github.com/mrlokans/kobo-highlights/internal/tasks"
)

// Settings supplies the auto-sync configuration and keeps the last outcome.
type Settings interface {
	GetAutoSyncConfig() settingsstore.AutoSyncConfig
	SetAutoSyncStatus(status, message string) error
}

// Enqueuer hands a task to the background queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// AutoSyncScheduler periodically exports the connected device's highlights.
// Runs go through the task queue when one is configured, otherwise they
// execute inline, one at a time.
type AutoSyncScheduler struct {
	settings Settings
	library  tasks.Library
	queue    Enqueuer

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	parent     context.Context
	ctx        context.Context
	cancelFunc context.CancelFunc
	syncing    atomic.Bool
}

// NewAutoSyncScheduler creates a scheduler. queue may be nil.
func NewAutoSyncScheduler(settings Settings, library tasks.Library, queue Enqueuer) *AutoSyncScheduler {
	return &AutoSyncScheduler{
		settings: settings,
		library:  library,
		queue:    queue,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		parent:   context.Background(),
		ctx:      context.Background(),
	}
}

// Start begins the scheduler if auto-sync is enabled.
func (s *AutoSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settings.GetAutoSyncConfig()
	if !config.Enabled {
		log.Info("auto-sync scheduler disabled")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runSync(runCtx, services.TriggerSchedule)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	s.parent = ctx
	s.ctx, s.cancelFunc = runCtx, cancel
	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	log.Info("auto-sync scheduler started",
		zap.String("schedule", config.Schedule),
		zap.String("description", settingsstore.GetCronDescription(config.Schedule)),
		zap.Timep("next_run", nextRun))

	go s.stopWhenDone(s.ctx)

	return nil
}

func (s *AutoSyncScheduler) stopWhenDone(ctx context.Context) {
	<-ctx.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	// A later Start owns the scheduler now
	if s.ctx != ctx {
		return
	}
	s.stopLocked()
}

// Stop cancels a running sync, waits for it to return and removes the job.
func (s *AutoSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *AutoSyncScheduler) stopLocked() {
	if !s.isRunning {
		return
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	log.Info("auto-sync scheduler stopped")
}

// Reschedule applies changed settings.
func (s *AutoSyncScheduler) Reschedule() error {
	s.mu.RLock()
	parent := s.parent
	s.mu.RUnlock()

	s.Stop()
	return s.Start(parent)
}

// RunNow triggers an immediate sync. It returns the task ID when the sync
// was queued, "" when it runs inline.
func (s *AutoSyncScheduler) RunNow(trigger string) (string, error) {
	if s.queue != nil {
		return s.enqueue(trigger)
	}
	if s.syncing.Load() {
		return "", fmt.Errorf("sync already in progress")
	}
	go s.runSync(context.Background(), trigger)
	return "", nil
}

func (s *AutoSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sync will occur, nil when stopped.
func (s *AutoSyncScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() || entry.Next.IsZero() {
		return nil
	}
	next := entry.Next
	return &next
}

func (s *AutoSyncScheduler) enqueue(trigger string) (string, error) {
	id, err := s.queue.Enqueue(tasks.SyncDeviceTask{Trigger: trigger})
	if err != nil {
		log.Error("failed to enqueue sync", zap.Error(err))
		_ = s.settings.SetAutoSyncStatus(settingsstore.AutoSyncStatusFailed, err.Error())
		return "", err
	}
	log.Debug("sync task enqueued", zap.String("task", id), zap.String("trigger", trigger))
	return id, nil
}

func (s *AutoSyncScheduler) runSync(ctx context.Context, trigger string) {
	if trigger == services.TriggerSchedule && !s.settings.GetAutoSyncConfig().Enabled {
		log.Debug("auto-sync skipped, disabled")
		return
	}

	if s.queue != nil {
		_, _ = s.enqueue(trigger)
		return
	}

	if !s.syncing.CompareAndSwap(false, true) {
		log.Info("sync already in progress, skipping")
		return
	}
	defer s.syncing.Store(false)

	_ = tasks.RunSync(ctx, s.library, s.settings, trigger)
}
