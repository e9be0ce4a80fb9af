// Package sessions records the history of device imports.
//
// # Usage
//
//	repo := sessions.NewRepository(db)
//	session, err := repo.Start("cli", device)
//	// ... import ...
//	session.Status = entities.ImportStatusCompleted
//	err = repo.Complete(session)
package sessions

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/kobo-highlights/internal/entities"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("import session not found")

// Repository handles import session database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Start creates a running session for an import from dev.
func (r *Repository) Start(trigger string, dev entities.Device) (*entities.ImportSession, error) {
	session := &entities.ImportSession{
		ID:         uuid.NewString(),
		Trigger:    trigger,
		DeviceID:   dev.Identifier(),
		DevicePath: dev.Path,
		Status:     entities.ImportStatusRunning,
		StartedAt:  r.now().UTC(),
	}
	if err := r.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create import session: %w", err)
	}
	return session, nil
}

// Complete stamps the completion time and saves the session's counters and status.
func (r *Repository) Complete(session *entities.ImportSession) error {
	now := r.now().UTC()
	session.CompletedAt = &now
	if session.Status == entities.ImportStatusRunning {
		session.Status = entities.ImportStatusCompleted
	}
	if err := r.db.Save(session).Error; err != nil {
		return fmt.Errorf("failed to save import session %s: %w", session.ID, err)
	}
	return nil
}

func (r *Repository) Get(id string) (*entities.ImportSession, error) {
	var session entities.ImportSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Recent returns the newest sessions first. limit <= 0 returns all of them.
func (r *Repository) Recent(limit int) ([]entities.ImportSession, error) {
	sessions := []entities.ImportSession{}
	query := r.db.Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

// IsRunning reports whether an import from deviceID is in progress.
// A session not completed within staleAfter is considered interrupted and
// is marked failed.
func (r *Repository) IsRunning(deviceID string, staleAfter time.Duration) (bool, error) {
	var session entities.ImportSession
	err := r.db.Where("device_id = ? AND status = ?", deviceID, entities.ImportStatusRunning).
		Order("started_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if session.StartedAt.Before(r.now().Add(-staleAfter)) {
		session.Status = entities.ImportStatusFailed
		session.Errors = `[{"key":"","stage":"","error":"import was interrupted"}]`
		return false, r.Complete(&session)
	}
	return true, nil
}

// Prune deletes completed sessions older than the retention period.
func (r *Repository) Prune(retention time.Duration) (int64, error) {
	cutoff := r.now().Add(-retention).UTC()
	result := r.db.Where("status <> ? AND started_at < ?", entities.ImportStatusRunning, cutoff).
		Delete(&entities.ImportSession{})
	return result.RowsAffected, result.Error
}
