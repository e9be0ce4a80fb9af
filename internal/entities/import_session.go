package entities

import "time"

type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusPartial   ImportStatus = "partial" // completed with skipped items
	ImportStatusFailed    ImportStatus = "failed"
	ImportStatusCancelled ImportStatus = "cancelled"
)

// ImportSession is the persisted history of one import (and optional export) run.
type ImportSession struct {
	ID              string       `gorm:"primaryKey;size:36" json:"id"`
	Trigger         string       `gorm:"size:20" json:"trigger"` // cli, api, task, schedule
	DeviceID        string       `gorm:"index;size:255" json:"device_id"`
	DevicePath      string       `gorm:"size:1024" json:"device_path"`
	Status          ImportStatus `gorm:"size:20;default:'running'" json:"status"`
	BooksCount      int          `json:"books_count"`
	HighlightsCount int          `json:"highlights_count"`
	CoversCount     int          `json:"covers_count"`
	SkippedCount    int          `json:"skipped_count"`
	FilesWritten    int          `json:"files_written"`
	Errors          string       `gorm:"type:text" json:"errors,omitempty"` // JSON array of ItemFailure
	StartedAt       time.Time    `json:"started_at"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
}

func (ImportSession) TableName() string {
	return "import_sessions"
}
