package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Export settings, stored as JSON
	SettingKeyExportConfig = "export_config"

	// Last successful import, stored as JSON
	SettingKeyLastImport = "last_import"

	// Auto-sync settings
	SettingKeyAutoSyncEnabled     = "auto_sync_enabled"
	SettingKeyAutoSyncSchedule    = "auto_sync_schedule"
	SettingKeyAutoSyncLastAt      = "auto_sync_last_at"
	SettingKeyAutoSyncLastStatus  = "auto_sync_last_status"
	SettingKeyAutoSyncLastMessage = "auto_sync_last_message"
)

// LastImportRecord summarizes the most recent import.
type LastImportRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	DeviceID        string    `json:"device_id"`
	BooksCount      int       `json:"books_count"`
	HighlightsCount int       `json:"highlights_count"`
}
