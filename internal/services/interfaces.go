package services

import "github.com/mrlokans/kobo-highlights/internal/entities"

// SessionStore records import history. Use this interface when you only need
// to track runs, not query settings.
type SessionStore interface {
	Start(trigger string, dev entities.Device) (*entities.ImportSession, error)
	Complete(session *entities.ImportSession) error
	Recent(limit int) ([]entities.ImportSession, error)
}

// SettingsProvider supplies the saved export configuration and keeps the
// last import record.
type SettingsProvider interface {
	GetExportConfig() entities.ExportConfig
	SetLastImport(record entities.LastImportRecord) error
}

// Triggers recorded on import sessions.
const (
	TriggerCLI      = "cli"
	TriggerAPI      = "api"
	TriggerTask     = "task"
	TriggerSchedule = "schedule"
)
