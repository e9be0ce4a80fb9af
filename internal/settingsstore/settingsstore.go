// Package settingsstore resolves user settings from the application database,
// falling back to the process configuration and then to built-in defaults.
package settingsstore

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/database"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/log"
)

// Setting sources, in priority order.
const (
	SourceDatabase = "database"
	SourceConfig   = "config"
	SourceDefault  = "default"
)

// Priority: database > config > default
type SettingsStore struct {
	db  *database.Database
	cfg *config.Config
}

func New(db *database.Database, cfg *config.Config) *SettingsStore {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &SettingsStore{db: db, cfg: cfg}
}

// lookup returns the stored value of key, "" when it is not set.
func (s *SettingsStore) lookup(key string) string {
	setting, err := s.db.GetSetting(key)
	if err != nil {
		return ""
	}
	return setting.Value
}

// DefaultExportConfig is the configuration used when nothing has been saved.
func (s *SettingsStore) DefaultExportConfig() entities.ExportConfig {
	cfg := entities.DefaultExportConfig()
	if s.cfg.Export.Dir != "" {
		cfg.ExportPath = s.cfg.Export.Dir
	}
	return cfg
}

// GetExportConfig returns the saved export configuration, or the default.
// Fields missing from the saved value keep their defaults.
func (s *SettingsStore) GetExportConfig() entities.ExportConfig {
	cfg := s.DefaultExportConfig()
	raw := s.lookup(entities.SettingKeyExportConfig)
	if raw == "" {
		return cfg
	}

	saved := cfg
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		log.Warn("ignoring invalid saved export config", zap.Error(err))
		return cfg
	}
	if saved.ExportPath == "" {
		saved.ExportPath = cfg.ExportPath
	}
	if saved.DateFormat == "" {
		saved.DateFormat = cfg.DateFormat
	}
	return saved
}

func (s *SettingsStore) GetExportConfigSource() string {
	if s.lookup(entities.SettingKeyExportConfig) != "" {
		return SourceDatabase
	}
	if s.cfg.Export.Dir != "" {
		return SourceConfig
	}
	return SourceDefault
}

type ExportConfigInfo struct {
	Config entities.ExportConfig `json:"config"`
	Source string                `json:"source"` // "database", "config", or "default"
}

func (s *SettingsStore) GetExportConfigInfo() ExportConfigInfo {
	return ExportConfigInfo{
		Config: s.GetExportConfig(),
		Source: s.GetExportConfigSource(),
	}
}

// SetExportConfig validates and saves cfg.
func (s *SettingsStore) SetExportConfig(cfg entities.ExportConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid export config: %w", err)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode export config: %w", err)
	}
	return s.db.SetSetting(entities.SettingKeyExportConfig, string(data))
}

// ResetExportConfig removes the saved configuration and returns the default.
func (s *SettingsStore) ResetExportConfig() (entities.ExportConfig, error) {
	if err := s.db.DeleteSetting(entities.SettingKeyExportConfig); err != nil {
		return entities.ExportConfig{}, err
	}
	return s.DefaultExportConfig(), nil
}

// GetLastImport returns the most recent import, nil when there was none.
func (s *SettingsStore) GetLastImport() *entities.LastImportRecord {
	raw := s.lookup(entities.SettingKeyLastImport)
	if raw == "" {
		return nil
	}
	var record entities.LastImportRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		log.Warn("ignoring invalid last import record", zap.Error(err))
		return nil
	}
	return &record
}

func (s *SettingsStore) SetLastImport(record entities.LastImportRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode last import: %w", err)
	}
	return s.db.SetSetting(entities.SettingKeyLastImport, string(data))
}
