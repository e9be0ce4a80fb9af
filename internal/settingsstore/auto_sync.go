package settingsstore

import (
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/kobo-highlights/internal/config"
	"github.com/mrlokans/kobo-highlights/internal/entities"
)

// Auto-sync statuses stored after each scheduled run.
const (
	AutoSyncStatusSuccess  = "success"
	AutoSyncStatusFailed   = "failed"
	AutoSyncStatusNoDevice = "no_device"
)

// AutoSyncConfig is the effective auto-sync configuration.
type AutoSyncConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// AutoSyncConfigInfo includes where each field came from.
type AutoSyncConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule            string     `json:"schedule"`
	ScheduleSource      string     `json:"schedule_source"`
	ScheduleDescription string     `json:"schedule_description"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`
}

// AutoSyncStatus is the outcome of the last scheduled run.
type AutoSyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`
	Message    string     `json:"message,omitempty"`
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

// GetAutoSyncEnabled returns whether auto-sync is on (database > config > default).
func (s *SettingsStore) GetAutoSyncEnabled() bool {
	if value := s.lookup(entities.SettingKeyAutoSyncEnabled); value != "" {
		return parseBool(value)
	}
	return s.cfg.AutoSync.Enabled
}

func (s *SettingsStore) GetAutoSyncEnabledSource() string {
	if s.lookup(entities.SettingKeyAutoSyncEnabled) != "" {
		return SourceDatabase
	}
	if s.cfg.AutoSync.Enabled {
		return SourceConfig
	}
	return SourceDefault
}

func (s *SettingsStore) SetAutoSyncEnabled(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyAutoSyncEnabled, strconv.FormatBool(enabled))
}

// GetAutoSyncSchedule returns the cron schedule (database > config > default).
func (s *SettingsStore) GetAutoSyncSchedule() string {
	if value := s.lookup(entities.SettingKeyAutoSyncSchedule); value != "" {
		return value
	}
	if s.cfg.AutoSync.Schedule != "" {
		return s.cfg.AutoSync.Schedule
	}
	return config.DefaultAutoSyncSchedule
}

func (s *SettingsStore) GetAutoSyncScheduleSource() string {
	if s.lookup(entities.SettingKeyAutoSyncSchedule) != "" {
		return SourceDatabase
	}
	if s.cfg.AutoSync.Schedule != "" && s.cfg.AutoSync.Schedule != config.DefaultAutoSyncSchedule {
		return SourceConfig
	}
	return SourceDefault
}

// SetAutoSyncSchedule validates and saves a cron schedule.
func (s *SettingsStore) SetAutoSyncSchedule(schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeyAutoSyncSchedule, schedule)
}

func (s *SettingsStore) GetAutoSyncConfig() AutoSyncConfig {
	return AutoSyncConfig{
		Enabled:  s.GetAutoSyncEnabled(),
		Schedule: s.GetAutoSyncSchedule(),
	}
}

func (s *SettingsStore) GetAutoSyncConfigInfo() AutoSyncConfigInfo {
	schedule := s.GetAutoSyncSchedule()
	info := AutoSyncConfigInfo{
		Enabled:             s.GetAutoSyncEnabled(),
		EnabledSource:       s.GetAutoSyncEnabledSource(),
		Schedule:            schedule,
		ScheduleSource:      s.GetAutoSyncScheduleSource(),
		ScheduleDescription: GetCronDescription(schedule),
	}
	if info.Enabled {
		info.NextRunAt, _ = GetNextRunTime(schedule)
	}
	return info
}

func (s *SettingsStore) GetAutoSyncStatus() AutoSyncStatus {
	status := AutoSyncStatus{
		Status:  s.lookup(entities.SettingKeyAutoSyncLastStatus),
		Message: s.lookup(entities.SettingKeyAutoSyncLastMessage),
	}
	if value := s.lookup(entities.SettingKeyAutoSyncLastAt); value != "" {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			status.LastSyncAt = &ts
		}
	}
	return status
}

// SetAutoSyncStatus records the outcome of a scheduled run.
func (s *SettingsStore) SetAutoSyncStatus(status, message string) error {
	return s.db.SetSettings(map[string]string{
		entities.SettingKeyAutoSyncLastAt:      time.Now().UTC().Format(time.RFC3339),
		entities.SettingKeyAutoSyncLastStatus:  status,
		entities.SettingKeyAutoSyncLastMessage: message,
	})
}

// ClearAutoSyncSettings removes the database overrides, reverting to config/default.
func (s *SettingsStore) ClearAutoSyncSettings() error {
	return s.db.DeleteSetting(entities.SettingKeyAutoSyncEnabled, entities.SettingKeyAutoSyncSchedule)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule.
func GetCronDescription(schedule string) string {
	switch schedule {
	case "*/5 * * * *":
		return "Every 5 minutes"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when a schedule fires next.
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
