package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/kobo-highlights/internal/database/sessions"
	"github.com/mrlokans/kobo-highlights/internal/entities"
	"github.com/mrlokans/kobo-highlights/internal/log"
)

// ErrSettingNotFound is returned by GetSetting for unknown keys.
var ErrSettingNotFound = errors.New("setting not found")

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating when needed) the application database and
// migrates the settings and import history tables.
func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&entities.Setting{}, &entities.ImportSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database initialized", zap.String("path", dbPath))
	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Sessions returns the import history repository.
func (d *Database) Sessions() *sessions.Repository {
	return sessions.NewRepository(d.DB)
}

func (d *Database) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := d.DB.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or replaces the value stored under key.
func (d *Database) SetSetting(key, value string) error {
	setting := entities.Setting{Key: key, Value: value}
	return d.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// SetSettings writes several keys in one transaction.
func (d *Database) SetSettings(values map[string]string) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			setting := entities.Setting{Key: key, Value: value}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&setting).Error
			if err != nil {
				return fmt.Errorf("failed to save setting %s: %w", key, err)
			}
		}
		return nil
	})
}

// DeleteSetting removes a key. Unknown keys are not an error.
func (d *Database) DeleteSetting(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return d.DB.Where("key IN ?", keys).Delete(&entities.Setting{}).Error
}
