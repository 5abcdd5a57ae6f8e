// Package settings persists runtime-tunable key/value options.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/km-arc/go-housekeeper/app/cleanup"
	"github.com/km-arc/go-housekeeper/framework/config"
)

var ErrNotFound = errors.New("settings: not found")

type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store reads and writes settings rows.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the settings table.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Setting{})
}

func (s *Store) Get(ctx context.Context, key string) (Setting, error) {
	var row Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Setting{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return row, err
}

// Set inserts or replaces the value of key.
func (s *Store) Set(ctx context.Context, key, value string) (Setting, error) {
	row := Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	return row, err
}

// All returns every setting ordered by key.
func (s *Store) All(ctx context.Context) ([]Setting, error) {
	var rows []Setting
	err := s.db.WithContext(ctx).Order("key").Find(&rows).Error
	return rows, err
}

// Page returns up to limit settings ordered by key, starting at offset,
// and the total number of settings.
func (s *Store) Page(ctx context.Context, offset, limit int) ([]Setting, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Setting{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []Setting
	err := s.db.WithContext(ctx).Order("key").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	res := s.db.WithContext(ctx).Where("key = ?", key).Delete(&Setting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// Map returns every setting as key → value.
func (s *Store) Map(ctx context.Context) (map[string]string, error) {
	rows, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// Seed inserts the given defaults, leaving existing rows untouched.
func (s *Store) Seed(ctx context.Context, defaults map[string]string) error {
	if len(defaults) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]Setting, 0, len(defaults))
	for k, v := range defaults {
		rows = append(rows, Setting{Key: k, Value: v, UpdatedAt: now})
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Defaults are the initial rows, taken from the cleanup config section.
func Defaults(cfg config.CleanupConfig) map[string]string {
	return map[string]string{
		cleanup.SettingRetentionDays:   strconv.Itoa(cfg.RetentionDays),
		cleanup.SettingRevisionsToKeep: strconv.Itoa(cfg.RevisionsToKeep),
	}
}
