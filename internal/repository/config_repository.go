package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

type SystemConfig struct {
	Key   string `gorm:"primaryKey;size:50"`
	Value string `gorm:"not null;size:255"`
}

func (SystemConfig) TableName() string { return "system_config" }

// Get returns ErrNotFound when key has never been set.
func (r *ConfigRepository) Get(ctx context.Context, key string) (string, error) {
	var row SystemConfig
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (r *ConfigRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&SystemConfig{Key: key, Value: value}).Error
}
