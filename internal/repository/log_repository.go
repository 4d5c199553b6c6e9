package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/domain/plate"
)

type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

type ProcessingLog struct {
	ID           string         `gorm:"primaryKey;type:uuid"`
	UserID       string         `gorm:"not null;type:uuid;index"`
	Username     string         `gorm:"not null"`
	OriginalName string         `gorm:"not null"`
	NewName      string         `gorm:"not null"`
	Details      datatypes.JSON `gorm:"type:jsonb"`
	Timestamp    time.Time      `gorm:"not null;index"`
}

func (ProcessingLog) TableName() string { return "processing_logs" }

func (l ProcessingLog) toDomain() account.ProcessingLog {
	out := account.ProcessingLog{
		ID:           l.ID,
		UserID:       l.UserID,
		Username:     l.Username,
		OriginalName: l.OriginalName,
		NewName:      l.NewName,
		Timestamp:    l.Timestamp.UnixMilli(),
	}
	if len(l.Details) > 0 {
		var d plate.AnalysisResult
		if json.Unmarshal(l.Details, &d) == nil {
			out.Details = &d
		}
	}
	return out
}

// Create stores entry and fills in its ID and Timestamp.
func (r *LogRepository) Create(ctx context.Context, entry *account.ProcessingLog) error {
	row := ProcessingLog{
		ID:           uuid.NewString(),
		UserID:       entry.UserID,
		Username:     entry.Username,
		OriginalName: entry.OriginalName,
		NewName:      entry.NewName,
		Timestamp:    time.Now(),
	}
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		row.Details = datatypes.JSON(raw)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	entry.ID = row.ID
	entry.Timestamp = row.Timestamp.UnixMilli()
	return nil
}

func (r *LogRepository) filtered(ctx context.Context, f account.LogFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&ProcessingLog{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("timestamp >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("timestamp <= ?", *f.To)
	}
	return q
}

// List returns matching entries, newest first.
func (r *LogRepository) List(ctx context.Context, f account.LogFilter) ([]account.ProcessingLog, error) {
	var rows []ProcessingLog
	if err := r.filtered(ctx, f).Order("timestamp DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]account.ProcessingLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.toDomain())
	}
	return logs, nil
}

func (r *LogRepository) Count(ctx context.Context, f account.LogFilter) (int64, error) {
	var n int64
	err := r.filtered(ctx, f).Count(&n).Error
	return n, err
}
