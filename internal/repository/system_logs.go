package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/signverse/signverse-backend/internal/models"
)

const logBatchSize = 50

type GormSystemLogs struct {
	db *gorm.DB
}

func NewGormSystemLogs(db *gorm.DB) *GormSystemLogs {
	return &GormSystemLogs{db: db}
}

func (r *GormSystemLogs) CreateBatch(ctx context.Context, entries []models.SystemLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(entries, logBatchSize).Error
}

func (r *GormSystemLogs) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return res.RowsAffected, res.Error
}
