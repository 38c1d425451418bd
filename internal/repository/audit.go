package repository

import (
	"context"

	"projectflow/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultAuditLimit = 200

type AuditStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAuditStore(db *gorm.DB, logger *zap.Logger) *AuditStore {
	return &AuditStore{db: db, logger: logger}
}

func (r *AuditStore) Record(ctx context.Context, entry models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.logger.Error("Failed to write audit log",
			zap.String("entity", entry.Entity),
			zap.Uint("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *AuditStore) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > defaultAuditLimit {
		limit = defaultAuditLimit
	}

	q := r.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit)
	if filter.Entity != "" {
		q = q.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != 0 {
		q = q.Where("entity_id = ?", filter.EntityID)
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
