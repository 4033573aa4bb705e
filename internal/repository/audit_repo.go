package repository

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
)

// AuditLogRepository is append-only: there is no update or delete.
type AuditLogRepository interface {
	Append(ctx context.Context, tx *gorm.DB, e *model.AuditLog) error
	// List returns entries newest first, capped at dto.MaxAuditRows.
	List(ctx context.Context, filter dto.AuditFilter) ([]model.AuditLog, error)
}

type auditLogRepo struct{ db *gorm.DB }

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository { return &auditLogRepo{db: db} }

func (r *auditLogRepo) Append(ctx context.Context, tx *gorm.DB, e *model.AuditLog) error {
	return pick(ctx, r.db, tx).Create(e).Error
}

func (r *auditLogRepo) List(ctx context.Context, filter dto.AuditFilter) ([]model.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		// inclusive end day
		q = q.Where("created_at < ?", filter.To.AddDate(0, 0, 1))
	}
	if filter.DriverCode != nil {
		q = q.Where("driver_code = ?", *filter.DriverCode)
	}
	if filter.SponsorCode != nil {
		q = q.Where("sponsor_code = ?", *filter.SponsorCode)
	}
	limit := filter.Limit
	if limit <= 0 || limit > dto.MaxAuditRows {
		limit = dto.MaxAuditRows
	}
	var entries []model.AuditLog
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
