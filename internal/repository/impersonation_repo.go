package repository

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
)

type ImpersonationLogRepository interface {
	Append(ctx context.Context, e *model.ImpersonationLog) error
}

type impersonationLogRepo struct{ db *gorm.DB }

func NewImpersonationLogRepository(db *gorm.DB) ImpersonationLogRepository {
	return &impersonationLogRepo{db: db}
}

func (r *impersonationLogRepo) Append(ctx context.Context, e *model.ImpersonationLog) error {
	return r.db.WithContext(ctx).Create(e).Error
}
