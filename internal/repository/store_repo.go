package repository

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreSettingsRepository interface {
	FindBySponsor(ctx context.Context, sponsorCode uint) (*model.StoreSettings, error)
	Upsert(ctx context.Context, s *model.StoreSettings) error
}

type storeSettingsRepo struct{ db *gorm.DB }

func NewStoreSettingsRepository(db *gorm.DB) StoreSettingsRepository {
	return &storeSettingsRepo{db: db}
}

func (r *storeSettingsRepo) FindBySponsor(ctx context.Context, sponsorCode uint) (*model.StoreSettings, error) {
	var s model.StoreSettings
	err := r.db.WithContext(ctx).Where("sponsor_code = ?", sponsorCode).First(&s).Error
	return &s, err
}

func (r *storeSettingsRepo) Upsert(ctx context.Context, s *model.StoreSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sponsor_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"category_id", "point_ratio", "updated_at"}),
	}).Create(s).Error
}
