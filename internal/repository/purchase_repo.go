package repository

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
)

type PurchaseRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, purchases []model.Purchase) error
	ListByAccount(ctx context.Context, accountCode uint) ([]model.Purchase, error)
	ListBySponsor(ctx context.Context, sponsorCode uint) ([]model.Purchase, error)
}

type purchaseRepo struct{ db *gorm.DB }

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository { return &purchaseRepo{db: db} }

func (r *purchaseRepo) CreateBatch(ctx context.Context, tx *gorm.DB, purchases []model.Purchase) error {
	return pick(ctx, r.db, tx).Create(&purchases).Error
}

func (r *purchaseRepo) ListByAccount(ctx context.Context, accountCode uint) ([]model.Purchase, error) {
	var list []model.Purchase
	err := r.db.WithContext(ctx).Where("account_code = ?", accountCode).
		Order("purchased_at DESC, id").Find(&list).Error
	return list, err
}

func (r *purchaseRepo) ListBySponsor(ctx context.Context, sponsorCode uint) ([]model.Purchase, error) {
	var list []model.Purchase
	err := r.db.WithContext(ctx).Where("sponsor_code = ?", sponsorCode).
		Order("purchased_at DESC, id").Find(&list).Error
	return list, err
}
