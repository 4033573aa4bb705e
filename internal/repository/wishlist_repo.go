package repository

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
)

type WishlistRepository interface {
	List(ctx context.Context, accountCode uint) ([]model.WishlistItem, error)
	Find(ctx context.Context, accountCode uint, itemID string) (*model.WishlistItem, error)
	// Add fails with gorm.ErrDuplicatedKey when the item is already listed.
	Add(ctx context.Context, item *model.WishlistItem) error
	Remove(ctx context.Context, accountCode uint, itemID string) (bool, error)
}

type wishlistRepo struct{ db *gorm.DB }

func NewWishlistRepository(db *gorm.DB) WishlistRepository { return &wishlistRepo{db: db} }

func (r *wishlistRepo) List(ctx context.Context, accountCode uint) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.db.WithContext(ctx).Where("account_code = ?", accountCode).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *wishlistRepo) Find(ctx context.Context, accountCode uint, itemID string) (*model.WishlistItem, error) {
	var item model.WishlistItem
	err := r.db.WithContext(ctx).Where("account_code = ? AND item_id = ?", accountCode, itemID).First(&item).Error
	return &item, err
}

func (r *wishlistRepo) Add(ctx context.Context, item *model.WishlistItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *wishlistRepo) Remove(ctx context.Context, accountCode uint, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("account_code = ? AND item_id = ?", accountCode, itemID).
		Delete(&model.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}
