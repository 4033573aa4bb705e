package repository

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	// ListBySponsor returns the account's cart lines for one sponsor; inside a
	// transaction the rows are locked.
	ListBySponsor(ctx context.Context, tx *gorm.DB, accountCode, sponsorCode uint) ([]model.CartItem, error)
	// Add inserts the line or, when it already exists, increases its quantity
	// (capped at model.MaxCartQuantity) and refreshes price and points.
	Add(ctx context.Context, item *model.CartItem) error
	UpdateQuantity(ctx context.Context, accountCode, sponsorCode uint, itemID string, qty int) (bool, error)
	Remove(ctx context.Context, accountCode, sponsorCode uint, itemID string) (bool, error)
	DeleteBySponsor(ctx context.Context, tx *gorm.DB, accountCode, sponsorCode uint) error
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepository(db *gorm.DB) CartRepository { return &cartRepo{db: db} }

func (r *cartRepo) ListBySponsor(ctx context.Context, tx *gorm.DB, accountCode, sponsorCode uint) ([]model.CartItem, error) {
	q := pick(ctx, r.db, tx)
	if tx != nil {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var items []model.CartItem
	err := q.Where("account_code = ? AND sponsor_code = ?", accountCode, sponsorCode).
		Order("id").Find(&items).Error
	return items, err
}

func (r *cartRepo) Add(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_code"}, {Name: "sponsor_code"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":  gorm.Expr("LEAST(cart_items.quantity + ?, ?)", item.Quantity, model.MaxCartQuantity),
			"price":     item.Price,
			"points":    item.Points,
			"title":     item.Title,
			"image_url": item.ImageURL,
		}),
	}).Create(item).Error
}

func (r *cartRepo) UpdateQuantity(ctx context.Context, accountCode, sponsorCode uint, itemID string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("account_code = ? AND sponsor_code = ? AND item_id = ?", accountCode, sponsorCode, itemID).
		Update("quantity", qty)
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepo) Remove(ctx context.Context, accountCode, sponsorCode uint, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("account_code = ? AND sponsor_code = ? AND item_id = ?", accountCode, sponsorCode, itemID).
		Delete(&model.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepo) DeleteBySponsor(ctx context.Context, tx *gorm.DB, accountCode, sponsorCode uint) error {
	return pick(ctx, r.db, tx).
		Where("account_code = ? AND sponsor_code = ?", accountCode, sponsorCode).
		Delete(&model.CartItem{}).Error
}
