package repository

import (
	"context"
	"errors"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressRepository stores driver shipping addresses. Lookups are always
// scoped to the owning account, so another driver's address reads as missing.
type AddressRepository interface {
	// List returns the default address first, then the rest oldest first.
	List(ctx context.Context, accountCode uint) ([]model.Address, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, accountCode, id uint) (*model.Address, error)
	Create(ctx context.Context, tx *gorm.DB, a *model.Address) error
	Save(ctx context.Context, tx *gorm.DB, a *model.Address) error
	Delete(ctx context.Context, tx *gorm.DB, accountCode, id uint) error
	// ClearDefault unsets the default flag on every address of the account.
	ClearDefault(ctx context.Context, tx *gorm.DB, accountCode uint) error
	// PromoteOldest makes the oldest remaining address the default, if any.
	PromoteOldest(ctx context.Context, tx *gorm.DB, accountCode uint) error
	Count(ctx context.Context, tx *gorm.DB, accountCode uint) (int64, error)
	DB() *gorm.DB
}

type addressRepo struct{ db *gorm.DB }

func NewAddressRepository(db *gorm.DB) AddressRepository { return &addressRepo{db: db} }

func (r *addressRepo) DB() *gorm.DB { return r.db }

func (r *addressRepo) List(ctx context.Context, accountCode uint) ([]model.Address, error) {
	var list []model.Address
	err := r.db.WithContext(ctx).Where("account_code = ?", accountCode).
		Order("is_default DESC").Order("id").Find(&list).Error
	return list, err
}

func (r *addressRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, accountCode, id uint) (*model.Address, error) {
	var a model.Address
	err := pick(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND account_code = ?", id, accountCode).First(&a).Error
	return &a, err
}

func (r *addressRepo) Create(ctx context.Context, tx *gorm.DB, a *model.Address) error {
	return pick(ctx, r.db, tx).Create(a).Error
}

func (r *addressRepo) Save(ctx context.Context, tx *gorm.DB, a *model.Address) error {
	return pick(ctx, r.db, tx).Save(a).Error
}

func (r *addressRepo) Delete(ctx context.Context, tx *gorm.DB, accountCode, id uint) error {
	return pick(ctx, r.db, tx).Where("id = ? AND account_code = ?", id, accountCode).
		Delete(&model.Address{}).Error
}

func (r *addressRepo) ClearDefault(ctx context.Context, tx *gorm.DB, accountCode uint) error {
	return pick(ctx, r.db, tx).Model(&model.Address{}).
		Where("account_code = ? AND is_default = ?", accountCode, true).
		Update("is_default", false).Error
}

func (r *addressRepo) PromoteOldest(ctx context.Context, tx *gorm.DB, accountCode uint) error {
	db := pick(ctx, r.db, tx)
	var oldest model.Address
	err := db.Where("account_code = ?", accountCode).Order("id").First(&oldest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return db.Model(&oldest).Update("is_default", true).Error
}

func (r *addressRepo) Count(ctx context.Context, tx *gorm.DB, accountCode uint) (int64, error) {
	var n int64
	err := pick(ctx, r.db, tx).Model(&model.Address{}).Where("account_code = ?", accountCode).Count(&n).Error
	return n, err
}
