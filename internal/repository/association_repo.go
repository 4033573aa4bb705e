package repository

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssociationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, a *model.Association) error
	Find(ctx context.Context, driverCode, sponsorCode uint) (*model.Association, error)
	// FindForUpdate locks the association row until the transaction ends.
	FindForUpdate(ctx context.Context, tx *gorm.DB, driverCode, sponsorCode uint) (*model.Association, error)
	Credit(ctx context.Context, tx *gorm.DB, driverCode, sponsorCode uint, amount int) error
	// Debit subtracts amount only while the balance covers it. It returns
	// false, without error, when the balance was insufficient.
	Debit(ctx context.Context, tx *gorm.DB, driverCode, sponsorCode uint, amount int) (bool, error)
	ListByDriver(ctx context.Context, driverCode uint) ([]model.Association, error)
	ListBySponsor(ctx context.Context, sponsorCode uint) ([]model.Association, error)
	DB() *gorm.DB
}

type associationRepo struct{ db *gorm.DB }

func NewAssociationRepository(db *gorm.DB) AssociationRepository {
	return &associationRepo{db: db}
}

func (r *associationRepo) DB() *gorm.DB { return r.db }

func (r *associationRepo) Create(ctx context.Context, tx *gorm.DB, a *model.Association) error {
	return pick(ctx, r.db, tx).Create(a).Error
}

func (r *associationRepo) Find(ctx context.Context, driverCode, sponsorCode uint) (*model.Association, error) {
	var a model.Association
	err := r.db.WithContext(ctx).
		Where("driver_code = ? AND sponsor_code = ?", driverCode, sponsorCode).
		First(&a).Error
	return &a, err
}

func (r *associationRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, driverCode, sponsorCode uint) (*model.Association, error) {
	var a model.Association
	err := pick(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("driver_code = ? AND sponsor_code = ?", driverCode, sponsorCode).
		First(&a).Error
	return &a, err
}

func (r *associationRepo) Credit(ctx context.Context, tx *gorm.DB, driverCode, sponsorCode uint, amount int) error {
	res := pick(ctx, r.db, tx).Model(&model.Association{}).
		Where("driver_code = ? AND sponsor_code = ?", driverCode, sponsorCode).
		Update("points", gorm.Expr("points + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *associationRepo) Debit(ctx context.Context, tx *gorm.DB, driverCode, sponsorCode uint, amount int) (bool, error) {
	res := pick(ctx, r.db, tx).Model(&model.Association{}).
		Where("driver_code = ? AND sponsor_code = ? AND points >= ?", driverCode, sponsorCode, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *associationRepo) ListByDriver(ctx context.Context, driverCode uint) ([]model.Association, error) {
	var list []model.Association
	err := r.db.WithContext(ctx).
		Preload("Sponsor.Sponsor").
		Where("driver_code = ?", driverCode).
		Find(&list).Error
	return list, err
}

func (r *associationRepo) ListBySponsor(ctx context.Context, sponsorCode uint) ([]model.Association, error) {
	var list []model.Association
	err := r.db.WithContext(ctx).
		Preload("Driver").
		Where("sponsor_code = ?", sponsorCode).
		Order("driver_code").
		Find(&list).Error
	return list, err
}
