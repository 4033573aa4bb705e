package repository

import (
	"context"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplicationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, app *model.DriverApplication) error
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.DriverApplication, error)
	// HasOpen reports a pending or accepted application for the pair.
	HasOpen(ctx context.Context, driverCode, sponsorCode uint) (bool, error)
	ListPendingBySponsor(ctx context.Context, sponsorCode uint) ([]model.DriverApplication, error)
	ListByDriver(ctx context.Context, driverCode uint) ([]model.DriverApplication, error)
	Decide(ctx context.Context, tx *gorm.DB, id uint, status model.ApplicationStatus, decidedAt time.Time) error
	DB() *gorm.DB
}

type applicationRepo struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) DB() *gorm.DB { return r.db }

func (r *applicationRepo) Create(ctx context.Context, tx *gorm.DB, app *model.DriverApplication) error {
	return pick(ctx, r.db, tx).Create(app).Error
}

func (r *applicationRepo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*model.DriverApplication, error) {
	var app model.DriverApplication
	err := pick(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, id).Error
	return &app, err
}

func (r *applicationRepo) HasOpen(ctx context.Context, driverCode, sponsorCode uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.DriverApplication{}).
		Where("driver_code = ? AND sponsor_code = ? AND status IN ?", driverCode, sponsorCode,
			[]model.ApplicationStatus{model.ApplicationPending, model.ApplicationAccepted}).
		Count(&n).Error
	return n > 0, err
}

func (r *applicationRepo) ListPendingBySponsor(ctx context.Context, sponsorCode uint) ([]model.DriverApplication, error) {
	var apps []model.DriverApplication
	err := r.db.WithContext(ctx).Preload("Driver").
		Where("sponsor_code = ? AND status = ?", sponsorCode, model.ApplicationPending).
		Order("applied_at").Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) ListByDriver(ctx context.Context, driverCode uint) ([]model.DriverApplication, error) {
	var apps []model.DriverApplication
	err := r.db.WithContext(ctx).
		Where("driver_code = ?", driverCode).
		Order("applied_at DESC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) Decide(ctx context.Context, tx *gorm.DB, id uint, status model.ApplicationStatus, decidedAt time.Time) error {
	return pick(ctx, r.db, tx).Model(&model.DriverApplication{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "decided_at": decidedAt}).Error
}
