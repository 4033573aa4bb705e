package repository

import (
	"context"
	"strings"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository persists accounts, their role profiles and the lockout /
// reset-token columns. Methods taking tx run inside the caller's transaction.
type AccountRepository interface {
	// Create inserts the account and whichever profile pointer is set.
	Create(ctx context.Context, tx *gorm.DB, a *model.Account) error
	FindByCode(ctx context.Context, code uint) (*model.Account, error)
	FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code uint) (*model.Account, error)
	// FindByLoginForUpdate matches username or email (case-insensitive) among
	// active accounts and locks the row.
	FindByLoginForUpdate(ctx context.Context, tx *gorm.DB, login string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByResetToken(ctx context.Context, token string) (*model.Account, error)
	FindByResetTokenForUpdate(ctx context.Context, tx *gorm.DB, token string) (*model.Account, error)
	// UsernameOrEmailTaken ignores the account identified by exceptCode (0 = none).
	UsernameOrEmailTaken(ctx context.Context, username, email string, exceptCode uint) (bool, error)
	List(ctx context.Context, filter dto.AccountFilter) ([]model.Account, error)
	ListLocked(ctx context.Context, now time.Time) ([]model.Account, error)
	ListSponsors(ctx context.Context, status model.SponsorStatus) ([]model.Account, error)
	ActiveDriverCodes(ctx context.Context) ([]uint, error)

	UpdateDetails(ctx context.Context, tx *gorm.DB, a *model.Account) error
	SaveLockout(ctx context.Context, tx *gorm.DB, code uint, l model.Lockout) error
	SaveResetToken(ctx context.Context, tx *gorm.DB, code uint, token *string, issuedAt *time.Time) error
	// TakeResetToken clears token only if it is still the one stored for the
	// account and reports whether it did.
	TakeResetToken(ctx context.Context, tx *gorm.DB, code uint, token string) (bool, error)
	UpdatePassword(ctx context.Context, tx *gorm.DB, code uint, hash string) error
	SetActive(ctx context.Context, tx *gorm.DB, code uint, active bool) error
	UpdateNotificationPrefs(ctx context.Context, code uint, wantsPoints, wantsOrders bool) error
	UpdateTOTP(ctx context.Context, code uint, secret *string, enabled bool) error
	UpdateSponsorStatus(ctx context.Context, tx *gorm.DB, code uint, status model.SponsorStatus) error

	ClearAllLockouts(ctx context.Context, tx *gorm.DB) (int64, error)
	ClearLapsedLockouts(ctx context.Context, now time.Time) (int64, error)
	ClearResetTokensIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	DB() *gorm.DB
}

type accountRepo struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepo{db: db} }

func (r *accountRepo) DB() *gorm.DB { return r.db }

func withProfiles(q *gorm.DB) *gorm.DB {
	return q.Preload("Driver").Preload("Sponsor").Preload("Admin")
}

func (r *accountRepo) Create(ctx context.Context, tx *gorm.DB, a *model.Account) error {
	return pick(ctx, r.db, tx).Create(a).Error
}

func (r *accountRepo) FindByCode(ctx context.Context, code uint) (*model.Account, error) {
	var a model.Account
	err := withProfiles(r.db.WithContext(ctx)).First(&a, code).Error
	return &a, err
}

func (r *accountRepo) FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code uint) (*model.Account, error) {
	var a model.Account
	err := pick(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, code).Error
	return &a, err
}

func (r *accountRepo) FindByLoginForUpdate(ctx context.Context, tx *gorm.DB, login string) (*model.Account, error) {
	var a model.Account
	err := pick(ctx, r.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("(username = ? OR LOWER(email) = LOWER(?)) AND active = ?", login, login, true).
		First(&a).Error
	return &a, err
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&a).Error
	return &a, err
}

func (r *accountRepo) FindByResetToken(ctx context.Context, token string) (*model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).Where("reset_token = ?", token).First(&a).Error
	return &a, err
}

func (r *accountRepo) FindByResetTokenForUpdate(ctx context.Context, tx *gorm.DB, token string) (*model.Account, error) {
	var a model.Account
	err := pick(ctx, r.db, tx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reset_token = ?", token).First(&a).Error
	return &a, err
}

func (r *accountRepo) UsernameOrEmailTaken(ctx context.Context, username, email string, exceptCode uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("(username = ? OR LOWER(email) = LOWER(?))", username, email)
	if exceptCode != 0 {
		q = q.Where("code <> ?", exceptCode)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *accountRepo) List(ctx context.Context, filter dto.AccountFilter) ([]model.Account, error) {
	var accounts []model.Account
	q := withProfiles(r.db.WithContext(ctx))
	if !filter.IncludeInactive {
		q = q.Where("active = ?", true)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			like, like, like, like)
	}
	err := q.Order("code").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) ListLocked(ctx context.Context, now time.Time) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.WithContext(ctx).
		Where("lockout_until IS NOT NULL AND lockout_until > ?", now).
		Order("lockout_until").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) ListSponsors(ctx context.Context, status model.SponsorStatus) ([]model.Account, error) {
	var accounts []model.Account
	q := r.db.WithContext(ctx).Preload("Sponsor").
		Joins("JOIN sponsor_profiles sp ON sp.code = accounts.code").
		Where("accounts.role = ? AND accounts.active = ?", model.RoleSponsor, true)
	if status != "" {
		q = q.Where("sp.status = ?", status)
	}
	err := q.Order("sp.org_name").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepo) ActiveDriverCodes(ctx context.Context) ([]uint, error) {
	var codes []uint
	err := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("role = ? AND active = ?", model.RoleDriver, true).
		Pluck("code", &codes).Error
	return codes, err
}

// UpdateDetails saves contact fields and any loaded profile.
func (r *accountRepo) UpdateDetails(ctx context.Context, tx *gorm.DB, a *model.Account) error {
	db := pick(ctx, r.db, tx)
	err := db.Model(&model.Account{}).Where("code = ?", a.Code).Updates(map[string]interface{}{
		"username":   a.Username,
		"email":      a.Email,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"phone":      a.Phone,
	}).Error
	if err != nil {
		return err
	}
	switch {
	case a.Driver != nil:
		return db.Save(a.Driver).Error
	case a.Sponsor != nil:
		return db.Save(a.Sponsor).Error
	case a.Admin != nil:
		return db.Save(a.Admin).Error
	}
	return nil
}

func (r *accountRepo) SaveLockout(ctx context.Context, tx *gorm.DB, code uint, l model.Lockout) error {
	return pick(ctx, r.db, tx).Model(&model.Account{}).Where("code = ?", code).Updates(map[string]interface{}{
		"failed_attempts": l.FailedAttempts,
		"lockout_until":   l.LockoutUntil,
		"lockout_reason":  l.LockoutReason,
	}).Error
}

func (r *accountRepo) SaveResetToken(ctx context.Context, tx *gorm.DB, code uint, token *string, issuedAt *time.Time) error {
	return pick(ctx, r.db, tx).Model(&model.Account{}).Where("code = ?", code).Updates(map[string]interface{}{
		"reset_token":           token,
		"reset_token_issued_at": issuedAt,
	}).Error
}

func (r *accountRepo) TakeResetToken(ctx context.Context, tx *gorm.DB, code uint, token string) (bool, error) {
	res := pick(ctx, r.db, tx).Model(&model.Account{}).
		Where("code = ? AND reset_token = ?", code, token).
		Updates(map[string]interface{}{"reset_token": nil, "reset_token_issued_at": nil})
	return res.RowsAffected == 1, res.Error
}

func (r *accountRepo) UpdatePassword(ctx context.Context, tx *gorm.DB, code uint, hash string) error {
	return pick(ctx, r.db, tx).Model(&model.Account{}).Where("code = ?", code).
		Update("password_hash", hash).Error
}

func (r *accountRepo) SetActive(ctx context.Context, tx *gorm.DB, code uint, active bool) error {
	return pick(ctx, r.db, tx).Model(&model.Account{}).Where("code = ?", code).
		Update("active", active).Error
}

func (r *accountRepo) UpdateNotificationPrefs(ctx context.Context, code uint, wantsPoints, wantsOrders bool) error {
	return r.db.WithContext(ctx).Model(&model.Account{}).Where("code = ?", code).Updates(map[string]interface{}{
		"wants_point_notifications": wantsPoints,
		"wants_order_notifications": wantsOrders,
	}).Error
}

func (r *accountRepo) UpdateTOTP(ctx context.Context, code uint, secret *string, enabled bool) error {
	return r.db.WithContext(ctx).Model(&model.Account{}).Where("code = ?", code).Updates(map[string]interface{}{
		"totp_secret":  secret,
		"totp_enabled": enabled,
	}).Error
}

func (r *accountRepo) UpdateSponsorStatus(ctx context.Context, tx *gorm.DB, code uint, status model.SponsorStatus) error {
	res := pick(ctx, r.db, tx).Model(&model.SponsorProfile{}).Where("code = ?", code).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

var clearedLockout = map[string]interface{}{
	"failed_attempts": 0,
	"lockout_until":   nil,
	"lockout_reason":  model.LockoutNone,
}

func (r *accountRepo) ClearAllLockouts(ctx context.Context, tx *gorm.DB) (int64, error) {
	res := pick(ctx, r.db, tx).Model(&model.Account{}).
		Where("lockout_until IS NOT NULL OR failed_attempts > 0").
		Updates(clearedLockout)
	return res.RowsAffected, res.Error
}

func (r *accountRepo) ClearLapsedLockouts(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("lockout_until IS NOT NULL AND lockout_until <= ?", now).
		Updates(clearedLockout)
	return res.RowsAffected, res.Error
}

func (r *accountRepo) ClearResetTokensIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("reset_token IS NOT NULL AND reset_token_issued_at < ?", cutoff).
		Updates(map[string]interface{}{"reset_token": nil, "reset_token_issued_at": nil})
	return res.RowsAffected, res.Error
}
