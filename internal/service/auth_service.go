package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/config"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/xlzd/gotp"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AccountResponse, error)
	Me(ctx context.Context, code uint) (*dto.AccountResponse, error)
	ChangePassword(ctx context.Context, actor model.ActingIdentity, req dto.ChangePasswordRequest) error
	// UpdateContact edits the caller's own email, phone and names, plus the
	// license number for drivers. Refused while impersonating.
	UpdateContact(ctx context.Context, actor model.ActingIdentity, req dto.UpdateContactRequest) (*dto.AccountResponse, error)
	UpdateNotificationSettings(ctx context.Context, code uint, req dto.NotificationSettingsRequest) (*dto.AccountResponse, error)
	SetupTOTP(ctx context.Context, code uint) (*dto.TOTPSetupResponse, error)
	EnableTOTP(ctx context.Context, code uint, otp string) error
	// DisableTOTP needs a current code and is refused while impersonating.
	DisableTOTP(ctx context.Context, actor model.ActingIdentity, otp string) error
	// SessionBlocked returns a non-empty reason when a still-valid token must
	// no longer be honoured (account disabled, locked or gone).
	SessionBlocked(ctx context.Context, id model.ActingIdentity) (string, error)
}

type authService struct {
	accounts repository.AccountRepository
	audit    AuditRecorder
	tokens   *TokenService
	policy   model.LockoutPolicy
	issuer   string
	now      func() time.Time
}

func NewAuthService(accounts repository.AccountRepository, audit AuditRecorder, tokens *TokenService, cfg *config.Config, opts ...Option) AuthService {
	o := applyOptions(opts)
	policy := model.DefaultLockoutPolicy()
	if cfg.LockoutAttempts > 0 {
		policy.MaxAttempts = cfg.LockoutAttempts
	}
	if cfg.LockoutDuration > 0 {
		policy.Duration = cfg.LockoutDuration
	}
	return &authService{
		accounts: accounts,
		audit:    audit,
		tokens:   tokens,
		policy:   policy,
		issuer:   cfg.TOTPIssuer,
		now:      o.now,
	}
}

// Login runs the whole attempt in one transaction holding the account row.
// Audit rows and counter updates commit even when the attempt is refused, so
// the closure returns nil and the refusal travels in outcome.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	now := s.now()
	var (
		account *model.Account
		outcome error
	)

	err := runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByLoginForUpdate(ctx, tx, req.Username)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = ErrInvalidCredentials
			return s.audit.Record(ctx, tx, AuditEntry{
				EventType: model.EventLogin,
				Details:   fmt.Sprintf("failed login for unknown user %q", req.Username),
			})
		}
		if err != nil {
			return err
		}

		if acc.IsLocked(now) {
			outcome = &LockedError{Reason: acc.LockoutReason, Until: *acc.LockoutUntil}
			return s.audit.Record(ctx, tx, AuditEntry{
				EventType: model.EventLogin,
				Details:   fmt.Sprintf("login refused for %s: account %s", acc.Username, acc.Lockout.State(now)),
			})
		}

		passwordOK := CheckPassword(acc.PasswordHash, req.Password)
		if passwordOK && acc.TOTPEnabled && req.TOTPCode == "" {
			outcome = ErrTOTPRequired
			return nil
		}
		if !passwordOK || (acc.TOTPEnabled && !s.totpValid(acc, req.TOTPCode)) {
			outcome = ErrInvalidCredentials
			return s.registerFailure(ctx, tx, acc, now, &outcome)
		}

		if acc.FailedAttempts != 0 || acc.LockoutUntil != nil {
			if err := s.accounts.SaveLockout(ctx, tx, acc.Code, acc.Lockout.Clear()); err != nil {
				return err
			}
			acc.Lockout = acc.Lockout.Clear()
		}
		account = acc
		return s.audit.Record(ctx, tx, AuditEntry{
			EventType: model.EventLogin,
			Details:   fmt.Sprintf("user %s (%s) logged in", acc.Username, acc.Role),
		})
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}

	full, err := s.accounts.FindByCode(ctx, account.Code)
	if err != nil {
		return nil, err
	}
	return s.tokens.Session(full, model.ActingIdentity{Effective: full.Identity()})
}

func (s *authService) registerFailure(ctx context.Context, tx *gorm.DB, acc *model.Account, now time.Time, outcome *error) error {
	next, justLocked := acc.Lockout.RegisterFailure(now, s.policy)
	if err := s.accounts.SaveLockout(ctx, tx, acc.Code, next); err != nil {
		return err
	}
	acc.Lockout = next

	if err := s.audit.Record(ctx, tx, AuditEntry{
		EventType: model.EventLogin,
		Details:   fmt.Sprintf("failed login attempt %d of %d for %s", next.FailedAttempts, s.policy.MaxAttempts, acc.Username),
	}); err != nil {
		return err
	}
	if !justLocked {
		return nil
	}

	*outcome = &LockedError{Reason: next.LockoutReason, Until: *next.LockoutUntil}
	log.Warn().Uint("code", acc.Code).Time("until", *next.LockoutUntil).Msg("account locked after failed logins")
	return s.audit.Record(ctx, tx, AuditEntry{
		EventType: model.EventLockout,
		Details: fmt.Sprintf("account %s locked until %s after %d failed login attempts",
			acc.Username, next.LockoutUntil.UTC().Format(time.RFC3339), next.FailedAttempts),
	})
}

func (s *authService) totpValid(acc *model.Account, otp string) bool {
	if acc.TOTPSecret == nil || otp == "" {
		return false
	}
	return gotp.NewDefaultTOTP(*acc.TOTPSecret).Now() == otp
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	id := claims.Identity()

	reason, err := s.SessionBlocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return nil, denied(reason)
	}

	acc, err := s.accounts.FindByCode(ctx, id.Effective.Code)
	if err != nil {
		return nil, lookupErr(err, "account")
	}
	// role or username may have been edited since the token was issued
	id.Effective = acc.Identity()
	return s.tokens.Session(acc, id)
}

func (s *authService) SessionBlocked(ctx context.Context, id model.ActingIdentity) (string, error) {
	acc, err := s.accounts.FindByCode(ctx, id.Effective.Code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "account no longer exists", nil
	}
	if err != nil {
		return "", err
	}
	if !acc.Active {
		return "account is disabled", nil
	}

	if id.Original == nil {
		if now := s.now(); acc.IsLocked(now) {
			return (&LockedError{Reason: acc.LockoutReason, Until: *acc.LockoutUntil}).Error(), nil
		}
		return "", nil
	}

	orig, err := s.accounts.FindByCode(ctx, id.Original.Code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "impersonating account no longer exists", nil
	}
	if err != nil {
		return "", err
	}
	if !orig.Active {
		return "impersonating account is disabled", nil
	}
	return "", nil
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AccountResponse, error) {
	if err := validateNewPassword("password", req.Password); err != nil {
		return nil, err
	}
	taken, err := s.accounts.UsernameOrEmailTaken(ctx, req.Username, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("username or email already in use")
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	acc := &model.Account{
		Username:                req.Username,
		Email:                   req.Email,
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		Phone:                   req.Phone,
		PasswordHash:            &hash,
		Role:                    model.RoleDriver,
		Active:                  true,
		WantsPointNotifications: true,
		WantsOrderNotifications: true,
		Driver:                  &model.DriverProfile{LicenseNumber: req.LicenseNumber},
	}
	err = runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		if err := s.accounts.Create(ctx, tx, acc); err != nil {
			return writeErr(err, "username or email already in use")
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			EventType:  model.EventRegistration,
			Details:    fmt.Sprintf("driver %s registered", acc.Username),
			DriverCode: ref(acc.Code),
		})
	})
	if err != nil {
		return nil, err
	}
	resp := accountToResponse(acc, s.now())
	return &resp, nil
}

func (s *authService) Me(ctx context.Context, code uint) (*dto.AccountResponse, error) {
	acc, err := s.accounts.FindByCode(ctx, code)
	if err != nil {
		return nil, lookupErr(err, "account")
	}
	resp := accountToResponse(acc, s.now())
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, actor model.ActingIdentity, req dto.ChangePasswordRequest) error {
	if actor.Impersonating() {
		return denied("password changes are not available while impersonating")
	}
	if err := validateNewPassword("new_password", req.NewPassword); err != nil {
		return err
	}
	code := actor.Effective.Code

	return runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return lookupErr(err, "account")
		}
		if !CheckPassword(acc.PasswordHash, req.CurrentPassword) {
			return invalid("current_password", "current password is incorrect")
		}
		hash, err := HashPassword(req.NewPassword)
		if err != nil {
			return err
		}
		if err := s.accounts.UpdatePassword(ctx, tx, code, hash); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			EventType: model.EventPasswordReset,
			Details:   fmt.Sprintf("user %s changed their password", acc.Username),
		})
	})
}

func (s *authService) UpdateContact(ctx context.Context, actor model.ActingIdentity, req dto.UpdateContactRequest) (*dto.AccountResponse, error) {
	if actor.Impersonating() {
		return nil, denied("contact details cannot be changed while impersonating")
	}
	acc, err := s.accounts.FindByCode(ctx, actor.Effective.Code)
	if err != nil {
		return nil, lookupErr(err, "account")
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, acc.Email) {
		taken, err := s.accounts.UsernameOrEmailTaken(ctx, acc.Username, *req.Email, acc.Code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, conflict("email address already in use by another account")
		}
		acc.Email = *req.Email
	}
	if req.Phone != nil {
		acc.Phone = req.Phone
		if *req.Phone == "" {
			acc.Phone = nil
		}
	}
	if req.FirstName != nil {
		acc.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		acc.LastName = *req.LastName
	}
	if req.LicenseNumber != nil && acc.Driver != nil {
		acc.Driver.LicenseNumber = *req.LicenseNumber
	}

	err = runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		if err := s.accounts.UpdateDetails(ctx, tx, acc); err != nil {
			return writeErr(err, "email address already in use by another account")
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			EventType: model.EventContactUpdate,
			Details:   fmt.Sprintf("%s updated their contact details", acc.Username),
		})
	})
	if err != nil {
		return nil, err
	}
	resp := accountToResponse(acc, s.now())
	return &resp, nil
}

func (s *authService) UpdateNotificationSettings(ctx context.Context, code uint, req dto.NotificationSettingsRequest) (*dto.AccountResponse, error) {
	acc, err := s.accounts.FindByCode(ctx, code)
	if err != nil {
		return nil, lookupErr(err, "account")
	}
	if req.WantsPointNotifications != nil {
		acc.WantsPointNotifications = *req.WantsPointNotifications
	}
	if req.WantsOrderNotifications != nil {
		acc.WantsOrderNotifications = *req.WantsOrderNotifications
	}
	if err := s.accounts.UpdateNotificationPrefs(ctx, code, acc.WantsPointNotifications, acc.WantsOrderNotifications); err != nil {
		return nil, err
	}
	resp := accountToResponse(acc, s.now())
	return &resp, nil
}

// SetupTOTP stores a fresh secret but leaves the second factor disabled until
// EnableTOTP confirms a code generated from it.
func (s *authService) SetupTOTP(ctx context.Context, code uint) (*dto.TOTPSetupResponse, error) {
	acc, err := s.accounts.FindByCode(ctx, code)
	if err != nil {
		return nil, lookupErr(err, "account")
	}
	if acc.TOTPEnabled {
		return nil, conflict("two-factor authentication is already enabled")
	}
	secret := gotp.RandomSecret(16)
	if err := s.accounts.UpdateTOTP(ctx, code, &secret, false); err != nil {
		return nil, err
	}
	return &dto.TOTPSetupResponse{
		Secret:          secret,
		ProvisioningURI: gotp.NewDefaultTOTP(secret).ProvisioningUri(acc.Email, s.issuer),
	}, nil
}

func (s *authService) EnableTOTP(ctx context.Context, code uint, otp string) error {
	acc, err := s.accounts.FindByCode(ctx, code)
	if err != nil {
		return lookupErr(err, "account")
	}
	if acc.TOTPSecret == nil {
		return invalid("code", "start two-factor setup first")
	}
	if !s.totpValid(acc, otp) {
		return invalid("code", "code does not match")
	}
	return s.accounts.UpdateTOTP(ctx, code, acc.TOTPSecret, true)
}

func (s *authService) DisableTOTP(ctx context.Context, actor model.ActingIdentity, otp string) error {
	if actor.Impersonating() {
		return denied("two-factor settings are not available while impersonating")
	}
	acc, err := s.accounts.FindByCode(ctx, actor.Effective.Code)
	if err != nil {
		return lookupErr(err, "account")
	}
	if !acc.TOTPEnabled {
		return conflict("two-factor authentication is not enabled")
	}
	if !s.totpValid(acc, otp) {
		return invalid("code", "code does not match")
	}
	return s.accounts.UpdateTOTP(ctx, acc.Code, nil, false)
}
