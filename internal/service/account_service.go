package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"

	"gorm.io/gorm"
)

// MaxTimeoutMinutes caps an administrator timeout at one year.
const MaxTimeoutMinutes = 525600

// AccountService covers administrator account management and sponsor-side
// driver provisioning. Self-protection rules use the real actor, so an
// administrator cannot disable or time out their own account through an
// impersonated session either.
type AccountService interface {
	Create(ctx context.Context, actor model.ActingIdentity, req dto.CreateAccountRequest) (*dto.CreateAccountResponse, error)
	SponsorCreateDriver(ctx context.Context, actor model.ActingIdentity, req dto.SponsorCreateDriverRequest) (*dto.CreateAccountResponse, error)
	Get(ctx context.Context, code uint) (*dto.AccountResponse, error)
	Update(ctx context.Context, actor model.ActingIdentity, code uint, req dto.UpdateAccountRequest) (*dto.AccountResponse, error)
	List(ctx context.Context, filter dto.AccountFilter) ([]dto.AccountResponse, error)
	ListLocked(ctx context.Context) ([]dto.AccountResponse, error)
	Disable(ctx context.Context, actor model.ActingIdentity, code uint) error
	Enable(ctx context.Context, actor model.ActingIdentity, code uint) error
	Unlock(ctx context.Context, actor model.ActingIdentity, code uint) error
	UnlockAll(ctx context.Context, actor model.ActingIdentity) (int64, error)
	Timeout(ctx context.Context, actor model.ActingIdentity, code uint, minutes int) (*dto.AccountResponse, error)
	ClearTimeout(ctx context.Context, actor model.ActingIdentity, code uint) error
	ResetPassword(ctx context.Context, actor model.ActingIdentity, code uint) (string, error)
	ListSponsors(ctx context.Context, status model.SponsorStatus) ([]dto.AccountResponse, error)
	ReviewSponsor(ctx context.Context, actor model.ActingIdentity, code uint, decision string) (*dto.AccountResponse, error)
}

type accountService struct {
	accounts     repository.AccountRepository
	associations repository.AssociationRepository
	audit        AuditRecorder
	now          func() time.Time
}

func NewAccountService(accounts repository.AccountRepository, associations repository.AssociationRepository, audit AuditRecorder, opts ...Option) AccountService {
	o := applyOptions(opts)
	return &accountService{accounts: accounts, associations: associations, audit: audit, now: o.now}
}

func requireAdmin(actor model.ActingIdentity) error {
	if actor.RealActor().Role != model.RoleAdministrator {
		return denied("administrator access required")
	}
	return nil
}

func (s *accountService) record(ctx context.Context, tx *gorm.DB, event, details string) error {
	return s.audit.Record(ctx, tx, AuditEntry{EventType: event, Details: details})
}

func (s *accountService) Create(ctx context.Context, actor model.ActingIdentity, req dto.CreateAccountRequest) (*dto.CreateAccountResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	role, err := model.ParseRole(string(req.Role))
	if err != nil {
		return nil, invalid("role", err.Error())
	}
	if role == model.RoleSponsor && req.OrgName == "" {
		return nil, invalid("org_name", "is required for sponsors")
	}
	taken, err := s.accounts.UsernameOrEmailTaken(ctx, req.Username, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("username or email already in use")
	}

	temp, err := TemporaryPassword()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(temp)
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
		Role:                    role,
		Active:                  true,
		WantsPointNotifications: true,
		WantsOrderNotifications: true,
	}
	event := model.EventAdminCreateUser
	switch role {
	case model.RoleDriver:
		acc.Driver = &model.DriverProfile{LicenseNumber: req.LicenseNumber}
	case model.RoleSponsor:
		acc.Sponsor = &model.SponsorProfile{OrgName: req.OrgName, Status: model.SponsorApproved}
		event = model.EventAdminCreateSponsor
	case model.RoleAdministrator:
		acc.Admin = &model.AdminProfile{RoleTitle: req.RoleTitle}
	}

	err = runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		if err := s.accounts.Create(ctx, tx, acc); err != nil {
			return writeErr(err, "username or email already in use")
		}
		return s.record(ctx, tx, event, fmt.Sprintf("%s created %s account %s", actor.RealActor().Username, role, acc.Username))
	})
	if err != nil {
		return nil, err
	}
	return &dto.CreateAccountResponse{Account: accountToResponse(acc, s.now()), TemporaryPassword: temp}, nil
}

// SponsorCreateDriver provisions a driver already enrolled, with zero points,
// in the calling sponsor's program.
func (s *accountService) SponsorCreateDriver(ctx context.Context, actor model.ActingIdentity, req dto.SponsorCreateDriverRequest) (*dto.CreateAccountResponse, error) {
	if actor.Effective.Role != model.RoleSponsor {
		return nil, denied("only sponsors can enroll drivers directly")
	}
	sponsorCode := actor.Effective.Code
	taken, err := s.accounts.UsernameOrEmailTaken(ctx, req.Username, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("username or email already in use")
	}

	temp, err := SponsorTemporaryPassword()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(temp)
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
		if err := s.associations.Create(ctx, tx, &model.Association{DriverCode: acc.Code, SponsorCode: sponsorCode}); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			EventType:   model.EventSponsorCreateUser,
			Details:     fmt.Sprintf("%s created driver %s", describeActor(actor), acc.Username),
			DriverCode:  ref(acc.Code),
			SponsorCode: ref(sponsorCode),
		})
	})
	if err != nil {
		return nil, err
	}
	return &dto.CreateAccountResponse{Account: accountToResponse(acc, s.now()), TemporaryPassword: temp}, nil
}

func (s *accountService) Get(ctx context.Context, code uint) (*dto.AccountResponse, error) {
	acc, err := s.accounts.FindByCode(ctx, code)
	if err != nil {
		return nil, lookupErr(err, "account")
	}
	resp := accountToResponse(acc, s.now())
	return &resp, nil
}

func (s *accountService) Update(ctx context.Context, actor model.ActingIdentity, code uint, req dto.UpdateAccountRequest) (*dto.AccountResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	acc, err := s.accounts.FindByCode(ctx, code)
	if err != nil {
		return nil, lookupErr(err, "account")
	}

	if req.Username != nil || req.Email != nil {
		username, email := acc.Username, acc.Email
		if req.Username != nil {
			username = *req.Username
		}
		if req.Email != nil {
			email = *req.Email
		}
		taken, err := s.accounts.UsernameOrEmailTaken(ctx, username, email, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, conflict("username or email already in use")
		}
		acc.Username, acc.Email = username, email
	}
	if req.FirstName != nil {
		acc.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		acc.LastName = *req.LastName
	}
	if req.Phone != nil {
		acc.Phone = req.Phone
	}
	if req.LicenseNumber != nil && acc.Driver != nil {
		acc.Driver.LicenseNumber = *req.LicenseNumber
	}
	if req.OrgName != nil && acc.Sponsor != nil {
		acc.Sponsor.OrgName = *req.OrgName
	}
	if req.RoleTitle != nil && acc.Admin != nil {
		acc.Admin.RoleTitle = *req.RoleTitle
	}

	err = runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		if err := s.accounts.UpdateDetails(ctx, tx, acc); err != nil {
			return writeErr(err, "username or email already in use")
		}
		return s.record(ctx, tx, model.EventAdminEditUser, fmt.Sprintf("%s edited account %s", actor.RealActor().Username, acc.Username))
	})
	if err != nil {
		return nil, err
	}
	resp := accountToResponse(acc, s.now())
	return &resp, nil
}

func (s *accountService) List(ctx context.Context, filter dto.AccountFilter) ([]dto.AccountResponse, error) {
	if filter.Role != "" {
		if _, err := model.ParseRole(filter.Role); err != nil {
			return nil, invalid("role", err.Error())
		}
	}
	list, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return accountsToResponse(list, s.now()), nil
}

func (s *accountService) ListLocked(ctx context.Context) ([]dto.AccountResponse, error) {
	now := s.now()
	list, err := s.accounts.ListLocked(ctx, now)
	if err != nil {
		return nil, err
	}
	return accountsToResponse(list, now), nil
}

func (s *accountService) setActive(ctx context.Context, actor model.ActingIdentity, code uint, active bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !active && actor.RealActor().Code == code {
		return denied("you cannot disable your own account")
	}
	return runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return lookupErr(err, "account")
		}
		if err := s.accounts.SetActive(ctx, tx, code, active); err != nil {
			return err
		}
		event, verb := model.EventAdminEnableUser, "enabled"
		if !active {
			event, verb = model.EventAdminDisableUser, "disabled"
		}
		return s.record(ctx, tx, event, fmt.Sprintf("%s %s account %s", actor.RealActor().Username, verb, acc.Username))
	})
}

func (s *accountService) Disable(ctx context.Context, actor model.ActingIdentity, code uint) error {
	return s.setActive(ctx, actor, code, false)
}

func (s *accountService) Enable(ctx context.Context, actor model.ActingIdentity, code uint) error {
	return s.setActive(ctx, actor, code, true)
}

// Unlock clears any lock, whatever imposed it, and resets the counter.
func (s *accountService) Unlock(ctx context.Context, actor model.ActingIdentity, code uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return lookupErr(err, "account")
		}
		if err := s.accounts.SaveLockout(ctx, tx, code, acc.Lockout.Clear()); err != nil {
			return err
		}
		return s.record(ctx, tx, model.EventAdminUnlockUser, fmt.Sprintf("%s unlocked account %s", actor.RealActor().Username, acc.Username))
	})
}

func (s *accountService) UnlockAll(ctx context.Context, actor model.ActingIdentity) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	var n int64
	err := runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		var err error
		if n, err = s.accounts.ClearAllLockouts(ctx, tx); err != nil {
			return err
		}
		return s.record(ctx, tx, model.EventAdminUnlockAll, fmt.Sprintf("%s unlocked all accounts (%d affected)", actor.RealActor().Username, n))
	})
	return n, err
}

func (s *accountService) Timeout(ctx context.Context, actor model.ActingIdentity, code uint, minutes int) (*dto.AccountResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if minutes <= 0 || minutes > MaxTimeoutMinutes {
		return nil, invalid("minutes", fmt.Sprintf("must be between 1 and %d", MaxTimeoutMinutes))
	}
	if actor.RealActor().Code == code {
		return nil, denied("you cannot time out your own account")
	}

	now := s.now()
	var acc *model.Account
	err := runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		var err error
		acc, err = s.accounts.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return lookupErr(err, "account")
		}
		acc.Lockout = acc.Lockout.AdminLock(now, time.Duration(minutes)*time.Minute)
		if err := s.accounts.SaveLockout(ctx, tx, code, acc.Lockout); err != nil {
			return err
		}
		return s.record(ctx, tx, model.EventAdminTimeout, fmt.Sprintf("%s timed out account %s for %d minutes (until %s)",
			actor.RealActor().Username, acc.Username, minutes, acc.LockoutUntil.UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return nil, err
	}
	resp := accountToResponse(acc, now)
	return &resp, nil
}

// ClearTimeout lifts an administrator timeout only; attempt lockouts go
// through Unlock.
func (s *accountService) ClearTimeout(ctx context.Context, actor model.ActingIdentity, code uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	now := s.now()
	return runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return lookupErr(err, "account")
		}
		if !acc.IsLocked(now) || acc.LockoutReason != model.LockoutAdmin {
			return conflict("account has no active administrator timeout")
		}
		if err := s.accounts.SaveLockout(ctx, tx, code, acc.Lockout.Clear()); err != nil {
			return err
		}
		return s.record(ctx, tx, model.EventAdminClearTimeout, fmt.Sprintf("%s cleared the timeout on account %s", actor.RealActor().Username, acc.Username))
	})
}

func (s *accountService) ResetPassword(ctx context.Context, actor model.ActingIdentity, code uint) (string, error) {
	if err := requireAdmin(actor); err != nil {
		return "", err
	}
	temp, err := TemporaryPassword()
	if err != nil {
		return "", err
	}
	hash, err := HashPassword(temp)
	if err != nil {
		return "", err
	}
	err = runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByCodeForUpdate(ctx, tx, code)
		if err != nil {
			return lookupErr(err, "account")
		}
		if err := s.accounts.UpdatePassword(ctx, tx, code, hash); err != nil {
			return err
		}
		if err := s.accounts.SaveLockout(ctx, tx, code, acc.Lockout.Clear()); err != nil {
			return err
		}
		return s.record(ctx, tx, model.EventAdminResetPassword, fmt.Sprintf("%s reset the password of account %s", actor.RealActor().Username, acc.Username))
	})
	if err != nil {
		return "", err
	}
	return temp, nil
}

func (s *accountService) ListSponsors(ctx context.Context, status model.SponsorStatus) ([]dto.AccountResponse, error) {
	switch status {
	case "", model.SponsorPending, model.SponsorApproved, model.SponsorRejected:
	default:
		return nil, invalid("status", "must be pending, approved or rejected")
	}
	list, err := s.accounts.ListSponsors(ctx, status)
	if err != nil {
		return nil, err
	}
	return accountsToResponse(list, s.now()), nil
}

func (s *accountService) ReviewSponsor(ctx context.Context, actor model.ActingIdentity, code uint, decision string) (*dto.AccountResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var status model.SponsorStatus
	switch decision {
	case "approve":
		status = model.SponsorApproved
	case "reject":
		status = model.SponsorRejected
	default:
		return nil, invalid("decision", "must be approve or reject")
	}

	err := runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		if err := s.accounts.UpdateSponsorStatus(ctx, tx, code, status); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("sponsor")
			}
			return err
		}
		return s.record(ctx, tx, model.EventAdminSponsorReview, fmt.Sprintf("%s set sponsor %d to %s", actor.RealActor().Username, code, status))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, code)
}
