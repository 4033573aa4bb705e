package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ImpersonationService interface {
	Start(ctx context.Context, actor model.ActingIdentity, targetCode uint) (*dto.ImpersonationResponse, error)
	// Stop restores the original identity. Without an active impersonation it
	// is a no-op.
	Stop(ctx context.Context, current model.ActingIdentity) (*dto.ImpersonationResponse, error)
}

type impersonationService struct {
	accounts     repository.AccountRepository
	associations repository.AssociationRepository
	logs         repository.ImpersonationLogRepository
	tokens       *TokenService
	now          func() time.Time
}

func NewImpersonationService(
	accounts repository.AccountRepository,
	associations repository.AssociationRepository,
	logs repository.ImpersonationLogRepository,
	tokens *TokenService,
	opts ...Option,
) ImpersonationService {
	o := applyOptions(opts)
	return &impersonationService{
		accounts:     accounts,
		associations: associations,
		logs:         logs,
		tokens:       tokens,
		now:          o.now,
	}
}

func (s *impersonationService) Start(ctx context.Context, actor model.ActingIdentity, targetCode uint) (*dto.ImpersonationResponse, error) {
	if actor.Impersonating() {
		return nil, conflict("stop the current impersonation first")
	}
	if actor.Effective.Code == targetCode {
		return nil, denied("cannot impersonate yourself")
	}

	target, err := s.accounts.FindByCode(ctx, targetCode)
	if err != nil {
		return nil, lookupErr(err, "account")
	}
	if !target.Active {
		return nil, notFound("account")
	}

	ok, err := s.mayImpersonate(ctx, actor.Effective, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, denied("not allowed to impersonate this account")
	}

	if err := s.logs.Append(ctx, &model.ImpersonationLog{
		ActorCode:  actor.Effective.Code,
		TargetCode: target.Code,
		Action:     model.ImpersonationStart,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		return nil, err
	}
	log.Info().Uint("actor", actor.Effective.Code).Uint("target", target.Code).Msg("impersonation started")

	original := actor.Effective
	session, err := s.tokens.Session(target, model.ActingIdentity{Effective: target.Identity(), Original: &original})
	if err != nil {
		return nil, err
	}
	return &dto.ImpersonationResponse{
		Active:  true,
		Message: "now acting as " + target.Username,
		Session: session,
	}, nil
}

// mayImpersonate: administrators may act as any other account; sponsors only
// as drivers enrolled in their program.
func (s *impersonationService) mayImpersonate(ctx context.Context, actor model.Identity, target *model.Account) (bool, error) {
	switch actor.Role {
	case model.RoleAdministrator:
		return true, nil
	case model.RoleSponsor:
		if target.Role != model.RoleDriver {
			return false, nil
		}
		_, err := s.associations.Find(ctx, target.Code, actor.Code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return err == nil, err
	case model.RoleDriver:
		return false, nil
	}
	return false, nil
}

func (s *impersonationService) Stop(ctx context.Context, current model.ActingIdentity) (*dto.ImpersonationResponse, error) {
	if current.Original == nil {
		return &dto.ImpersonationResponse{Active: false, Message: "no active impersonation"}, nil
	}

	orig, err := s.accounts.FindByCode(ctx, current.Original.Code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil || !orig.Active {
		return nil, fmt.Errorf("original account is no longer available, log in again: %w", ErrNotFound)
	}

	if err := s.logs.Append(ctx, &model.ImpersonationLog{
		ActorCode:  orig.Code,
		TargetCode: current.Effective.Code,
		Action:     model.ImpersonationStop,
		CreatedAt:  s.now().UTC(),
	}); err != nil {
		return nil, err
	}
	log.Info().Uint("actor", orig.Code).Uint("target", current.Effective.Code).Msg("impersonation stopped")

	session, err := s.tokens.Session(orig, model.ActingIdentity{Effective: orig.Identity()})
	if err != nil {
		return nil, err
	}
	return &dto.ImpersonationResponse{
		Active:  false,
		Message: "returned to " + orig.Username,
		Session: session,
	}, nil
}
