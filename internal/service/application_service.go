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

type ApplicationService interface {
	Apply(ctx context.Context, actor model.ActingIdentity, req dto.ApplyRequest) (*dto.ApplicationResponse, error)
	ListForDriver(ctx context.Context, driverCode uint) ([]dto.ApplicationResponse, error)
	ListPending(ctx context.Context, sponsorCode uint) ([]dto.ApplicationResponse, error)
	// Decide accepts or rejects a pending application. Acceptance enrolls the
	// driver with a zero balance.
	Decide(ctx context.Context, actor model.ActingIdentity, id uint, req dto.ApplicationDecisionRequest) (*dto.ApplicationResponse, error)
	// AvailableSponsors lists approved sponsors with the driver's standing in each.
	AvailableSponsors(ctx context.Context, driverCode uint) ([]dto.SponsorSummary, error)
}

type applicationService struct {
	apps         repository.ApplicationRepository
	accounts     repository.AccountRepository
	associations repository.AssociationRepository
	audit        AuditRecorder
	notifier     Notifier
	now          func() time.Time
}

func NewApplicationService(
	apps repository.ApplicationRepository,
	accounts repository.AccountRepository,
	associations repository.AssociationRepository,
	audit AuditRecorder,
	notifier Notifier,
	opts ...Option,
) ApplicationService {
	o := applyOptions(opts)
	return &applicationService{
		apps:         apps,
		accounts:     accounts,
		associations: associations,
		audit:        audit,
		notifier:     notifier,
		now:          o.now,
	}
}

func (s *applicationService) Apply(ctx context.Context, actor model.ActingIdentity, req dto.ApplyRequest) (*dto.ApplicationResponse, error) {
	if actor.Effective.Role != model.RoleDriver {
		return nil, denied("only drivers can apply to sponsors")
	}
	driverCode := actor.Effective.Code

	sponsor, err := s.accounts.FindByCode(ctx, req.SponsorCode)
	if err != nil {
		return nil, lookupErr(err, "sponsor")
	}
	if sponsor.Role != model.RoleSponsor || !sponsor.Active || sponsor.Sponsor == nil || sponsor.Sponsor.Status != model.SponsorApproved {
		return nil, notFound("sponsor")
	}

	if _, err := s.associations.Find(ctx, driverCode, req.SponsorCode); err == nil {
		return nil, conflict("already enrolled with this sponsor")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	open, err := s.apps.HasOpen(ctx, driverCode, req.SponsorCode)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, conflict("an application to this sponsor is already open")
	}

	app := &model.DriverApplication{
		DriverCode:  driverCode,
		SponsorCode: req.SponsorCode,
		Status:      model.ApplicationPending,
		Reason:      req.Reason,
		AppliedAt:   s.now().UTC(),
	}
	err = runTx(ctx, s.apps.DB(), func(tx *gorm.DB) error {
		if err := s.apps.Create(ctx, tx, app); err != nil {
			return writeErr(err, "an application to this sponsor is already open")
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			EventType:   model.EventApplication,
			Details:     fmt.Sprintf("driver %s applied to sponsor %s", actor.Effective.Username, sponsor.Sponsor.OrgName),
			DriverCode:  ref(driverCode),
			SponsorCode: ref(req.SponsorCode),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("New application from driver %s", actor.Effective.Username)
		if err := s.notifier.Notify(ctx, req.SponsorCode, ref(driverCode), msg); err != nil {
			log.Warn().Err(err).Uint("sponsor", req.SponsorCode).Msg("application: sponsor notification failed")
		}
	}
	resp := applicationToResponse(*app)
	return &resp, nil
}

func (s *applicationService) ListForDriver(ctx context.Context, driverCode uint) ([]dto.ApplicationResponse, error) {
	apps, err := s.apps.ListByDriver(ctx, driverCode)
	if err != nil {
		return nil, err
	}
	return applicationsToResponse(apps), nil
}

func (s *applicationService) ListPending(ctx context.Context, sponsorCode uint) ([]dto.ApplicationResponse, error) {
	apps, err := s.apps.ListPendingBySponsor(ctx, sponsorCode)
	if err != nil {
		return nil, err
	}
	return applicationsToResponse(apps), nil
}

func applicationsToResponse(apps []model.DriverApplication) []dto.ApplicationResponse {
	resp := make([]dto.ApplicationResponse, len(apps))
	for i, a := range apps {
		resp[i] = applicationToResponse(a)
	}
	return resp
}

func (s *applicationService) Decide(ctx context.Context, actor model.ActingIdentity, id uint, req dto.ApplicationDecisionRequest) (*dto.ApplicationResponse, error) {
	var status model.ApplicationStatus
	switch req.Decision {
	case "accept":
		status = model.ApplicationAccepted
	case "reject":
		status = model.ApplicationRejected
	default:
		return nil, invalid("decision", "must be accept or reject")
	}
	switch actor.Effective.Role {
	case model.RoleSponsor, model.RoleAdministrator:
	default:
		return nil, denied("only sponsors decide applications")
	}

	now := s.now().UTC()
	var app *model.DriverApplication
	err := runTx(ctx, s.apps.DB(), func(tx *gorm.DB) error {
		var err error
		app, err = s.apps.FindForUpdate(ctx, tx, id)
		if err != nil {
			return lookupErr(err, "application")
		}
		if actor.Effective.Role == model.RoleSponsor && app.SponsorCode != actor.Effective.Code {
			return notFound("application")
		}
		if app.Status != model.ApplicationPending {
			return conflict("application was already decided")
		}
		if err := s.apps.Decide(ctx, tx, app.ID, status, now); err != nil {
			return err
		}
		app.Status, app.DecidedAt = status, &now

		if status == model.ApplicationAccepted {
			_, err := s.associations.FindForUpdate(ctx, tx, app.DriverCode, app.SponsorCode)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := s.associations.Create(ctx, tx, &model.Association{DriverCode: app.DriverCode, SponsorCode: app.SponsorCode}); err != nil {
					return writeErr(err, "driver is already enrolled")
				}
			case err != nil:
				return err
			}
		}

		details := fmt.Sprintf("%s %s application %d from driver %d", describeActor(actor), status, app.ID, app.DriverCode)
		if req.Reason != nil && *req.Reason != "" {
			details += " (reason: " + *req.Reason + ")"
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			EventType:   model.EventApplication,
			Details:     details,
			DriverCode:  ref(app.DriverCode),
			SponsorCode: ref(app.SponsorCode),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		msg := fmt.Sprintf("Your application to sponsor %d was %s", app.SponsorCode, status)
		if req.Reason != nil && *req.Reason != "" {
			msg += ": " + *req.Reason
		}
		if err := s.notifier.Notify(ctx, app.DriverCode, ref(app.SponsorCode), msg); err != nil {
			log.Warn().Err(err).Uint("driver", app.DriverCode).Msg("application: driver notification failed")
		}
	}
	resp := applicationToResponse(*app)
	return &resp, nil
}

func (s *applicationService) AvailableSponsors(ctx context.Context, driverCode uint) ([]dto.SponsorSummary, error) {
	sponsors, err := s.accounts.ListSponsors(ctx, model.SponsorApproved)
	if err != nil {
		return nil, err
	}
	assocs, err := s.associations.ListByDriver(ctx, driverCode)
	if err != nil {
		return nil, err
	}
	balances := make(map[uint]int, len(assocs))
	for _, a := range assocs {
		balances[a.SponsorCode] = a.Points
	}

	resp := make([]dto.SponsorSummary, len(sponsors))
	for i, sp := range sponsors {
		points, ok := balances[sp.Code]
		resp[i] = dto.SponsorSummary{Code: sp.Code, Associated: ok, Points: points}
		if sp.Sponsor != nil {
			resp[i].OrgName = sp.Sponsor.OrgName
		}
	}
	return resp, nil
}
