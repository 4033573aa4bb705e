package service

import (
	"context"
	"strings"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"

	"github.com/rs/zerolog/log"
)

const notificationPageSize = 100

// Notifier stores an in-app message for one recipient. sender is nil for
// system messages.
type Notifier interface {
	Notify(ctx context.Context, recipient uint, sender *uint, message string) error
}

type NotificationService interface {
	Notifier
	Send(ctx context.Context, actor model.ActingIdentity, req dto.SendNotificationRequest) (*dto.SendNotificationResponse, error)
	// List returns the newest messages and marks all of them read.
	List(ctx context.Context, code uint) ([]dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, code uint) (int64, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	accounts     repository.AccountRepository
	associations repository.AssociationRepository
	now          func() time.Time
}

func NewNotificationService(
	repo repository.NotificationRepository,
	accounts repository.AccountRepository,
	associations repository.AssociationRepository,
	opts ...Option,
) NotificationService {
	o := applyOptions(opts)
	return &notificationService{repo: repo, accounts: accounts, associations: associations, now: o.now}
}

func (s *notificationService) Notify(ctx context.Context, recipient uint, sender *uint, message string) error {
	return s.repo.CreateBatch(ctx, []model.Notification{{
		SenderCode:    sender,
		RecipientCode: recipient,
		Message:       message,
		CreatedAt:     s.now().UTC(),
	}})
}

// Send broadcasts a message. Sponsors reach only drivers enrolled in their
// program; administrators reach any driver.
func (s *notificationService) Send(ctx context.Context, actor model.ActingIdentity, req dto.SendNotificationRequest) (*dto.SendNotificationResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, invalid("message", "must not be empty")
	}

	var (
		reachable []uint
		err       error
	)
	switch actor.Effective.Role {
	case model.RoleSponsor:
		reachable, err = s.sponsorDrivers(ctx, actor.Effective.Code)
	case model.RoleAdministrator:
		reachable, err = s.accounts.ActiveDriverCodes(ctx)
	default:
		return nil, denied("drivers cannot send notifications")
	}
	if err != nil {
		return nil, err
	}

	recipients := reachable
	if !req.AllDrivers {
		allowed := make(map[uint]bool, len(reachable))
		for _, c := range reachable {
			allowed[c] = true
		}
		recipients = nil
		seen := map[uint]bool{}
		for _, c := range req.RecipientCodes {
			if !allowed[c] {
				return nil, denied("recipient is not one of your drivers")
			}
			if !seen[c] {
				seen[c] = true
				recipients = append(recipients, c)
			}
		}
	}
	if len(recipients) == 0 {
		return nil, invalid("recipient_codes", "no recipients")
	}

	sender := actor.Effective.Code
	now := s.now().UTC()
	rows := make([]model.Notification, len(recipients))
	for i, r := range recipients {
		rows[i] = model.Notification{SenderCode: &sender, RecipientCode: r, Message: msg, CreatedAt: now}
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}
	log.Info().Uint("sender", sender).Int("recipients", len(rows)).Msg("notification broadcast")
	return &dto.SendNotificationResponse{Sent: len(rows)}, nil
}

func (s *notificationService) sponsorDrivers(ctx context.Context, sponsorCode uint) ([]uint, error) {
	assocs, err := s.associations.ListBySponsor(ctx, sponsorCode)
	if err != nil {
		return nil, err
	}
	codes := make([]uint, 0, len(assocs))
	for _, a := range assocs {
		if a.Driver != nil && !a.Driver.Active {
			continue
		}
		codes = append(codes, a.DriverCode)
	}
	return codes, nil
}

func (s *notificationService) List(ctx context.Context, code uint) ([]dto.NotificationResponse, error) {
	list, err := s.repo.ListForRecipient(ctx, code, notificationPageSize)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.NotificationResponse, len(list))
	unread := false
	for i, n := range list {
		resp[i] = dto.NotificationResponse{
			ID:         n.ID,
			SenderCode: n.SenderCode,
			Message:    n.Message,
			Read:       n.IsRead,
			CreatedAt:  n.CreatedAt,
		}
		unread = unread || !n.IsRead
	}
	if unread {
		if err := s.repo.MarkAllRead(ctx, code); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, code uint) (int64, error) {
	return s.repo.CountUnread(ctx, code)
}
