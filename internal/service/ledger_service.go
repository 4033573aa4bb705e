package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type LedgerService interface {
	Award(ctx context.Context, actor model.ActingIdentity, req dto.PointsAdjustRequest) (*dto.PointsAdjustResponse, error)
	Remove(ctx context.Context, actor model.ActingIdentity, req dto.PointsAdjustRequest) (*dto.PointsAdjustResponse, error)
	// Checkout converts the driver's cart for one sponsor into purchases and
	// debits the balance, all or nothing.
	Checkout(ctx context.Context, actor model.ActingIdentity, sponsorCode uint) (*dto.CheckoutResponse, error)
	Balances(ctx context.Context, driverCode uint) ([]dto.BalanceResponse, error)
	SponsorDrivers(ctx context.Context, sponsorCode uint) ([]dto.SponsorDriverResponse, error)
}

// LedgerDeps groups the collaborators of the ledger. Mail and Events are
// optional.
type LedgerDeps struct {
	Accounts     repository.AccountRepository
	Associations repository.AssociationRepository
	Carts        repository.CartRepository
	Purchases    repository.PurchaseRepository
	Audit        AuditRecorder
	Notifier     Notifier
	Mail         EmailQueue
	Events       OrderEventPublisher
}

type ledgerService struct {
	LedgerDeps
	now func() time.Time
}

func NewLedgerService(deps LedgerDeps, opts ...Option) LedgerService {
	o := applyOptions(opts)
	return &ledgerService{LedgerDeps: deps, now: o.now}
}

// sponsorFor resolves which program an adjustment applies to. Sponsors always
// act on their own program; administrators must name one.
func sponsorFor(actor model.ActingIdentity, requested *uint) (uint, error) {
	switch actor.Effective.Role {
	case model.RoleSponsor:
		if requested != nil && *requested != actor.Effective.Code {
			return 0, denied("sponsors can only adjust their own program")
		}
		return actor.Effective.Code, nil
	case model.RoleAdministrator:
		if requested == nil || *requested == 0 {
			return 0, invalid("sponsor_code", "is required")
		}
		return *requested, nil
	case model.RoleDriver:
		return 0, denied("drivers cannot adjust points")
	}
	return 0, denied("unknown role")
}

func (s *ledgerService) Award(ctx context.Context, actor model.ActingIdentity, req dto.PointsAdjustRequest) (*dto.PointsAdjustResponse, error) {
	return s.adjust(ctx, actor, req, true)
}

func (s *ledgerService) Remove(ctx context.Context, actor model.ActingIdentity, req dto.PointsAdjustRequest) (*dto.PointsAdjustResponse, error) {
	return s.adjust(ctx, actor, req, false)
}

func (s *ledgerService) adjust(ctx context.Context, actor model.ActingIdentity, req dto.PointsAdjustRequest, award bool) (*dto.PointsAdjustResponse, error) {
	if req.Amount <= 0 {
		return nil, invalid("amount", "must be greater than zero")
	}
	sponsorCode, err := sponsorFor(actor, req.SponsorCode)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, invalid("reason", "is required")
	}

	var balance int
	err = runTx(ctx, s.Associations.DB(), func(tx *gorm.DB) error {
		assoc, err := s.Associations.FindForUpdate(ctx, tx, req.DriverCode, sponsorCode)
		if err != nil {
			return lookupErr(err, "sponsor program membership")
		}

		verb := "awarded"
		if award {
			if err := s.Associations.Credit(ctx, tx, req.DriverCode, sponsorCode, req.Amount); err != nil {
				return err
			}
			balance = assoc.Points + req.Amount
		} else {
			verb = "removed"
			if assoc.Points < req.Amount {
				return ErrInsufficientBalance
			}
			ok, err := s.Associations.Debit(ctx, tx, req.DriverCode, sponsorCode, req.Amount)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientBalance
			}
			balance = assoc.Points - req.Amount
		}

		return s.Audit.Record(ctx, tx, AuditEntry{
			EventType: model.EventDriverPoints,
			Details: fmt.Sprintf("%s %s %d points for driver %d with sponsor %d (reason: %s). New balance: %d",
				describeActor(actor), verb, req.Amount, req.DriverCode, sponsorCode, reason, balance),
			DriverCode:  ref(req.DriverCode),
			SponsorCode: ref(sponsorCode),
		})
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.PointsAdjustResponse{DriverCode: req.DriverCode, SponsorCode: sponsorCode, Balance: balance}
	change := fmt.Sprintf("%d points were added to your balance", req.Amount)
	if !award {
		change = fmt.Sprintf("%d points were removed from your balance", req.Amount)
	}
	msg := fmt.Sprintf("%s. Reason: %s. New balance: %d", change, reason, balance)
	if w := s.notifyDriver(ctx, req.DriverCode, ref(sponsorCode), msg, func(a *model.Account) bool { return a.WantsPointNotifications }); w != "" {
		resp.Warnings = append(resp.Warnings, w)
	}
	return resp, nil
}

func describeActor(actor model.ActingIdentity) string {
	who := fmt.Sprintf("%s %s", actor.Effective.Role, actor.Effective.Username)
	if actor.Original != nil {
		who += fmt.Sprintf(" (impersonated by %s)", actor.Original.Username)
	}
	return who
}

// notifyDriver delivers msg if the driver opted in. Failures are reported as a
// warning string; the ledger change is already committed.
func (s *ledgerService) notifyDriver(ctx context.Context, driverCode uint, sender *uint, msg string, wants func(*model.Account) bool) string {
	if s.Notifier == nil {
		return ""
	}
	driver, err := s.Accounts.FindByCode(ctx, driverCode)
	if err != nil {
		log.Warn().Err(err).Uint("driver", driverCode).Msg("ledger: notification skipped, driver lookup failed")
		return "driver notification could not be sent"
	}
	if !wants(driver) {
		return ""
	}
	if err := s.Notifier.Notify(ctx, driverCode, sender, msg); err != nil {
		log.Warn().Err(err).Uint("driver", driverCode).Msg("ledger: driver notification failed")
		return "driver notification could not be sent"
	}
	return ""
}

func (s *ledgerService) Checkout(ctx context.Context, actor model.ActingIdentity, sponsorCode uint) (*dto.CheckoutResponse, error) {
	if actor.Effective.Role != model.RoleDriver {
		return nil, denied("only drivers can check out")
	}
	driverCode := actor.Effective.Code
	orderID := uuid.New()
	now := s.now().UTC()

	var (
		purchases []model.Purchase
		total     int
		balance   int
	)
	err := runTx(ctx, s.Associations.DB(), func(tx *gorm.DB) error {
		assoc, err := s.Associations.FindForUpdate(ctx, tx, driverCode, sponsorCode)
		if err != nil {
			return lookupErr(err, "sponsor program")
		}
		items, err := s.Carts.ListBySponsor(ctx, tx, driverCode, sponsorCode)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return invalid("cart", "cart is empty")
		}

		total = 0
		purchases = make([]model.Purchase, len(items))
		for i, it := range items {
			total += it.LineTotal()
			purchases[i] = model.Purchase{
				OrderID:     orderID,
				AccountCode: driverCode,
				SponsorCode: sponsorCode,
				ItemID:      it.ItemID,
				Title:       it.Title,
				Price:       it.Price,
				Points:      it.Points,
				Quantity:    it.Quantity,
				PurchasedAt: now,
			}
		}
		if assoc.Points < total {
			return ErrInsufficientBalance
		}
		ok, err := s.Associations.Debit(ctx, tx, driverCode, sponsorCode, total)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientBalance
		}
		balance = assoc.Points - total

		if err := s.Purchases.CreateBatch(ctx, tx, purchases); err != nil {
			return err
		}
		if err := s.Carts.DeleteBySponsor(ctx, tx, driverCode, sponsorCode); err != nil {
			return err
		}
		return s.Audit.Record(ctx, tx, AuditEntry{
			EventType: model.EventDriverPoints,
			Details: fmt.Sprintf("%s redeemed %d points with sponsor %d (order %s, %d items). New balance: %d",
				describeActor(actor), total, sponsorCode, orderID, len(purchases), balance),
			DriverCode:  ref(driverCode),
			SponsorCode: ref(sponsorCode),
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("order_id", orderID.String()).Uint("driver", driverCode).Uint("sponsor", sponsorCode).
		Int("points", total).Msg("checkout completed")

	resp := &dto.CheckoutResponse{
		OrderID:     orderID,
		SponsorCode: sponsorCode,
		TotalPoints: total,
		Balance:     balance,
		Items:       make([]dto.PurchaseResponse, len(purchases)),
	}
	for i, p := range purchases {
		resp.Items[i] = purchaseToResponse(p)
	}
	resp.Warnings = s.afterCheckout(ctx, driverCode, sponsorCode, orderID, purchases, total, balance, now)
	return resp, nil
}

// afterCheckout runs the side effects of a committed order. None of them can
// undo the order; failures become warnings.
func (s *ledgerService) afterCheckout(ctx context.Context, driverCode, sponsorCode uint, orderID uuid.UUID, purchases []model.Purchase, total, balance int, at time.Time) []string {
	var warnings []string

	msg := fmt.Sprintf("Order %s placed: %d item(s) for %d points. Remaining balance: %d", orderID, len(purchases), total, balance)
	if w := s.notifyDriver(ctx, driverCode, ref(sponsorCode), msg, func(a *model.Account) bool { return a.WantsOrderNotifications }); w != "" {
		warnings = append(warnings, w)
	}

	if s.Notifier != nil {
		titles := make([]string, len(purchases))
		for i, p := range purchases {
			titles[i] = fmt.Sprintf("%s x%d", p.Title, p.Quantity)
		}
		sponsorMsg := fmt.Sprintf("Driver %d placed order %s for %d points: %s", driverCode, orderID, total, strings.Join(titles, ", "))
		if err := s.Notifier.Notify(ctx, sponsorCode, nil, sponsorMsg); err != nil {
			log.Warn().Err(err).Uint("sponsor", sponsorCode).Msg("ledger: sponsor notification failed")
			warnings = append(warnings, "sponsor notification could not be sent")
		}
	}

	if s.Mail != nil {
		if err := s.queueReceipt(ctx, driverCode, sponsorCode, orderID, purchases, total, balance, at); err != nil {
			log.Warn().Err(err).Str("order_id", orderID.String()).Msg("ledger: receipt email not queued")
			warnings = append(warnings, "receipt email could not be queued")
		}
	}

	if s.Events != nil && s.Events.Enabled() {
		ev := infra.OrderPlacedEvent{
			OrderID:     orderID.String(),
			DriverCode:  driverCode,
			SponsorCode: sponsorCode,
			TotalPoints: total,
			ItemCount:   len(purchases),
			PlacedAt:    at,
		}
		if err := s.Events.PublishOrderPlaced(ctx, ev); err != nil {
			log.Warn().Err(err).Str("order_id", orderID.String()).Msg("ledger: order event not published")
			warnings = append(warnings, "order event could not be published")
		}
	}
	return warnings
}

func (s *ledgerService) queueReceipt(ctx context.Context, driverCode, sponsorCode uint, orderID uuid.UUID, purchases []model.Purchase, total, balance int, at time.Time) error {
	driver, err := s.Accounts.FindByCode(ctx, driverCode)
	if err != nil {
		return err
	}
	if !driver.WantsOrderNotifications {
		return nil
	}
	sponsorName := fmt.Sprintf("sponsor %d", sponsorCode)
	if sponsor, err := s.Accounts.FindByCode(ctx, sponsorCode); err == nil && sponsor.Sponsor != nil {
		sponsorName = sponsor.Sponsor.OrgName
	}

	lines := make([]infra.ReceiptLine, len(purchases))
	for i, p := range purchases {
		lines[i] = infra.ReceiptLine{Title: p.Title, Quantity: p.Quantity, Points: p.Points}
	}
	return s.Mail.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: driver.Email,
		Subject: "Your order " + orderID.String(),
		Body:    fmt.Sprintf("Hello %s,\n\nThank you for your order. Your receipt is attached.\nRemaining balance with %s: %d points.", driver.FirstName, sponsorName, balance),
		Receipt: &infra.OrderReceipt{
			OrderID:     orderID.String(),
			DriverName:  driver.FullName(),
			SponsorName: sponsorName,
			PurchasedAt: at,
			Lines:       lines,
			TotalPoints: total,
			Balance:     balance,
		},
	})
}

func (s *ledgerService) Balances(ctx context.Context, driverCode uint) ([]dto.BalanceResponse, error) {
	assocs, err := s.Associations.ListByDriver(ctx, driverCode)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.BalanceResponse, len(assocs))
	for i, a := range assocs {
		resp[i] = dto.BalanceResponse{SponsorCode: a.SponsorCode, Points: a.Points}
		if a.Sponsor != nil && a.Sponsor.Sponsor != nil {
			resp[i].OrgName = a.Sponsor.Sponsor.OrgName
		}
	}
	return resp, nil
}

func (s *ledgerService) SponsorDrivers(ctx context.Context, sponsorCode uint) ([]dto.SponsorDriverResponse, error) {
	assocs, err := s.Associations.ListBySponsor(ctx, sponsorCode)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SponsorDriverResponse, 0, len(assocs))
	for _, a := range assocs {
		r := dto.SponsorDriverResponse{DriverCode: a.DriverCode, Points: a.Points}
		if a.Driver != nil {
			r.Username = a.Driver.Username
			r.Name = a.Driver.FullName()
			r.Email = a.Driver.Email
		}
		resp = append(resp, r)
	}
	return resp, nil
}
