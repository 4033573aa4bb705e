package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/config"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/worker"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	resetTokenBytes      = 48
	DefaultResetTokenTTL = 30 * time.Minute
)

type PasswordResetService interface {
	// IssueToken stores a fresh single-use token for the account, replacing
	// any previous one.
	IssueToken(ctx context.Context, accountCode uint) (string, error)
	// RequestReset issues a token for the account owning email and mails the
	// link. Unknown addresses succeed silently.
	RequestReset(ctx context.Context, email string) error
	// Validate returns the account the token belongs to. An expired token is
	// cleared and reported as ErrExpired.
	Validate(ctx context.Context, token string) (*model.Account, error)
	Consume(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	accounts  repository.AccountRepository
	audit     AuditRecorder
	mail      EmailQueue
	ttl       time.Duration
	publicURL string
	now       func() time.Time
}

func NewPasswordResetService(accounts repository.AccountRepository, audit AuditRecorder, mail EmailQueue, cfg *config.Config, opts ...Option) PasswordResetService {
	o := applyOptions(opts)
	ttl := cfg.ResetTokenTTL
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &passwordResetService{
		accounts:  accounts,
		audit:     audit,
		mail:      mail,
		ttl:       ttl,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		now:       o.now,
	}
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *passwordResetService) IssueToken(ctx context.Context, accountCode uint) (string, error) {
	token, err := newResetToken()
	if err != nil {
		return "", err
	}
	issuedAt := s.now().UTC()
	if err := s.accounts.SaveResetToken(ctx, nil, accountCode, &token, &issuedAt); err != nil {
		return "", err
	}
	return token, nil
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info().Msg("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if !acc.Active {
		return nil
	}

	token, err := s.IssueToken(ctx, acc.Code)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reset-password/%s", s.publicURL, token)
	return s.mail.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: acc.Email,
		Subject: "Password reset request",
		Body: fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires in %d minutes.\n\n%s\n\nIf you did not ask for this, ignore this email.",
			acc.FirstName, int(s.ttl.Minutes()), link),
	})
}

func (s *passwordResetService) Validate(ctx context.Context, token string) (*model.Account, error) {
	if token == "" {
		return nil, notFound("reset token")
	}
	acc, err := s.accounts.FindByResetToken(ctx, token)
	if err != nil {
		return nil, lookupErr(err, "reset token")
	}
	if acc.ResetTokenIssuedAt == nil || s.now().Sub(*acc.ResetTokenIssuedAt) > s.ttl {
		if err := s.accounts.SaveResetToken(ctx, nil, acc.Code, nil, nil); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("reset token %w", ErrExpired)
	}
	return acc, nil
}

// Consume re-reads the token under a row lock and clears it with a
// conditional update, so two requests racing on one token cannot both succeed.
func (s *passwordResetService) Consume(ctx context.Context, token, newPassword string) error {
	if _, err := s.Validate(ctx, token); err != nil {
		return err
	}
	if err := validateNewPassword("new_password", newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return runTx(ctx, s.accounts.DB(), func(tx *gorm.DB) error {
		acc, err := s.accounts.FindByResetTokenForUpdate(ctx, tx, token)
		if err != nil {
			return lookupErr(err, "reset token")
		}
		if acc.ResetTokenIssuedAt == nil || s.now().Sub(*acc.ResetTokenIssuedAt) > s.ttl {
			return fmt.Errorf("reset token %w", ErrExpired)
		}
		taken, err := s.accounts.TakeResetToken(ctx, tx, acc.Code, token)
		if err != nil {
			return err
		}
		if !taken {
			return notFound("reset token")
		}
		if err := s.accounts.UpdatePassword(ctx, tx, acc.Code, hash); err != nil {
			return err
		}
		if err := s.accounts.SaveLockout(ctx, tx, acc.Code, acc.Lockout.Clear()); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, AuditEntry{
			EventType: model.EventPasswordReset,
			Details:   fmt.Sprintf("password reset completed for %s", acc.Username),
		})
	})
}
