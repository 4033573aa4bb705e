package worker

// email_worker.go
// Sends queued emails: password reset links, notification copies and order
// confirmations. Order confirmations carry a receipt that is rendered to PDF
// here so the request path never touches the filesystem.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"

	"github.com/rs/zerolog/log"
)

const emailMaxAttempts = 3

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string              `json:"to_email"`
	Subject string              `json:"subject"`
	Body    string              `json:"body"`
	Receipt *infra.OrderReceipt `json:"receipt,omitempty"`
}

// MailSender is satisfied by *infra.Mailer.
type MailSender interface {
	Send(to, subject, body string, attachments ...string) error
}

type EmailWorker struct {
	mailer      MailSender
	storagePath string
}

func NewEmailWorker(mailer MailSender, receiptStoragePath string) *EmailWorker {
	return &EmailWorker{mailer: mailer, storagePath: receiptStoragePath}
}

// Process renders the receipt if present and sends the message, retrying the
// SMTP call with backoff.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.ToEmail == "" {
		log.Warn().Str("subject", payload.Subject).Msg("email_worker: empty to_email, skipping")
		return nil
	}

	var attachments []string
	if payload.Receipt != nil {
		path, err := infra.GenerateOrderReceiptPDF(*payload.Receipt, w.storagePath)
		if err != nil {
			return err
		}
		attachments = append(attachments, path)
	}

	err := withRetry(ctx, emailMaxAttempts, func(int) error {
		return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, attachments...)
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: sent")
	return nil
}

var errNoAttempts = errors.New("no attempts made")

// withRetry calls fn up to maxAttempts times, waiting 1s, 2s, ... between tries.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	lastErr := errNoAttempts
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * retryUnit
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if lastErr = fn(i); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// retryUnit is shortened in tests.
var retryUnit = time.Second
