package infra

import (
	"fmt"
	"net/smtp"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/config"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

// Mailer sends plain-text emails with optional file attachments. When no SMTP
// host is configured messages are written to the log instead.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Enabled reports whether real SMTP delivery is configured.
func (m *Mailer) Enabled() bool { return m.host != "" }

func (m *Mailer) Send(to, subject, body string, attachments ...string) error {
	if !m.Enabled() {
		log.Info().
			Str("to", to).
			Str("subject", subject).
			Int("attachments", len(attachments)).
			Msg("mailer: smtp disabled, email logged only")
		return nil
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	for _, path := range attachments {
		if path == "" {
			continue
		}
		if _, err := e.AttachFile(path); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", path, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return e.Send(m.addr, auth)
}
