package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// Mailer delivers one message. Implementations must not retry; retries are
// the worker's job.
type Mailer interface {
	Deliver(ctx context.Context, recipient, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
	log    zerolog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, log zerolog.Logger) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, log: log.With().Str("component", "smtp_mailer").Logger()}
	if cfg.Enabled() {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

// Deliver sends an HTML message. It returns ErrNotConfigured without
// dialing when SMTP settings are missing.
func (m *SMTPMailer) Deliver(ctx context.Context, recipient, subject, body string) error {
	if m.dialer == nil {
		m.log.Warn().Str("to", recipient).Msg("email config missing, skip notification")
		return ErrNotConfigured
	}
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("to", recipient).Str("subject", subject).Msg("email sent")
	return nil
}
