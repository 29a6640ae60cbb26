package integration

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html"

	mail "github.com/go-mail/mail/v2"
	"github.com/rs/zerolog"
)

var ErrMailerNotConfigured = errors.New("smtp not configured (smtp.host/smtp.from)")

type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	From          string
	SkipTLSVerify bool
}

type smtpMailer struct {
	cfg    SMTPConfig
	logger zerolog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger zerolog.Logger) Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &smtpMailer{cfg: cfg, logger: logger}
}

func (m *smtpMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	if m.cfg.Host == "" || m.cfg.From == "" {
		return ErrMailerNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := mail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         m.cfg.Host,
		InsecureSkipVerify: m.cfg.SkipTLSVerify,
	}

	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Debug().Strs("to", to).Str("subject", subject).Msg("Mail sent")
	return nil
}

// RenderMail wraps a notification message into a minimal HTML mail.
func RenderMail(recipientName, message string) string {
	name := html.EscapeString(recipientName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		`<html><body style="font-family:sans-serif"><p>Hello %s,</p><p>%s</p><p>-- PFE platform</p></body></html>`,
		name, html.EscapeString(message),
	)
}
