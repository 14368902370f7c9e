// Package smtp provides a Mailer implementation over plain SMTP.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
)

// Mailer implements the Mailer interface using net/smtp.
type Mailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewMailer creates a new SMTP mailer.
func NewMailer(cfg config.SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	port := cfg.Port
	if port == 0 {
		port = 25
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Mailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, port),
		from: cfg.From,
		auth: auth,
	}, nil
}

// Send delivers a rendered message to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
