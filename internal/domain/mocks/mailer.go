package mocks

import "context"

// SentMail records a single delivery through the mock mailer.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// Mailer is a mock implementation of ports.Mailer.
type Mailer struct {
	Err  error
	Sent []SentMail
}

// Send records the message or returns the configured error.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}
