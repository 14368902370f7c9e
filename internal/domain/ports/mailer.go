package ports

import "context"

// Mailer defines the interface for sending notification emails.
type Mailer interface {
	// Send delivers a rendered message to a single recipient.
	Send(ctx context.Context, to, subject, body string) error
}
