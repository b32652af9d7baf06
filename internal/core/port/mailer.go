package port

import "context"

// Mailer dispatches a single outbound email. Delivery is fire-and-forget
// from the caller's perspective; a non-nil error means the message was not
// accepted for delivery.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
