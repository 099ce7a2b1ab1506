package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// Sender delivers email messages. Implementations must be safe for
// concurrent use; callers treat delivery as best-effort.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
