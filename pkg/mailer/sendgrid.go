package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/greensteps/greensteps-api/pkg/config"
)

// SendgridSender delivers mail through the SendGrid v3 API.
type SendgridSender struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjectTag string
}

// NewSendgridSender constructs a sender from mail configuration.
func NewSendgridSender(cfg config.MailConfig) *SendgridSender {
	return &SendgridSender{
		client:     sendgrid.NewSendClient(cfg.SendgridKey),
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjectTag: cfg.SubjectTag,
	}
}

// Send delivers a single message.
func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	subject := msg.Subject
	if s.subjectTag != "" {
		subject = s.subjectTag + " " + subject
	}

	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	html := msg.HTMLBody
	if html == "" {
		html = msg.TextBody
	}
	m := sgmail.NewSingleEmail(s.from, subject, to, msg.TextBody, html)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
