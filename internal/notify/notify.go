// Package notify delivers user inquiries by email or to a webhook.
package notify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/config"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

// SubjectPrefix marks inquiry mails in the recipient's inbox.
const SubjectPrefix = "[Spending Patterns inquiry]"

// Inquiry is a message submitted by a user.
type Inquiry struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required,max=10000"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
}

// FromConfig returns the webhook notifier when a webhook URL is set and the
// SMTP notifier otherwise.
func FromConfig(cfg config.Config, log zerolog.Logger) domain.Notifier {
	if cfg.InquiryWebhookURL != "" {
		return NewWebhook(cfg.InquiryWebhookURL, log)
	}
	return NewSMTP(SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		User:      cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		Recipient: cfg.InquiryRecipient,
	}, log)
}

// FormatBody renders the plain-text inquiry body.
func FormatBody(subject, body, sender string) string {
	if sender == "" {
		sender = "(not provided)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Reply to: %s\n", sender)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	return b.String()
}
