package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	Recipient string
}

func (c SMTPConfig) complete() bool {
	return c.Host != "" && c.Port > 0 && c.User != "" && c.Password != "" && c.Recipient != ""
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP mails inquiries to a fixed recipient. smtp.SendMail upgrades the
// connection with STARTTLS when the server offers it.
type SMTP struct {
	cfg  SMTPConfig
	log  zerolog.Logger
	send sendFunc
	now  func() time.Time
}

// NewSMTP creates an SMTP notifier.
func NewSMTP(cfg SMTPConfig, log zerolog.Logger) *SMTP {
	return &SMTP{cfg: cfg, log: log, send: smtp.SendMail, now: time.Now}
}

// Notify sends one inquiry mail.
func (s *SMTP) Notify(ctx context.Context, subject, body, sender string) error {
	if !s.cfg.complete() {
		s.log.Error().Msg("SMTP settings are incomplete")
		return domain.ErrNotifierNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.message(subject, body, sender)
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	if err := s.send(addr, auth, s.cfg.User, []string{s.cfg.Recipient}, msg); err != nil {
		s.log.Error().Err(err).Str("host", s.cfg.Host).Msg("Failed to send inquiry mail")
		return errors.Wrap(err, "SMTP.Notify: send mail")
	}

	s.log.Info().Str("subject", subject).Msg("Inquiry mail sent")
	return nil
}

// message renders the mail. A sender that is not a bare email address is
// dropped so it cannot reach the headers.
func (s *SMTP) message(subject, body, sender string) []byte {
	if sender != "" && !domain.IsEmail(sender) {
		s.log.Warn().Msg("Dropping malformed inquiry sender")
		sender = ""
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.User)
	fmt.Fprintf(&b, "To: %s\r\n", s.cfg.Recipient)
	if sender != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", sender)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", SubjectPrefix+" "+subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(FormatBody(subject, body, sender))
	return b.Bytes()
}
