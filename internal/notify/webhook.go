package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

const (
	webhookTimeout  = 10 * time.Second
	webhookRetryMax = 3
)

type webhookPayload struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Email   string    `json:"email,omitempty"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sent_at"`
}

// Webhook posts inquiries as JSON to a URL, retrying transient failures.
type Webhook struct {
	url    string
	client *retryablehttp.Client
	log    zerolog.Logger
}

// NewWebhook creates a webhook notifier.
func NewWebhook(url string, log zerolog.Logger) *Webhook {
	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Timeout: webhookTimeout}
	client.RetryMax = webhookRetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = &retryLogger{log: log}
	return &Webhook{url: url, client: client, log: log}
}

// Notify posts one inquiry.
func (w *Webhook) Notify(ctx context.Context, subject, body, sender string) error {
	if w.url == "" {
		return domain.ErrNotifierNotConfigured
	}

	payload, err := json.Marshal(webhookPayload{
		Subject: subject,
		Body:    body,
		Email:   sender,
		Text:    SubjectPrefix + " " + subject + "\n\n" + FormatBody(subject, body, sender),
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "Webhook.Notify: marshal payload")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "Webhook.Notify: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Error().Err(err).Msg("Inquiry webhook failed")
		return errors.Wrap(err, "Webhook.Notify: post")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.Error().Int("status", resp.StatusCode).Msg("Inquiry webhook rejected")
		return fmt.Errorf("Webhook.Notify: unexpected status %d", resp.StatusCode)
	}

	w.log.Info().Str("subject", subject).Msg("Inquiry posted to webhook")
	return nil
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}
