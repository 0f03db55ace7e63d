package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"homeline/internal/infrastructure/config"
)

// FCM request constants.
const (
	fcmRequestTimeout = 10 * time.Second

	// retryMaxElapsed bounds the backoff retries for one token. Push
	// notifications are best-effort; a token that keeps failing is not
	// worth more than a few seconds.
	retryMaxElapsed = 5 * time.Second
)

// Logger defines the logging interface used by the sender.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// fcmMessage is the legacy HTTP API request body.
type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sender delivers push notifications through the FCM legacy HTTP API.
//
// Delivery is strictly best-effort: a missing server key, an invalid
// token or an FCM outage is logged and reported per token, never
// escalated. Nothing in the system waits on a notification.
type Sender struct {
	cfg    config.NotificationsConfig
	tokens TokenRepository
	client *http.Client
	logger Logger
}

// NewSender creates an FCM sender.
func NewSender(cfg config.NotificationsConfig, tokens TokenRepository) *Sender {
	return &Sender{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: fcmRequestTimeout},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the sender.
func (s *Sender) SetLogger(logger Logger) {
	s.logger = logger
}

// SetHTTPClient replaces the HTTP client. Tests point it at a local server.
func (s *Sender) SetHTTPClient(client *http.Client) {
	s.client = client
}

// NotifyUser sends a notification to every token registered for a user.
//
// Returns the per-token outcome (nil for delivered). The returned error
// covers only the cases where no delivery was attempted at all: notifications
// unconfigured, or the token lookup failed.
func (s *Sender) NotifyUser(ctx context.Context, userID int64, title, body string, data map[string]string) (map[string]error, error) {
	if s.cfg.ServerKey == "" {
		s.logger.Warn("push notification skipped: no FCM server key configured",
			"user_id", userID,
			"title", title,
		)
		return nil, nil
	}

	tokens, err := s.tokens.TokensFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading tokens for user %d: %w", userID, err)
	}
	if len(tokens) == 0 {
		s.logger.Debug("push notification skipped: user has no tokens", "user_id", userID)
		return nil, nil
	}

	outcomes := make(map[string]error, len(tokens))
	for _, token := range tokens {
		sendErr := s.sendWithRetry(ctx, token, title, body, data)
		outcomes[token] = sendErr
		if sendErr != nil {
			s.logger.Warn("push notification delivery failed",
				"user_id", userID,
				"error", sendErr,
			)
		}
	}

	return outcomes, nil
}

// sendWithRetry delivers to one token with bounded exponential backoff.
func (s *Sender) sendWithRetry(ctx context.Context, token, title, body string, data map[string]string) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = retryMaxElapsed

	operation := func() error {
		return s.send(ctx, token, title, body, data)
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

func (s *Sender) send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := fcmMessage{
		To: token,
		Notification: fcmNotification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshalling fcm message: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("building fcm request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.cfg.ServerKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to fcm: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		// Server-side trouble is worth a retry.
		return fmt.Errorf("fcm returned status %d", resp.StatusCode)
	default:
		// 4xx means the request itself is bad (key, token); retrying
		// the same request cannot help.
		return backoff.Permanent(fmt.Errorf("fcm rejected request with status %d", resp.StatusCode))
	}
}
