// Package webhook provides briefing delivery via signed HTTP POSTs.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/snapbrief/snapbrief/internal/delivery"
	"github.com/snapbrief/snapbrief/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second

	// SignatureHeader carries the hex HMAC-SHA256 of the request body,
	// computed with the shared signing secret.
	SignatureHeader = "X-Snapbrief-Signature"
)

// Config holds webhook sender configuration.
// The destination URL is stored per subscription, so global configuration
// is minimal. There is no Enabled flag; the sender is always available.
type Config struct {
	SigningSecret string
	Timeout       time.Duration
}

// Sender delivers briefings as JSON POSTs to subscriber-owned endpoints.
type Sender struct {
	config     Config
	httpClient *http.Client
}

// NewSender creates a new webhook sender.
func NewSender(config Config) *Sender {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &Sender{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Method returns the delivery method.
func (s *Sender) Method() domain.DeliveryMethod {
	return domain.DeliveryMethodWebhook
}

// Send posts the structured briefing payload to the subscription's URL.
// d.To contains the webhook URL.
func (s *Sender) Send(ctx context.Context, d delivery.Delivery) error {
	if d.To == "" {
		return delivery.NewNonRetryableError(fmt.Errorf("webhook url is empty"))
	}

	body, err := json.Marshal(d.Payload)
	if err != nil {
		return delivery.NewNonRetryableError(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.To, bytes.NewReader(body))
	if err != nil {
		return delivery.NewNonRetryableError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.SigningSecret != "" {
		req.Header.Set(SignatureHeader, Sign(s.config.SigningSecret, body))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return delivery.NewRetryableError(fmt.Errorf("send request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	return s.handleResponse(resp, d.To)
}

// Sign computes the hex HMAC-SHA256 signature for a request body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (s *Sender) handleResponse(resp *http.Response, url string) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return delivery.NewRetryableError(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		slog.Debug("webhook briefing delivered", "url", maskURL(url))
		return nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return delivery.NewRetryableError(fmt.Errorf("webhook rate limited"))

	case resp.StatusCode >= 500:
		return delivery.NewRetryableError(fmt.Errorf("webhook server error %d: %s", resp.StatusCode, string(body)))

	default:
		// 4xx other than 429 means the endpoint rejects this payload.
		return delivery.NewNonRetryableError(fmt.Errorf("webhook rejected %d: %s", resp.StatusCode, string(body)))
	}
}

// maskURL hides part of the URL for logging.
func maskURL(url string) string {
	if len(url) > 40 {
		return url[:20] + "..." + url[len(url)-10:]
	}
	return url
}
