// Package messages provides briefing delivery to phones via an
// iMessage/SMS gateway service.
package messages

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/snapbrief/snapbrief/internal/delivery"
	"github.com/snapbrief/snapbrief/internal/domain"
	"golang.org/x/time/rate"
)

const defaultTimeout = 10 * time.Second

// Config holds message gateway configuration.
type Config struct {
	Enabled bool
	// GatewayURL is the send endpoint of the message gateway.
	GatewayURL string
	APIKey     string
	// RateLimit is the max messages per second sent to the gateway.
	RateLimit float64
	Timeout   time.Duration
}

// Sender delivers briefings as iMessage or SMS through an HTTP gateway.
// One Sender instance serves exactly one of the two methods; the gateway
// request carries the service to use.
type Sender struct {
	method     domain.DeliveryMethod
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSender creates a message sender for the given method.
// Returns error if the method is not a phone method, or if enabled but
// required config is missing.
func NewSender(method domain.DeliveryMethod, config Config) (*Sender, error) {
	if method != domain.DeliveryMethodIMessage && method != domain.DeliveryMethodSMS {
		return nil, fmt.Errorf("messages sender: unsupported method %q", method)
	}
	if config.Enabled && config.GatewayURL == "" {
		return nil, errors.New("messages sender: gateway url is required when enabled")
	}

	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 10
	}

	slog.Info("message sender configured",
		"method", method,
		"enabled", config.Enabled,
		"rate_limit", config.RateLimit,
	)

	return &Sender{
		method:     method,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

// Method returns the delivery method.
func (s *Sender) Method() domain.DeliveryMethod {
	return s.method
}

type gatewayRequest struct {
	Service string `json:"service"`
	To      string `json:"to"`
	Body    string `json:"body"`
}

// Send delivers one message through the gateway. d.To contains the
// normalized phone number.
func (s *Sender) Send(ctx context.Context, d delivery.Delivery) error {
	if !s.config.Enabled {
		slog.Debug("message sender disabled, skipping", "method", s.method, "to", d.To)
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return delivery.NewRetryableError(fmt.Errorf("rate limiter: %w", err))
	}

	body, err := json.Marshal(gatewayRequest{
		Service: string(s.method),
		To:      d.To,
		Body:    d.Body,
	})
	if err != nil {
		return delivery.NewNonRetryableError(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return delivery.NewNonRetryableError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return delivery.NewRetryableError(fmt.Errorf("send request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	return s.handleResponse(resp)
}

func (s *Sender) handleResponse(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return delivery.NewRetryableError(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return delivery.NewRetryableError(fmt.Errorf("gateway rate limited"))

	case resp.StatusCode >= 500:
		return delivery.NewRetryableError(fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(body)))

	default:
		return delivery.NewNonRetryableError(fmt.Errorf("gateway rejected %d: %s", resp.StatusCode, string(body)))
	}
}
