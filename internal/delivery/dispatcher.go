package delivery

import (
	"context"
	"fmt"

	"github.com/snapbrief/snapbrief/internal/domain"
)

// Sender delivers a rendered briefing over one delivery method.
type Sender interface {
	Method() domain.DeliveryMethod
	Send(ctx context.Context, d Delivery) error
}

// Dispatcher routes a briefing to the sender for the subscription's
// delivery method.
type Dispatcher struct {
	senders map[domain.DeliveryMethod]Sender
}

// NewDispatcher creates a dispatcher over the given senders.
func NewDispatcher(senders ...Sender) *Dispatcher {
	senderMap := make(map[domain.DeliveryMethod]Sender)
	for _, s := range senders {
		senderMap[s.Method()] = s
	}
	return &Dispatcher{senders: senderMap}
}

// Dispatch resolves the target address for the subscription's delivery
// method and sends the briefing. A missing sender or target is not
// retryable; the subscription will not grow the field by waiting.
func (d *Dispatcher) Dispatch(ctx context.Context, sub *domain.Subscription, delivery Delivery) error {
	sender, ok := d.senders[sub.DeliveryMethod]
	if !ok {
		return NewNonRetryableError(fmt.Errorf("no sender configured for method %q", sub.DeliveryMethod))
	}

	target, err := targetFor(sub)
	if err != nil {
		return NewNonRetryableError(err)
	}
	delivery.To = target

	return sender.Send(ctx, delivery)
}

func targetFor(sub *domain.Subscription) (string, error) {
	switch sub.DeliveryMethod {
	case domain.DeliveryMethodIMessage, domain.DeliveryMethodSMS:
		if sub.Phone == "" {
			return "", fmt.Errorf("subscription has no phone for method %q", sub.DeliveryMethod)
		}
		return sub.Phone, nil
	case domain.DeliveryMethodEmail:
		if sub.Email == "" {
			return "", fmt.Errorf("subscription has no email address")
		}
		return sub.Email, nil
	case domain.DeliveryMethodWebhook:
		if sub.WebhookURL == "" {
			return "", fmt.Errorf("subscription has no webhook url")
		}
		return sub.WebhookURL, nil
	default:
		return "", fmt.Errorf("unknown delivery method %q", sub.DeliveryMethod)
	}
}

// RetryableError wraps an error and marks it as retryable or not.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

// IsRetryable returns whether the error is retryable.
func (e *RetryableError) IsRetryable() bool {
	return e.Retryable
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a retryable error.
func NewRetryableError(err error) *RetryableError {
	return &RetryableError{Err: err, Retryable: true}
}

// NewNonRetryableError creates a non-retryable error.
func NewNonRetryableError(err error) *RetryableError {
	return &RetryableError{Err: err, Retryable: false}
}

// isRetryable checks if an error is retryable. Unknown errors are retried.
func isRetryable(err error) bool {
	type retryable interface {
		IsRetryable() bool
	}
	if r, ok := err.(retryable); ok {
		return r.IsRetryable()
	}
	return true
}
