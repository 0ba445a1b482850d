// Package delivery schedules, renders and sends briefings, and keeps the
// per-subscription delivery history.
package delivery

import (
	"context"
	"time"

	"github.com/snapbrief/snapbrief/internal/domain"
)

// Repository defines the interface for delivery queue and history access.
type Repository interface {
	// Queue
	Enqueue(ctx context.Context, item *QueueItem) error
	// FetchPending atomically claims up to limit due pending items,
	// moving them to processing.
	FetchPending(ctx context.Context, limit int) ([]*QueueItem, error)
	GetItem(ctx context.Context, id string) (*QueueItem, error)
	MarkSent(ctx context.Context, id string) error
	MarkForRetry(ctx context.Context, id string, sendErr error, nextAttempt time.Time) error
	MarkFailed(ctx context.Context, id string, sendErr error) error
	RetryFailedItem(ctx context.Context, id string) error
	RecoverStuckProcessing(ctx context.Context, olderThan time.Duration) (int64, error)
	DeleteOldSentItems(ctx context.Context, olderThan time.Duration) (int64, error)
	Stats(ctx context.Context) (*QueueStats, error)

	// History
	RecordDelivery(ctx context.Context, rec *domain.DeliveryRecord) error
	ListDeliveries(ctx context.Context, subscriptionID string, limit int) ([]domain.DeliveryRecord, error)
}

// SubscriptionSource supplies the scheduler and worker with subscriptions.
type SubscriptionSource interface {
	// ListDue returns active subscriptions whose schedule is enabled.
	ListDue(ctx context.Context) ([]domain.Subscription, error)
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)
}
