// Package subscriptions provides briefing subscription management.
package subscriptions

import (
	"context"

	"github.com/snapbrief/snapbrief/internal/domain"
)

// Repository defines the interface for subscription data access.
// The repository is the sole writer of record; the service only constructs
// and narrows candidates before handoff.
type Repository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)
	Update(ctx context.Context, id string, fields UpdateFields) (*domain.Subscription, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Subscription, error)
}
