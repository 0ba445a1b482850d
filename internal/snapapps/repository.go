// Package snapapps manages shareable AI-generated content cards.
package snapapps

import (
	"context"

	"github.com/snapbrief/snapbrief/internal/domain"
)

// Repository defines the interface for snap app data access.
type Repository interface {
	Create(ctx context.Context, app *domain.SnapApp) error
	GetBySlug(ctx context.Context, slug string) (*domain.SnapApp, error)
	// IncrementViews bumps the view counter atomically and returns the new value.
	IncrementViews(ctx context.Context, slug string) (int64, error)
	// IncrementShares bumps the share counter atomically and returns the new value.
	IncrementShares(ctx context.Context, slug string) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]domain.SnapApp, error)
	Delete(ctx context.Context, slug string) (bool, error)
}
