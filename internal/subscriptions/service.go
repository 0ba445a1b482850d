package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/snapbrief/snapbrief/internal/domain"
)

// Service provides subscription business logic.
type Service struct {
	repo Repository
}

// NewService creates a new subscriptions service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateResult is the outcome of a successful create: the persisted record
// plus a human-readable confirmation naming the resolved delivery time.
type CreateResult struct {
	Subscription *domain.Subscription `json:"subscription"`
	Message      string               `json:"message"`
}

// Create validates and normalizes the candidate, then persists it.
// Validation failures are reported before any storage contact.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	sub, err := ValidateAndNormalize(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	return &CreateResult{
		Subscription: sub,
		Message: fmt.Sprintf("You're all set, %s! Your briefing arrives at %s %s.",
			sub.Name, sub.Schedule.Time, sub.Schedule.Timezone),
	}, nil
}

// Get returns a subscription by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

// Update narrows the partial payload to the allow-listed field set and
// forwards it to storage. The subscription must exist; not-found is a
// distinct outcome from a malformed payload.
func (s *Service) Update(ctx context.Context, id string, payload map[string]json.RawMessage) (*domain.Subscription, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	fields, err := FilterUpdate(payload)
	if err != nil {
		return nil, err
	}
	if fields.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}

	return s.repo.Update(ctx, id, fields)
}

// Delete removes a subscription. Returns ErrNotFound if nothing was removed.
func (s *Service) Delete(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns all subscriptions belonging to a derived user id.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll returns a page of all subscriptions. Admin surface only.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]domain.Subscription, error) {
	return s.repo.ListAll(ctx, limit, offset)
}
