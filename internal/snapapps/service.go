package snapapps

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/snapbrief/snapbrief/internal/pkg/ctxlog"
	"github.com/snapbrief/snapbrief/internal/pkg/metrics"
)

// maxContentBytes caps the JSON content blob of a snap app.
const maxContentBytes = 64 * 1024

// Service provides snap app business logic.
type Service struct {
	repo Repository
}

// NewService creates a new snap apps service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput contains the fields for a new snap app.
type CreateInput struct {
	Slug        string
	AppType     string
	Title       string
	Description string
	Content     json.RawMessage
}

// Create persists a new snap app. A missing slug is derived from the title
// with a random suffix so repeated titles stay unique.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.SnapApp, error) {
	if len(input.Content) > maxContentBytes {
		return nil, ErrContentTooBig
	}

	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Title) + "-" + uuid.NewString()[:8]
	}

	content := input.Content
	if content == nil {
		content = json.RawMessage(`{}`)
	}

	app := &domain.SnapApp{
		Slug:        slug,
		AppType:     domain.SnapAppType(input.AppType),
		Title:       input.Title,
		Description: input.Description,
		Content:     content,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// View returns a snap app by slug and records the view. A failed counter
// bump does not fail the read; the card is still served.
func (s *Service) View(ctx context.Context, slug string) (*domain.SnapApp, error) {
	app, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	views, err := s.repo.IncrementViews(ctx, slug)
	if err != nil {
		ctxlog.FromContext(ctx).Error("failed to record view", "slug", slug, "error", err)
	} else {
		app.ViewCount = views
	}

	metrics.SnapAppViews.WithLabelValues(string(app.AppType)).Inc()
	return app, nil
}

// Get returns a snap app by slug without touching counters.
func (s *Service) Get(ctx context.Context, slug string) (*domain.SnapApp, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// RecordShare bumps the share counter and returns the new total.
func (s *Service) RecordShare(ctx context.Context, slug string) (int64, error) {
	shares, err := s.repo.IncrementShares(ctx, slug)
	if err != nil {
		return 0, err
	}
	return shares, nil
}

// ListRecent returns the most recently created snap apps.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.SnapApp, error) {
	return s.repo.ListRecent(ctx, limit)
}

// Delete removes a snap app. Admin surface only.
func (s *Service) Delete(ctx context.Context, slug string) error {
	removed, err := s.repo.Delete(ctx, slug)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

// Slugify lowercases the title and collapses runs of non-alphanumerics
// into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "snap"
	}
	return slug
}
