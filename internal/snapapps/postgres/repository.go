// Package postgres provides the PostgreSQL implementation of the snap apps
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/snapbrief/snapbrief/internal/snapapps"
)

// Repository implements snapapps.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const snapAppColumns = `id, slug, app_type, title, description, content, view_count, share_count, created_at, updated_at`

// Create persists a new snap app.
func (r *Repository) Create(ctx context.Context, app *domain.SnapApp) error {
	query := `
		INSERT INTO snap_apps (slug, app_type, title, description, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, view_count, share_count, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		app.Slug,
		app.AppType,
		app.Title,
		app.Description,
		app.Content,
	).Scan(&app.ID, &app.ViewCount, &app.ShareCount, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return snapapps.ErrSlugTaken
		}
		return fmt.Errorf("create snap app: %w", err)
	}
	return nil
}

// GetBySlug retrieves a snap app by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.SnapApp, error) {
	query := `SELECT ` + snapAppColumns + ` FROM snap_apps WHERE slug = $1`

	var app domain.SnapApp
	err := r.db.QueryRow(ctx, query, slug).Scan(
		&app.ID,
		&app.Slug,
		&app.AppType,
		&app.Title,
		&app.Description,
		&app.Content,
		&app.ViewCount,
		&app.ShareCount,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, snapapps.ErrNotFound
		}
		return nil, fmt.Errorf("get snap app: %w", err)
	}
	return &app, nil
}

// IncrementViews bumps the view counter in a single statement.
func (r *Repository) IncrementViews(ctx context.Context, slug string) (int64, error) {
	return r.increment(ctx, slug, "view_count")
}

// IncrementShares bumps the share counter in a single statement.
func (r *Repository) IncrementShares(ctx context.Context, slug string) (int64, error) {
	return r.increment(ctx, slug, "share_count")
}

func (r *Repository) increment(ctx context.Context, slug, column string) (int64, error) {
	// column is one of the two fixed counter names above, never caller input.
	query := fmt.Sprintf(`UPDATE snap_apps SET %s = %s + 1 WHERE slug = $1 RETURNING %s`, column, column, column)

	var count int64
	err := r.db.QueryRow(ctx, query, slug).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, snapapps.ErrNotFound
		}
		return 0, fmt.Errorf("increment %s: %w", column, err)
	}
	return count, nil
}

// ListRecent retrieves the most recently created snap apps.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]domain.SnapApp, error) {
	query := `SELECT ` + snapAppColumns + ` FROM snap_apps ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list snap apps: %w", err)
	}
	defer rows.Close()

	apps := make([]domain.SnapApp, 0)
	for rows.Next() {
		var app domain.SnapApp
		err := rows.Scan(
			&app.ID,
			&app.Slug,
			&app.AppType,
			&app.Title,
			&app.Description,
			&app.Content,
			&app.ViewCount,
			&app.ShareCount,
			&app.CreatedAt,
			&app.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snap app: %w", err)
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

// Delete removes a snap app by slug. Returns true if a record was removed.
func (r *Repository) Delete(ctx context.Context, slug string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM snap_apps WHERE slug = $1`, slug)
	if err != nil {
		return false, fmt.Errorf("delete snap app: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
