// Package postgres provides the PostgreSQL implementation of the
// subscriptions repository.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/snapbrief/snapbrief/internal/domain"
	"github.com/snapbrief/snapbrief/internal/subscriptions"
)

// Repository implements subscriptions.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const subscriptionColumns = `id, user_id, name, email, phone, topics, companies, schedule, delivery_method, webhook_url, is_active, created_at, updated_at`

// Create persists a candidate subscription, assigning identity and timestamps.
func (r *Repository) Create(ctx context.Context, sub *domain.Subscription) error {
	schedule, err := json.Marshal(sub.Schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	query := `
		INSERT INTO subscriptions (user_id, name, email, phone, topics, companies, schedule, delivery_method, webhook_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		sub.UserID,
		sub.Name,
		sub.Email,
		sub.Phone,
		sub.Topics,
		sub.Companies,
		schedule,
		sub.DeliveryMethod,
		sub.WebhookURL,
		sub.IsActive,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

// GetByID retrieves a subscription by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subscriptions.ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// Update applies the narrowed field set. Only supplied fields appear in the
// SET clause; absent fields are never touched.
func (r *Repository) Update(ctx context.Context, id string, fields subscriptions.UpdateFields) (*domain.Subscription, error) {
	set := make([]string, 0, 10)
	args := make([]interface{}, 0, 10)
	args = append(args, id)

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Name != nil {
		add("name", *fields.Name)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.Phone != nil {
		add("phone", *fields.Phone)
	}
	if fields.Topics != nil {
		add("topics", *fields.Topics)
	}
	if fields.Companies != nil {
		add("companies", *fields.Companies)
	}
	if fields.Schedule != nil {
		schedule, err := json.Marshal(*fields.Schedule)
		if err != nil {
			return nil, fmt.Errorf("marshal schedule: %w", err)
		}
		add("schedule", schedule)
	}
	if fields.DeliveryMethod != nil {
		add("delivery_method", *fields.DeliveryMethod)
	}
	if fields.WebhookURL != nil {
		add("webhook_url", *fields.WebhookURL)
	}
	if fields.IsActive != nil {
		add("is_active", *fields.IsActive)
	}

	if len(set) == 0 {
		return nil, subscriptions.ErrNoFieldsToUpdate
	}

	query := "UPDATE subscriptions SET " + strings.Join(set, ", ") + ", updated_at = NOW() WHERE id = $1 RETURNING " + subscriptionColumns

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subscriptions.ErrNotFound
		}
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return sub, nil
}

// Delete removes a subscription. Returns true if a record was removed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListByUser retrieves all subscriptions for a derived user id.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// ListAll retrieves a page of all subscriptions ordered by creation time.
func (r *Repository) ListAll(ctx context.Context, limit, offset int) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

// ListDue returns active, schedule-enabled subscriptions for the scheduler.
func (r *Repository) ListDue(ctx context.Context) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE is_active AND (schedule->>'enabled')::bool ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list due subscriptions: %w", err)
	}
	defer rows.Close()

	return collectSubscriptions(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var sub domain.Subscription
	var schedule []byte

	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Name,
		&sub.Email,
		&sub.Phone,
		&sub.Topics,
		&sub.Companies,
		&schedule,
		&sub.DeliveryMethod,
		&sub.WebhookURL,
		&sub.IsActive,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(schedule, &sub.Schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	return &sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]domain.Subscription, error) {
	subs := make([]domain.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}
