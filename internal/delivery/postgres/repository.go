// Package postgres provides PostgreSQL implementation of the delivery
// queue and history repository.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/snapbrief/snapbrief/internal/delivery"
	"github.com/snapbrief/snapbrief/internal/domain"
)

const uniqueViolation = "23505"

// Repository implements delivery.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const queueColumns = `id, subscription_id, dedupe_key, payload, status, attempts, max_attempts,
	next_attempt_at, last_error, created_at, updated_at, sent_at`

// Enqueue inserts a queue item. A dedupe key collision means a briefing
// for that subscription and local date already exists.
func (r *Repository) Enqueue(ctx context.Context, item *delivery.QueueItem) error {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO delivery_queue (id, subscription_id, dedupe_key, payload, status, max_attempts, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query,
		item.ID,
		item.SubscriptionID,
		item.DedupeKey,
		payload,
		item.Status,
		item.MaxAttempts,
		item.NextAttemptAt,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return delivery.ErrAlreadyEnqueued
		}
		return fmt.Errorf("enqueue briefing: %w", err)
	}
	return nil
}

// FetchPending claims up to limit due pending items, moving them to
// processing. FOR UPDATE SKIP LOCKED keeps concurrent workers from
// claiming the same rows.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]*delivery.QueueItem, error) {
	query := `
		UPDATE delivery_queue
		SET status = 'processing', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM delivery_queue
			WHERE status = 'pending' AND next_attempt_at <= NOW()
			ORDER BY next_attempt_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + queueColumns

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending: %w", err)
	}
	defer rows.Close()

	items := make([]*delivery.QueueItem, 0)
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// GetItem retrieves a queue item by ID.
func (r *Repository) GetItem(ctx context.Context, id string) (*delivery.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM delivery_queue WHERE id = $1`

	item, err := scanQueueItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, delivery.ErrItemNotFound
		}
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// MarkSent marks a queue item as sent.
func (r *Repository) MarkSent(ctx context.Context, id string) error {
	query := `
		UPDATE delivery_queue
		SET status = 'sent', attempts = attempts + 1, last_error = '', sent_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return delivery.ErrItemNotFound
	}
	return nil
}

// MarkForRetry returns a queue item to pending with a future attempt time.
func (r *Repository) MarkForRetry(ctx context.Context, id string, sendErr error, nextAttempt time.Time) error {
	query := `
		UPDATE delivery_queue
		SET status = 'pending', attempts = attempts + 1, last_error = $2, next_attempt_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, sendErr.Error(), nextAttempt)
	if err != nil {
		return fmt.Errorf("mark for retry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return delivery.ErrItemNotFound
	}
	return nil
}

// MarkFailed marks a queue item as terminally failed.
func (r *Repository) MarkFailed(ctx context.Context, id string, sendErr error) error {
	query := `
		UPDATE delivery_queue
		SET status = 'failed', attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query, id, sendErr.Error())
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return delivery.ErrItemNotFound
	}
	return nil
}

// RetryFailedItem requeues a failed item with a fresh attempt budget.
func (r *Repository) RetryFailedItem(ctx context.Context, id string) error {
	query := `
		UPDATE delivery_queue
		SET status = 'pending', attempts = 0, last_error = '', next_attempt_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'failed'
	`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("retry failed item: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Either missing or not failed; distinguish for the handler.
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM delivery_queue WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check queue item: %w", err)
		}
		if !exists {
			return delivery.ErrItemNotFound
		}
		return delivery.ErrNotRetryable
	}
	return nil
}

// RecoverStuckProcessing returns items stuck in processing to pending.
func (r *Repository) RecoverStuckProcessing(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE delivery_queue
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'processing' AND updated_at < NOW() - $1::interval
	`
	result, err := r.db.Exec(ctx, query, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("recover stuck items: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteOldSentItems removes sent items older than the retention window.
func (r *Repository) DeleteOldSentItems(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM delivery_queue WHERE status = 'sent' AND sent_at < NOW() - $1::interval`
	result, err := r.db.Exec(ctx, query, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("delete old sent items: %w", err)
	}
	return result.RowsAffected(), nil
}

// Stats returns the queue census by status.
func (r *Repository) Stats(ctx context.Context) (*delivery.QueueStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM delivery_queue
	`
	var stats delivery.QueueStats
	err := r.db.QueryRow(ctx, query).Scan(&stats.Pending, &stats.Processing, &stats.Sent, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return &stats, nil
}

// RecordDelivery appends a delivery history record.
func (r *Repository) RecordDelivery(ctx context.Context, rec *domain.DeliveryRecord) error {
	query := `
		INSERT INTO delivery_history (id, subscription_id, method, status, attempts, error, delivered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.SubscriptionID,
		rec.Method,
		rec.Status,
		rec.Attempts,
		rec.Error,
		rec.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// ListDeliveries returns a subscription's delivery history, newest first.
func (r *Repository) ListDeliveries(ctx context.Context, subscriptionID string, limit int) ([]domain.DeliveryRecord, error) {
	query := `
		SELECT id, subscription_id, method, status, attempts, error, delivered_at
		FROM delivery_history
		WHERE subscription_id = $1
		ORDER BY delivered_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, subscriptionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	records := make([]domain.DeliveryRecord, 0)
	for rows.Next() {
		var rec domain.DeliveryRecord
		err := rows.Scan(
			&rec.ID,
			&rec.SubscriptionID,
			&rec.Method,
			&rec.Status,
			&rec.Attempts,
			&rec.Error,
			&rec.DeliveredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan delivery record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(row rowScanner) (*delivery.QueueItem, error) {
	var (
		item    delivery.QueueItem
		payload []byte
	)
	err := row.Scan(
		&item.ID,
		&item.SubscriptionID,
		&item.DedupeKey,
		&payload,
		&item.Status,
		&item.Attempts,
		&item.MaxAttempts,
		&item.NextAttemptAt,
		&item.LastError,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.SentAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &item.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &item, nil
}
