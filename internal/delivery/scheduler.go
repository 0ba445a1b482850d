package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snapbrief/snapbrief/internal/domain"
)

// SchedulerConfig contains scheduler configuration.
type SchedulerConfig struct {
	// TickInterval is both the poll cadence and the due window passed to
	// the schedule check, so each firing is seen by exactly one tick.
	TickInterval    time.Duration
	MaxAttempts     int
	StuckAfter      time.Duration
	SentRetention   time.Duration
	CleanupInterval time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TickInterval:    time.Minute,
		MaxAttempts:     3,
		StuckAfter:      10 * time.Minute,
		SentRetention:   7 * 24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

// Scheduler enqueues briefings for subscriptions whose schedule fires.
type Scheduler struct {
	config SchedulerConfig
	repo   Repository
	source SubscriptionSource

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a briefing scheduler.
func NewScheduler(config SchedulerConfig, repo Repository, source SubscriptionSource) *Scheduler {
	return &Scheduler{
		config: config,
		repo:   repo,
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start launches the scheduling and cleanup loops.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("starting briefing scheduler",
		"tick_interval", s.config.TickInterval,
		"max_attempts", s.config.MaxAttempts,
	)

	s.wg.Add(2)
	go s.runTicks(ctx)
	go s.runCleanup(ctx)
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	slog.Info("briefing scheduler stopped")
}

func (s *Scheduler) runTicks(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Tick(ctx, time.Now())
		}
	}
}

// Tick enqueues a briefing for every subscription due at the given instant.
// The dedupe key makes ticks idempotent per subscription and local date.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	subs, err := s.source.ListDue(ctx)
	if err != nil {
		slog.Error("failed to list due subscriptions", "error", err)
		return
	}

	enqueued := 0
	for i := range subs {
		sub := &subs[i]

		due, err := IsDueAt(sub.Schedule, now, s.config.TickInterval)
		if err != nil {
			slog.Warn("skipping subscription with invalid schedule",
				"subscription_id", sub.ID,
				"error", err,
			)
			continue
		}
		if !due {
			continue
		}

		if err := s.enqueue(ctx, sub, now); err != nil {
			if errors.Is(err, ErrAlreadyEnqueued) {
				continue
			}
			slog.Error("failed to enqueue briefing",
				"subscription_id", sub.ID,
				"error", err,
			)
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		recordEnqueued(enqueued)
		slog.Info("briefings enqueued", "count", enqueued)
	}
}

func (s *Scheduler) enqueue(ctx context.Context, sub *domain.Subscription, now time.Time) error {
	localDate, err := LocalDate(sub.Schedule, now)
	if err != nil {
		return fmt.Errorf("local date: %w", err)
	}

	item := &QueueItem{
		ID:             uuid.NewString(),
		SubscriptionID: sub.ID,
		DedupeKey:      fmt.Sprintf("%s:%s", sub.ID, localDate),
		Payload: BriefingPayload{
			SubscriptionID: sub.ID,
			Name:           sub.Name,
			Topics:         sub.Topics,
			Companies:      sub.Companies,
			LocalDate:      localDate,
			GeneratedAt:    now.UTC(),
		},
		Status:        QueueStatusPending,
		MaxAttempts:   s.config.MaxAttempts,
		NextAttemptAt: now,
	}

	return s.repo.Enqueue(ctx, item)
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *Scheduler) cleanup(ctx context.Context) {
	recovered, err := s.repo.RecoverStuckProcessing(ctx, s.config.StuckAfter)
	if err != nil {
		slog.Error("failed to recover stuck items", "error", err)
	} else if recovered > 0 {
		slog.Warn("recovered stuck queue items", "count", recovered)
	}

	deleted, err := s.repo.DeleteOldSentItems(ctx, s.config.SentRetention)
	if err != nil {
		slog.Error("failed to delete old sent items", "error", err)
	} else if deleted > 0 {
		slog.Debug("deleted old sent queue items", "count", deleted)
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		slog.Error("failed to read queue stats", "error", err)
		return
	}
	RecordQueueStats(stats)
}
