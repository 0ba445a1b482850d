package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snapbrief/snapbrief/internal/domain"
)

// WorkerConfig contains worker configuration.
type WorkerConfig struct {
	BatchSize         int
	PollInterval      time.Duration
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	NumWorkers        int
}

// DefaultWorkerConfig returns default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:         100,
		PollInterval:      5 * time.Second,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        5 * time.Minute,
		BackoffMultiplier: 2.0,
		NumWorkers:        5,
	}
}

// Worker drains the briefing queue: renders, sends and records outcomes.
type Worker struct {
	config     WorkerConfig
	repo       Repository
	source     SubscriptionSource
	dispatcher *Dispatcher
	renderer   *Renderer

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWorker creates a briefing delivery worker.
func NewWorker(config WorkerConfig, repo Repository, source SubscriptionSource, dispatcher *Dispatcher, renderer *Renderer) *Worker {
	return &Worker{
		config:     config,
		repo:       repo,
		source:     source,
		dispatcher: dispatcher,
		renderer:   renderer,
		stopCh:     make(chan struct{}),
	}
}

// Start launches worker goroutines.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("starting delivery worker",
		"workers", w.config.NumWorkers,
		"batch_size", w.config.BatchSize,
		"poll_interval", w.config.PollInterval,
	)

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	slog.Info("delivery worker stopped")
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processBatch(ctx, workerID)
		}
	}
}

func (w *Worker) processBatch(ctx context.Context, workerID int) {
	items, err := w.repo.FetchPending(ctx, w.config.BatchSize)
	if err != nil {
		slog.Error("failed to fetch pending briefings", "worker", workerID, "error", err)
		return
	}

	if len(items) == 0 {
		return
	}

	slog.Debug("processing briefings", "worker", workerID, "count", len(items))
	recordQueueFetched(len(items))

	for _, item := range items {
		w.processItem(ctx, item)
	}
}

func (w *Worker) processItem(ctx context.Context, item *QueueItem) {
	start := time.Now()

	sub, err := w.source.GetByID(ctx, item.SubscriptionID)
	if err != nil {
		w.fail(ctx, item, "unknown", fmt.Errorf("load subscription: %w", err))
		return
	}

	// The subscription may have been paused between enqueue and send.
	if !sub.IsActive {
		w.fail(ctx, item, string(sub.DeliveryMethod), fmt.Errorf("subscription is inactive"))
		return
	}

	subject, body, err := w.renderer.Render(sub.DeliveryMethod, item.Payload)
	if err != nil {
		w.fail(ctx, item, string(sub.DeliveryMethod), fmt.Errorf("render briefing: %w", err))
		return
	}

	delivery := Delivery{
		Subject: subject,
		Body:    body,
		Payload: item.Payload,
	}

	err = w.dispatcher.Dispatch(ctx, sub, delivery)
	duration := time.Since(start)

	if err != nil {
		w.handleSendError(ctx, item, sub.DeliveryMethod, err)
		return
	}

	if err := w.repo.MarkSent(ctx, item.ID); err != nil {
		slog.Error("failed to mark as sent", "item_id", item.ID, "error", err)
	}
	w.recordHistory(ctx, item, sub.DeliveryMethod, domain.DeliveryStatusSent, "")

	recordDeliverySent(string(sub.DeliveryMethod), "success")
	recordDeliveryDuration(string(sub.DeliveryMethod), duration)

	slog.Debug("briefing sent",
		"item_id", item.ID,
		"subscription_id", item.SubscriptionID,
		"method", sub.DeliveryMethod,
		"duration", duration,
	)
}

func (w *Worker) handleSendError(ctx context.Context, item *QueueItem, method domain.DeliveryMethod, err error) {
	slog.Warn("send failed",
		"item_id", item.ID,
		"attempt", item.Attempts+1,
		"max_attempts", item.MaxAttempts,
		"error", err,
	)

	if !isRetryable(err) || item.Attempts+1 >= item.MaxAttempts {
		w.fail(ctx, item, string(method), err)
		return
	}

	nextAttempt := w.calculateNextAttempt(item.Attempts + 1)
	if markErr := w.repo.MarkForRetry(ctx, item.ID, err, nextAttempt); markErr != nil {
		slog.Error("failed to mark for retry", "item_id", item.ID, "error", markErr)
	}
	recordDeliverySent(string(method), "retry")

	slog.Info("briefing scheduled for retry",
		"item_id", item.ID,
		"next_attempt", nextAttempt,
	)
}

// fail marks the item failed and writes a terminal history record.
func (w *Worker) fail(ctx context.Context, item *QueueItem, method string, err error) {
	if markErr := w.repo.MarkFailed(ctx, item.ID, err); markErr != nil {
		slog.Error("failed to mark as failed", "item_id", item.ID, "error", markErr)
	}
	w.recordHistory(ctx, item, domain.DeliveryMethod(method), domain.DeliveryStatusFailed, err.Error())
	recordDeliverySent(method, "failed")
}

func (w *Worker) recordHistory(ctx context.Context, item *QueueItem, method domain.DeliveryMethod, status domain.DeliveryStatus, errMsg string) {
	rec := &domain.DeliveryRecord{
		ID:             uuid.NewString(),
		SubscriptionID: item.SubscriptionID,
		Method:         method,
		Status:         status,
		Attempts:       item.Attempts + 1,
		Error:          errMsg,
		DeliveredAt:    time.Now().UTC(),
	}
	if err := w.repo.RecordDelivery(ctx, rec); err != nil {
		slog.Error("failed to record delivery history", "item_id", item.ID, "error", err)
	}
}

func (w *Worker) calculateNextAttempt(attempt int) time.Time {
	backoff := float64(w.config.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= w.config.BackoffMultiplier
	}

	if backoff > float64(w.config.MaxBackoff) {
		backoff = float64(w.config.MaxBackoff)
	}

	return time.Now().Add(time.Duration(backoff))
}
