package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/metrics"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/internal/service"
	"github.com/prohmpiriya/rental-booking/pkg/logger"
	"github.com/prohmpiriya/rental-booking/pkg/retry"
)

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polling for pending messages
	PollInterval time.Duration
	// BatchSize is the number of messages to fetch in each poll
	BatchSize int
	// RetryInterval is the interval between retrying failed messages
	RetryInterval time.Duration
	// CleanupInterval is the interval between cleanup of old published messages
	CleanupInterval time.Duration
	// Retention is how long published messages are kept
	Retention time.Duration
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:    500 * time.Millisecond,
		BatchSize:       100,
		RetryInterval:   5 * time.Second,
		CleanupInterval: 1 * time.Hour,
		Retention:       7 * 24 * time.Hour,
	}
}

// OutboxWorker relays outbox rows to the broker. Each batch runs in one
// transaction so the fetched rows stay locked against other relays until
// their status is written. Delivery is at-least-once.
type OutboxWorker struct {
	txManager repository.TxManager
	publisher service.EventPublisher
	dlq       retry.DLQPublisher
	config    *OutboxWorkerConfig
	log       *logger.Logger
	now       func() time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool

	published    int64
	failed       int64
	deadLettered int64
	cleaned      int64
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(
	txManager repository.TxManager,
	publisher service.EventPublisher,
	dlq retry.DLQPublisher,
	config *OutboxWorkerConfig,
) *OutboxWorker {
	if config == nil {
		config = DefaultOutboxWorkerConfig()
	}
	if dlq == nil {
		dlq = retry.NewNoOpDLQPublisher()
	}

	return &OutboxWorker{
		txManager: txManager,
		publisher: publisher,
		dlq:       dlq,
		config:    config,
		log:       logger.Get().With(zap.String("worker", "outbox")),
		now:       func() time.Time { return time.Now().UTC() },
		stopCh:    make(chan struct{}),
	}
}

// Start starts the outbox worker
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting outbox worker",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(3)
	go w.every(ctx, w.config.PollInterval, w.ProcessPending)
	go w.every(ctx, w.config.RetryInterval, func(ctx context.Context) {
		w.ProcessRetryable(ctx)
		w.ProcessExhausted(ctx)
	})
	go w.every(ctx, w.config.CleanupInterval, w.Cleanup)

	return nil
}

// Stop stops the outbox worker
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping outbox worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Outbox worker stopped")
}

func (w *OutboxWorker) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	defer w.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// ProcessPending publishes one batch of pending messages
func (w *OutboxWorker) ProcessPending(ctx context.Context) {
	w.relay(ctx, "pending", func(ctx context.Context, s repository.Store) ([]*domain.OutboxMessage, error) {
		return s.Outbox().GetPending(ctx, w.config.BatchSize)
	})
}

// ProcessRetryable republishes one batch of failed messages with retries left
func (w *OutboxWorker) ProcessRetryable(ctx context.Context) {
	w.relay(ctx, "retryable", func(ctx context.Context, s repository.Store) ([]*domain.OutboxMessage, error) {
		return s.Outbox().GetRetryable(ctx, w.config.BatchSize)
	})
}

func (w *OutboxWorker) relay(
	ctx context.Context,
	kind string,
	fetch func(context.Context, repository.Store) ([]*domain.OutboxMessage, error),
) {
	err := w.txManager.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		messages, err := fetch(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to get %s messages: %w", kind, err)
		}

		for _, msg := range messages {
			if err := w.publisher.Publish(ctx, msg); err != nil {
				w.recordFailed(ctx, msg)
				w.log.Warn("Failed to publish outbox message",
					zap.String("message_id", msg.ID),
					zap.String("event_type", msg.EventType),
					zap.Int("attempt", msg.RetryCount+1),
					zap.Int("max_retries", msg.MaxRetries),
					zap.Error(err),
				)
				if markErr := s.Outbox().MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
					w.log.Error("Failed to mark message as failed", zap.String("message_id", msg.ID), zap.Error(markErr))
				}
				continue
			}

			w.recordPublished(ctx, msg)
			if markErr := s.Outbox().MarkPublished(ctx, msg.ID); markErr != nil {
				w.log.Error("Failed to mark message as published", zap.String("message_id", msg.ID), zap.Error(markErr))
			}
		}
		return nil
	})
	if err != nil {
		w.log.Error("Outbox relay failed", zap.String("kind", kind), zap.Error(err))
	}
}

// ProcessExhausted moves failed messages with no retries left to the dead-letter topic
func (w *OutboxWorker) ProcessExhausted(ctx context.Context) {
	err := w.txManager.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		messages, err := s.Outbox().GetExhausted(ctx, w.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to get exhausted messages: %w", err)
		}

		for _, msg := range messages {
			if err := w.dlq.PublishToDLQ(ctx, toDLQMessage(msg, w.now())); err != nil {
				w.log.Error("Failed to publish to DLQ",
					zap.String("message_id", msg.ID),
					zap.String("dlq_topic", w.dlq.GetDLQTopic(msg.Topic)),
					zap.Error(err),
				)
				continue
			}

			if err := s.Outbox().MarkDeadLettered(ctx, msg.ID); err != nil {
				w.log.Error("Failed to mark message as dead-lettered", zap.String("message_id", msg.ID), zap.Error(err))
				continue
			}

			w.mu.Lock()
			w.deadLettered++
			w.mu.Unlock()
			metrics.RecordOutboxDeadLettered(ctx, msg.EventType)
			w.log.Warn("Moved outbox message to DLQ",
				zap.String("message_id", msg.ID),
				zap.String("event_type", msg.EventType),
				zap.Int("attempts", msg.RetryCount),
			)
		}
		return nil
	})
	if err != nil {
		w.log.Error("Dead-letter pass failed", zap.Error(err))
	}
}

// Cleanup deletes published messages older than the retention window
func (w *OutboxWorker) Cleanup(ctx context.Context) {
	err := w.txManager.WithinTx(ctx, func(ctx context.Context, s repository.Store) error {
		deleted, err := s.Outbox().DeletePublishedBefore(ctx, w.now().Add(-w.config.Retention))
		if err != nil {
			return err
		}
		if deleted > 0 {
			w.mu.Lock()
			w.cleaned += deleted
			w.mu.Unlock()
			w.log.Info(fmt.Sprintf("Cleaned up %d old published messages", deleted))
		}
		return nil
	})
	if err != nil {
		w.log.Error("Failed to cleanup old messages", zap.Error(err))
	}
}

func (w *OutboxWorker) recordPublished(ctx context.Context, msg *domain.OutboxMessage) {
	w.mu.Lock()
	w.published++
	w.mu.Unlock()
	metrics.RecordOutboxPublished(ctx, msg.EventType)
}

func (w *OutboxWorker) recordFailed(ctx context.Context, msg *domain.OutboxMessage) {
	w.mu.Lock()
	w.failed++
	w.mu.Unlock()
	metrics.RecordOutboxFailed(ctx, msg.EventType)
}

func toDLQMessage(msg *domain.OutboxMessage, now time.Time) *retry.DLQMessage {
	last := now
	if msg.ProcessedAt != nil {
		last = *msg.ProcessedAt
	}

	payload := json.RawMessage(msg.Payload)
	if !json.Valid(payload) {
		payload, _ = json.Marshal(string(msg.Payload))
	}

	return &retry.DLQMessage{
		ID:             msg.ID,
		OriginalTopic:  msg.Topic,
		OriginalKey:    msg.PartitionKey,
		Payload:        payload,
		Headers:        msg.Headers(),
		Error:          msg.LastError,
		Attempts:       msg.RetryCount,
		FirstAttemptAt: msg.CreatedAt,
		LastAttemptAt:  last,
	}
}

// GetStats returns worker statistics
func (w *OutboxWorker) GetStats() *OutboxWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &OutboxWorkerStats{
		IsRunning:    w.running,
		Published:    w.published,
		Failed:       w.failed,
		DeadLettered: w.deadLettered,
		Cleaned:      w.cleaned,
	}
}

// OutboxWorkerStats contains worker statistics
type OutboxWorkerStats struct {
	IsRunning    bool  `json:"is_running"`
	Published    int64 `json:"published"`
	Failed       int64 `json:"failed"`
	DeadLettered int64 `json:"dead_lettered"`
	Cleaned      int64 `json:"cleaned"`
}
