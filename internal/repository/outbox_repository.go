package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

// OutboxRepository defines the interface for outbox data access
type OutboxRepository interface {
	// Create inserts an outbox message. Bound to a transaction it commits with the change it describes.
	Create(ctx context.Context, msg *domain.OutboxMessage) error

	// GetPending returns pending messages oldest first, skipping rows locked by another relay
	GetPending(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)

	// GetRetryable returns failed messages that still have retries left
	GetRetryable(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)

	// GetExhausted returns failed messages with no retries left
	GetExhausted(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)

	// MarkPublished marks a message as successfully published
	MarkPublished(ctx context.Context, id string) error

	// MarkFailed records a failed publish attempt
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// MarkDeadLettered marks a message as moved to the dead-letter topic
	MarkDeadLettered(ctx context.Context, id string) error

	// DeletePublishedBefore removes published messages older than cutoff
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
