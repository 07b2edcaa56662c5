package domain

import (
	"encoding/json"
	"time"
)

// DefaultOutboxMaxRetries is how many publish attempts a message gets before it is dead-lettered
const DefaultOutboxMaxRetries = 5

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending      OutboxStatus = "pending"
	OutboxStatusPublished    OutboxStatus = "published"
	OutboxStatusFailed       OutboxStatus = "failed"
	OutboxStatusDeadLettered OutboxStatus = "dead_lettered"
)

// IsValid checks if the status is a valid OutboxStatus
func (s OutboxStatus) IsValid() bool {
	switch s {
	case OutboxStatusPending, OutboxStatusPublished, OutboxStatusFailed, OutboxStatusDeadLettered:
		return true
	}
	return false
}

// String returns the string representation of OutboxStatus
func (s OutboxStatus) String() string {
	return string(s)
}

// OutboxMessage is an event row written in the same transaction as the change it describes
type OutboxMessage struct {
	ID            string       `json:"id"`
	AggregateType string       `json:"aggregate_type"`
	AggregateID   string       `json:"aggregate_id"`
	EventType     string       `json:"event_type"`
	Payload       []byte       `json:"payload"`
	Topic         string       `json:"topic"`
	PartitionKey  string       `json:"partition_key"`
	Status        OutboxStatus `json:"status"`
	RetryCount    int          `json:"retry_count"`
	MaxRetries    int          `json:"max_retries"`
	LastError     string       `json:"last_error,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ProcessedAt   *time.Time   `json:"processed_at,omitempty"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
}

// NewOutboxMessage wraps an event for the given topic
func NewOutboxMessage(event *BookingEvent, topic string) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	aggregateID := event.Key()
	if event.Booking != nil {
		aggregateID = event.Booking.ID
	}

	return &OutboxMessage{
		ID:            event.EventID,
		AggregateType: event.EventType.AggregateType(),
		AggregateID:   aggregateID,
		EventType:     string(event.EventType),
		Payload:       payload,
		Topic:         topic,
		PartitionKey:  event.Key(),
		Status:        OutboxStatusPending,
		MaxRetries:    DefaultOutboxMaxRetries,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// CanRetry checks if the message can be retried
func (m *OutboxMessage) CanRetry() bool {
	return m.Status == OutboxStatusFailed && m.RetryCount < m.MaxRetries
}

// ShouldDeadLetter reports whether the message has used up its retries
func (m *OutboxMessage) ShouldDeadLetter() bool {
	return m.Status == OutboxStatusFailed && m.RetryCount >= m.MaxRetries
}

// MarkAsPublished marks the message as successfully published
func (m *OutboxMessage) MarkAsPublished() {
	now := time.Now().UTC()
	m.Status = OutboxStatusPublished
	m.PublishedAt = &now
	m.ProcessedAt = &now
}

// MarkAsFailed records a failed publish attempt
func (m *OutboxMessage) MarkAsFailed(reason string) {
	now := time.Now().UTC()
	m.Status = OutboxStatusFailed
	m.LastError = reason
	m.RetryCount++
	m.ProcessedAt = &now
}

// Headers returns the transport headers for the message
func (m *OutboxMessage) Headers() map[string]string {
	return map[string]string{
		"event_id":       m.ID,
		"event_type":     m.EventType,
		"aggregate_type": m.AggregateType,
		"aggregate_id":   m.AggregateID,
		"content_type":   "application/json",
	}
}
