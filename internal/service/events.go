package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/repository"
)

// DefaultEventsTopic is used when no topic is configured
const DefaultEventsTopic = "rental.booking-events"

// eventRecorder writes domain events to the outbox of the current transaction
type eventRecorder struct {
	topic string
}

func newEventRecorder(topic string) eventRecorder {
	if topic == "" {
		topic = DefaultEventsTopic
	}
	return eventRecorder{topic: topic}
}

func (r eventRecorder) record(ctx context.Context, s repository.Store, event *domain.BookingEvent) error {
	msg, err := domain.NewOutboxMessage(event, r.topic)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}
	return s.Outbox().Create(ctx, msg)
}

func (r eventRecorder) booking(ctx context.Context, s repository.Store, eventType domain.BookingEventType, booking *domain.Booking) error {
	return r.record(ctx, s, domain.NewBookingEvent(eventType, booking, uuid.New().String()))
}
