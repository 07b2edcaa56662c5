package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

func TestNoOpEventPublisher(t *testing.T) {
	p := NewNoOpEventPublisher()
	assert.NoError(t, p.Publish(context.Background(), &domain.OutboxMessage{ID: "1"}))
	assert.NoError(t, p.Close())
}

func TestNewKafkaEventPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaEventPublisher(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewKafkaEventPublisher(context.Background(), &EventPublisherConfig{})
	assert.Error(t, err)
}

func TestPublishHeaders(t *testing.T) {
	booking := domain.NewBooking("b-1", testRenter, testListing, domain.MustDateRange("2024-01-01", "2024-01-02"), 200)
	msg, err := domain.NewOutboxMessage(domain.NewBookingEvent(domain.BookingEventCreated, booking, "evt-1"), "test.events")
	require.NoError(t, err)

	headers := publishHeaders(msg, "rental-booking")
	assert.Equal(t, "evt-1", headers["event_id"])
	assert.Equal(t, "booking.created", headers["event_type"])
	assert.Equal(t, "booking", headers["aggregate_type"])
	assert.Equal(t, "b-1", headers["aggregate_id"])
	assert.Equal(t, "rental-booking", headers["source"])
	assert.NotEmpty(t, headers["published_at"])
	assert.Equal(t, testListing, msg.PartitionKey)
}

func TestEventRecorder_WritesToOutbox(t *testing.T) {
	store := newMemoryStore()
	recorder := newEventRecorder("")

	event := domain.NewRangeEvent(domain.AvailabilityEventRetracted, testListing, domain.MustDateRange("2024-01-01", "2024-01-03"), nil, 3, "evt-2")
	require.NoError(t, recorder.record(context.Background(), store, event))

	require.Len(t, store.outbox, 1)
	msg := store.outbox[0]
	assert.Equal(t, DefaultEventsTopic, msg.Topic)
	assert.Equal(t, "calendar", msg.AggregateType)
	assert.Equal(t, domain.OutboxStatusPending, msg.Status)

	var payload domain.BookingEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, 3, payload.Range.Affected)
	assert.Equal(t, "2024-01-01", payload.Range.Start)
}
