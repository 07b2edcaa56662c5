package domain

import (
	"time"
)

// BookingEventType identifies a domain event emitted by the engine
type BookingEventType string

const (
	BookingEventCreated   BookingEventType = "booking.created"
	BookingEventCancelled BookingEventType = "booking.cancelled"
	BookingEventCompleted BookingEventType = "booking.completed"
	BookingEventReviewed  BookingEventType = "booking.reviewed"

	AvailabilityEventOffered   BookingEventType = "availability.offered"
	AvailabilityEventRetracted BookingEventType = "availability.retracted"
	AvailabilityEventRepriced  BookingEventType = "availability.repriced"

	ListingEventRemoved     BookingEventType = "listing.removed"
	AccountEventDeactivated BookingEventType = "account.deactivated"
)

// AggregateType returns the aggregate an event type belongs to
func (t BookingEventType) AggregateType() string {
	switch t {
	case AvailabilityEventOffered, AvailabilityEventRetracted, AvailabilityEventRepriced:
		return "calendar"
	case ListingEventRemoved:
		return "listing"
	case AccountEventDeactivated:
		return "account"
	}
	return "booking"
}

// RangeChange describes a bulk calendar operation in an event payload
type RangeChange struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Price    *float64 `json:"price,omitempty"`
	Affected int      `json:"affected"`
}

// BookingEvent is the payload published for every state change
type BookingEvent struct {
	EventID    string           `json:"event_id"`
	EventType  BookingEventType `json:"event_type"`
	ListingID  string           `json:"listing_id,omitempty"`
	AccountID  string           `json:"account_id,omitempty"`
	Booking    *Booking         `json:"booking,omitempty"`
	Range      *RangeChange     `json:"range,omitempty"`
	Count      int              `json:"count,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewBookingEvent creates an event carrying a booking snapshot
func NewBookingEvent(eventType BookingEventType, booking *Booking, eventID string) *BookingEvent {
	return &BookingEvent{
		EventID:    eventID,
		EventType:  eventType,
		ListingID:  booking.ListingID,
		AccountID:  booking.RenterID,
		Booking:    booking,
		OccurredAt: time.Now().UTC(),
	}
}

// NewRangeEvent creates an event describing a bulk calendar change
func NewRangeEvent(eventType BookingEventType, listingID string, rng DateRange, price *float64, affected int, eventID string) *BookingEvent {
	return &BookingEvent{
		EventID:   eventID,
		EventType: eventType,
		ListingID: listingID,
		Range: &RangeChange{
			Start:    rng.Start.Format(DateLayout),
			End:      rng.End.Format(DateLayout),
			Price:    price,
			Affected: affected,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewCascadeEvent creates an event for a listing removal or account deactivation
func NewCascadeEvent(eventType BookingEventType, listingID, accountID string, cancelled int, eventID string) *BookingEvent {
	return &BookingEvent{
		EventID:    eventID,
		EventType:  eventType,
		ListingID:  listingID,
		AccountID:  accountID,
		Count:      cancelled,
		OccurredAt: time.Now().UTC(),
	}
}

// Key returns the partition key: events of one listing stay ordered
func (e *BookingEvent) Key() string {
	if e.ListingID != "" {
		return e.ListingID
	}
	return e.AccountID
}
