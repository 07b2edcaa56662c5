package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

// CalendarRepository is the per-listing, per-day calendar store
type CalendarRepository interface {
	// GetRange returns the existing days of [start, end] in ascending order.
	// Dates with no record are absent from the result.
	GetRange(ctx context.Context, listingID string, start, end time.Time) ([]*domain.Day, error)

	// LockRange is GetRange with row locks held until the surrounding transaction ends
	LockRange(ctx context.Context, listingID string, start, end time.Time) ([]*domain.Day, error)

	// HasAnyWithStatusInRange reports whether any day in range has one of the statuses
	HasAnyWithStatusInRange(ctx context.Context, listingID string, start, end time.Time, statuses ...domain.DayStatus) (bool, error)

	// CountWithStatusInRange counts the days in range with the given status
	CountWithStatusInRange(ctx context.Context, listingID string, start, end time.Time, status domain.DayStatus) (int, error)

	// HasBookingOverlap reports whether a non-canceled booking overlaps the range
	HasBookingOverlap(ctx context.Context, listingID string, start, end time.Time) (bool, error)

	// SetStatus updates the status of a single day
	SetStatus(ctx context.Context, listingID string, day time.Time, status domain.DayStatus) error

	// SetPrice updates the price of a single day
	SetPrice(ctx context.Context, listingID string, day time.Time, price float64) error

	// Insert creates a single day
	Insert(ctx context.Context, day *domain.Day) error

	// SumPrice sums the price of every day in range. It returns
	// domain.ErrIncompleteCoverage unless every date has a record.
	SumPrice(ctx context.Context, listingID string, start, end time.Time) (float64, error)
}
