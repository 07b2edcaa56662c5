package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

// BookingRepository defines the interface for booking data access
type BookingRepository interface {
	// Create inserts a new booking
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by its ID
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByIDForUpdate retrieves a booking and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error)

	// UpdateStatus sets the status of a booking
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error

	// SetReview stores review text and rating, replacing earlier values; a nil rating is stored as NULL
	SetReview(ctx context.Context, id string, review string, rating *int) error

	// ListUpcomingByListing returns UPCOMING bookings of a listing, locked for update
	ListUpcomingByListing(ctx context.Context, listingID string) ([]*domain.Booking, error)

	// ListUpcomingByRenter returns UPCOMING bookings of a renter, locked for update
	ListUpcomingByRenter(ctx context.Context, renterID string) ([]*domain.Booking, error)

	// ListByRenter returns a renter's bookings, optionally filtered by status
	ListByRenter(ctx context.Context, renterID string, status domain.BookingStatus) ([]*domain.Booking, error)

	// ListByHost returns bookings on any of a host's listings, optionally filtered by status
	ListByHost(ctx context.Context, hostID string, status domain.BookingStatus) ([]*domain.Booking, error)

	// CompleteExpired moves every UPCOMING booking that ended before today to PAST
	// and returns the transitioned bookings
	CompleteExpired(ctx context.Context, today time.Time) ([]*domain.Booking, error)
}
