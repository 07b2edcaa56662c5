package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/metrics"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// BookingService defines the interface for the booking lifecycle
type BookingService interface {
	// CreateBooking reserves rng on a listing for a renter at the current day prices
	CreateBooking(ctx context.Context, renterID, listingID string, rng domain.DateRange) (*domain.Booking, error)

	// CancelBooking releases the booking's days and marks it CANCELED
	CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error)

	// SweepExpiredBookings moves UPCOMING bookings that ended before today to PAST
	SweepExpiredBookings(ctx context.Context, today time.Time) (int64, error)

	// ReviewBooking attaches review text and an optional rating; the last write wins
	ReviewBooking(ctx context.Context, bookingID, text string, rating *int) (*domain.Booking, error)

	// GetBooking retrieves a booking by ID
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)

	// ListRenterBookings lists a renter's bookings; an empty status lists all
	ListRenterBookings(ctx context.Context, renterID string, status domain.BookingStatus) ([]*domain.Booking, error)

	// ListHostBookings lists bookings on a host's listings; an empty status lists all
	ListHostBookings(ctx context.Context, hostID string, status domain.BookingStatus) ([]*domain.Booking, error)
}

// BookingServiceConfig contains configuration for booking service
type BookingServiceConfig struct {
	MaxRangeDays int
	EventsTopic  string
}

// bookingService implements BookingService
type bookingService struct {
	store        repository.Store
	txManager    repository.TxManager
	locker       repository.ListingLocker
	events       eventRecorder
	maxRangeDays int
}

// NewBookingService creates a new booking service
func NewBookingService(
	store repository.Store,
	txManager repository.TxManager,
	locker repository.ListingLocker,
	cfg *BookingServiceConfig,
) BookingService {
	maxDays := DefaultMaxRangeDays
	topic := ""
	if cfg != nil {
		if cfg.MaxRangeDays > 0 {
			maxDays = cfg.MaxRangeDays
		}
		topic = cfg.EventsTopic
	}
	if locker == nil {
		locker = repository.NewNoOpListingLocker()
	}
	return &bookingService{
		store:        store,
		txManager:    txManager,
		locker:       locker,
		events:       newEventRecorder(topic),
		maxRangeDays: maxDays,
	}
}

// failureReason maps an error to the metrics reason label
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRangeUnavailable):
		return "range_unavailable"
	case errors.Is(err, domain.ErrCostComputationFailed):
		return "cost_computation_failed"
	case errors.Is(err, domain.ErrListingBusy):
		return "listing_busy"
	case domain.IsNotFoundError(err):
		return "not_found"
	case errors.Is(err, domain.ErrListingInactive), errors.Is(err, domain.ErrAccountInactive):
		return "inactive"
	case domain.IsValidationError(err):
		return "invalid_request"
	}
	return "internal"
}

// CreateBooking checks, prices and reserves the range in one transaction under the listing lock
func (s *bookingService) CreateBooking(ctx context.Context, renterID, listingID string, rng domain.DateRange) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.create")
	defer span.End()

	if strings.TrimSpace(renterID) == "" {
		span.SetStatus(codes.Error, "invalid renter_id")
		return nil, domain.ErrInvalidRenterID
	}
	if err := validateRange(span, listingID, rng, s.maxRangeDays); err != nil {
		metrics.RecordBookingFailure(ctx, failureReason(err))
		return nil, err
	}
	span.SetAttributes(attribute.String("renter_id", renterID))

	var booking *domain.Booking
	err := withListingLock(ctx, s.locker, listingID, func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			if _, err := requireActiveListing(ctx, tx, listingID); err != nil {
				return err
			}
			renter, err := tx.Accounts().LockAccount(ctx, renterID)
			if err != nil {
				return err
			}
			if !renter.IsActive() {
				return domain.ErrAccountInactive
			}

			days, err := tx.Calendar().LockRange(ctx, listingID, rng.Start, rng.End)
			if err != nil {
				return err
			}
			available := 0
			for _, day := range days {
				if day.IsAvailable() {
					available++
				}
			}
			if available != rng.Days() {
				return domain.ErrRangeUnavailable
			}

			cost, err := tx.Calendar().SumPrice(ctx, listingID, rng.Start, rng.End)
			if err != nil {
				if errors.Is(err, domain.ErrIncompleteCoverage) {
					return domain.ErrCostComputationFailed
				}
				return err
			}

			if err := rng.Each(func(date time.Time) error {
				return tx.Calendar().SetStatus(ctx, listingID, date, domain.DayStatusBooked)
			}); err != nil {
				return err
			}

			booking = domain.NewBooking(uuid.New().String(), renterID, listingID, rng, cost)
			if err := tx.Bookings().Create(ctx, booking); err != nil {
				return err
			}

			return s.events.booking(ctx, tx, domain.BookingEventCreated, booking)
		})
	})
	if err != nil {
		metrics.RecordBookingFailure(ctx, failureReason(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordBookingCreated(ctx, listingID, rng.Days())
	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.Float64("cost", booking.Cost),
	)
	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// releaseAndCancel frees the days of an UPCOMING booking and marks it CANCELED
func releaseAndCancel(ctx context.Context, tx repository.Store, events eventRecorder, booking *domain.Booking) error {
	if err := booking.Range().Each(func(date time.Time) error {
		return tx.Calendar().SetStatus(ctx, booking.ListingID, date, domain.DayStatusAvailable)
	}); err != nil {
		return err
	}

	if err := tx.Bookings().UpdateStatus(ctx, booking.ID, domain.BookingStatusCanceled); err != nil {
		return err
	}
	if err := booking.Cancel(); err != nil {
		return err
	}

	return events.booking(ctx, tx, domain.BookingEventCancelled, booking)
}

// CancelBooking cancels an UPCOMING booking. A CANCELED booking is returned unchanged.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.cancel")
	defer span.End()

	if strings.TrimSpace(bookingID) == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}
	span.SetAttributes(attribute.String("booking_id", bookingID))

	current, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if current.IsCanceled() {
		span.SetStatus(codes.Ok, "already canceled")
		return current, nil
	}

	var booking *domain.Booking
	changed := false
	err = withListingLock(ctx, s.locker, current.ListingID, func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			b, err := tx.Bookings().GetByIDForUpdate(ctx, bookingID)
			if err != nil {
				return err
			}
			booking = b

			if b.IsCanceled() {
				return nil
			}
			if !b.CanCancel() {
				return domain.ErrBookingNotCancelable
			}

			changed = true
			return releaseAndCancel(ctx, tx, s.events, b)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if changed {
		metrics.RecordBookingCancelled(ctx, "renter", 1)
	}
	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// SweepExpiredBookings completes expired bookings in a single statement
func (s *bookingService) SweepExpiredBookings(ctx context.Context, today time.Time) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.sweep_expired")
	defer span.End()

	today = domain.Date(today)
	span.SetAttributes(attribute.String("today", today.Format(domain.DateLayout)))

	var completed int64
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		bookings, err := tx.Bookings().CompleteExpired(ctx, today)
		if err != nil {
			return err
		}

		for _, b := range bookings {
			if err := s.events.booking(ctx, tx, domain.BookingEventCompleted, b); err != nil {
				return err
			}
		}
		completed = int64(len(bookings))
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	metrics.RecordBookingsCompleted(ctx, completed)
	span.SetAttributes(attribute.Int64("completed", completed))
	span.SetStatus(codes.Ok, "")
	return completed, nil
}

// ReviewBooking stores review text and rating on any booking
func (s *bookingService) ReviewBooking(ctx context.Context, bookingID, text string, rating *int) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.review")
	defer span.End()

	if strings.TrimSpace(bookingID) == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}
	if err := domain.ValidateReview(text, rating); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("booking_id", bookingID))
	if rating != nil {
		span.SetAttributes(attribute.Int("rating", *rating))
	}

	var booking *domain.Booking
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		b, err := tx.Bookings().GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := tx.Bookings().SetReview(ctx, bookingID, text, rating); err != nil {
			return err
		}
		if err := b.SetReview(text, rating); err != nil {
			return err
		}
		booking = b

		return s.events.booking(ctx, tx, domain.BookingEventReviewed, b)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordReview(ctx, rating)
	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// GetBooking retrieves a booking by ID
func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.get")
	defer span.End()

	if strings.TrimSpace(bookingID) == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}

	booking, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// ListRenterBookings lists a renter's bookings
func (s *bookingService) ListRenterBookings(ctx context.Context, renterID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.list_renter")
	defer span.End()

	if strings.TrimSpace(renterID) == "" {
		span.SetStatus(codes.Error, "invalid renter_id")
		return nil, domain.ErrInvalidRenterID
	}
	if _, err := s.store.Accounts().GetAccount(ctx, renterID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	bookings, err := s.store.Bookings().ListByRenter(ctx, renterID, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(bookings)))
	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

// ListHostBookings lists bookings on a host's listings
func (s *bookingService) ListHostBookings(ctx context.Context, hostID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.list_host")
	defer span.End()

	if strings.TrimSpace(hostID) == "" {
		span.SetStatus(codes.Error, "invalid host_id")
		return nil, domain.ErrInvalidHostID
	}
	if _, err := s.store.Accounts().GetAccount(ctx, hostID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	bookings, err := s.store.Bookings().ListByHost(ctx, hostID, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(bookings)))
	span.SetStatus(codes.Ok, "")
	return bookings, nil
}
