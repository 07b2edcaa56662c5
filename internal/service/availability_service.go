package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/metrics"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// DefaultMaxRangeDays bounds the length of any range operation
const DefaultMaxRangeDays = 366

// AvailabilityService decides range availability and applies bulk calendar changes
type AvailabilityService interface {
	// IsFullyAvailable reports whether every day of rng exists and is AVAILABLE
	IsFullyAvailable(ctx context.Context, listingID string, rng domain.DateRange) (bool, error)

	// QuoteCost returns the price of booking rng right now
	QuoteCost(ctx context.Context, listingID string, rng domain.DateRange) (float64, error)

	// GetRange returns the existing calendar days of rng
	GetRange(ctx context.Context, listingID string, rng domain.DateRange) ([]*domain.Day, error)

	// OfferAvailability makes every day of rng AVAILABLE at price, leaving
	// days that are already offered or booked untouched. Returns the number
	// of days created or reactivated.
	OfferAvailability(ctx context.Context, listingID string, rng domain.DateRange, price float64) (int, error)

	// RetractAvailability makes the offered days of rng UNAVAILABLE.
	// Fails with ErrBookingConflict if an active booking overlaps rng.
	RetractAvailability(ctx context.Context, listingID string, rng domain.DateRange) (int, error)

	// RepriceAvailability sets price on the offered days of rng
	RepriceAvailability(ctx context.Context, listingID string, rng domain.DateRange, price float64) (int, error)
}

// AvailabilityServiceConfig contains configuration for availability service
type AvailabilityServiceConfig struct {
	MaxRangeDays int
	EventsTopic  string
}

// availabilityService implements AvailabilityService
type availabilityService struct {
	store        repository.Store
	txManager    repository.TxManager
	locker       repository.ListingLocker
	events       eventRecorder
	maxRangeDays int
}

// NewAvailabilityService creates a new availability service.
// store serves reads outside transactions.
func NewAvailabilityService(
	store repository.Store,
	txManager repository.TxManager,
	locker repository.ListingLocker,
	cfg *AvailabilityServiceConfig,
) AvailabilityService {
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
	return &availabilityService{
		store:        store,
		txManager:    txManager,
		locker:       locker,
		events:       newEventRecorder(topic),
		maxRangeDays: maxDays,
	}
}

// validateRange checks the listing id and range bounds
func validateRange(span trace.Span, listingID string, rng domain.DateRange, maxDays int) error {
	if strings.TrimSpace(listingID) == "" {
		span.SetStatus(codes.Error, "invalid listing_id")
		return domain.ErrInvalidListingID
	}
	if rng.Start.IsZero() || rng.End.IsZero() || rng.Start.After(rng.End) {
		span.SetStatus(codes.Error, "invalid range")
		return domain.ErrInvalidRange
	}
	if rng.Days() > maxDays {
		span.SetStatus(codes.Error, "range too long")
		return domain.ErrRangeTooLong
	}

	span.SetAttributes(
		attribute.String("listing_id", listingID),
		attribute.String("range", rng.String()),
	)
	return nil
}

// withListingLock runs fn while holding the listing lock
func withListingLock(ctx context.Context, locker repository.ListingLocker, listingID string, fn func() error) error {
	release, err := locker.Acquire(ctx, listingID)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = release(releaseCtx)
	}()

	return fn()
}

// requireActiveListing share-locks a listing and rejects inactive ones.
// The lock holds a concurrent removal until the caller's transaction ends.
func requireActiveListing(ctx context.Context, s repository.Store, listingID string) (*domain.Listing, error) {
	listing, err := s.Accounts().LockListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive() {
		return nil, domain.ErrListingInactive
	}
	return listing, nil
}

// IsFullyAvailable compares the AVAILABLE day count with the range length
func (s *availabilityService) IsFullyAvailable(ctx context.Context, listingID string, rng domain.DateRange) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.is_fully_available")
	defer span.End()

	if err := validateRange(span, listingID, rng, s.maxRangeDays); err != nil {
		return false, err
	}

	count, err := s.store.Calendar().CountWithStatusInRange(ctx, listingID, rng.Start, rng.End, domain.DayStatusAvailable)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	available := count == rng.Days()
	span.SetAttributes(attribute.Bool("available", available))
	span.SetStatus(codes.Ok, "")
	return available, nil
}

// QuoteCost sums day prices of a fully available range
func (s *availabilityService) QuoteCost(ctx context.Context, listingID string, rng domain.DateRange) (float64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.quote_cost")
	defer span.End()

	available, err := s.IsFullyAvailable(ctx, listingID, rng)
	if err != nil {
		return 0, err
	}
	if !available {
		span.SetStatus(codes.Error, "range unavailable")
		return 0, domain.ErrRangeUnavailable
	}

	cost, err := s.store.Calendar().SumPrice(ctx, listingID, rng.Start, rng.End)
	if err != nil {
		if errors.Is(err, domain.ErrIncompleteCoverage) {
			span.SetStatus(codes.Error, "cost computation failed")
			return 0, domain.ErrCostComputationFailed
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Float64("cost", cost))
	span.SetStatus(codes.Ok, "")
	return cost, nil
}

// GetRange returns existing days in range
func (s *availabilityService) GetRange(ctx context.Context, listingID string, rng domain.DateRange) ([]*domain.Day, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.get_range")
	defer span.End()

	if err := validateRange(span, listingID, rng, s.maxRangeDays); err != nil {
		return nil, err
	}

	days, err := s.store.Calendar().GetRange(ctx, listingID, rng.Start, rng.End)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return days, nil
}

// OfferAvailability creates or reactivates days in range
func (s *availabilityService) OfferAvailability(ctx context.Context, listingID string, rng domain.DateRange, price float64) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.offer")
	defer span.End()

	if err := validateRange(span, listingID, rng, s.maxRangeDays); err != nil {
		return 0, err
	}
	if err := domain.ValidatePrice(price); err != nil {
		span.SetStatus(codes.Error, "invalid price")
		return 0, err
	}

	var created int
	err := withListingLock(ctx, s.locker, listingID, func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			if _, err := requireActiveListing(ctx, tx, listingID); err != nil {
				return err
			}

			existing, err := tx.Calendar().LockRange(ctx, listingID, rng.Start, rng.End)
			if err != nil {
				return err
			}
			byDate := indexDays(existing)

			err = rng.Each(func(date time.Time) error {
				day, ok := byDate[date.Format(domain.DateLayout)]
				switch {
				case ok && day.Status.IsOffered():
					return nil
				case ok:
					if err := tx.Calendar().SetStatus(ctx, listingID, date, domain.DayStatusAvailable); err != nil {
						return err
					}
					if err := tx.Calendar().SetPrice(ctx, listingID, date, price); err != nil {
						return err
					}
				default:
					if err := tx.Calendar().Insert(ctx, domain.NewAvailableDay(listingID, date, price)); err != nil {
						return err
					}
				}
				created++
				return nil
			})
			if err != nil {
				return err
			}

			if created == 0 {
				return nil
			}
			event := domain.NewRangeEvent(domain.AvailabilityEventOffered, listingID, rng, &price, created, uuid.New().String())
			return s.events.record(ctx, tx, event)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	metrics.RecordDaysOffered(ctx, created)
	span.SetAttributes(attribute.Int("created", created))
	span.SetStatus(codes.Ok, "")
	return created, nil
}

// RetractAvailability marks offered days UNAVAILABLE unless a booking overlaps
func (s *availabilityService) RetractAvailability(ctx context.Context, listingID string, rng domain.DateRange) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.retract")
	defer span.End()

	if err := validateRange(span, listingID, rng, s.maxRangeDays); err != nil {
		return 0, err
	}

	var retracted int
	err := withListingLock(ctx, s.locker, listingID, func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			overlap, err := tx.Calendar().HasBookingOverlap(ctx, listingID, rng.Start, rng.End)
			if err != nil {
				return err
			}
			if overlap {
				return domain.ErrBookingConflict
			}

			offered, err := tx.Calendar().HasAnyWithStatusInRange(ctx, listingID, rng.Start, rng.End,
				domain.DayStatusAvailable, domain.DayStatusBooked)
			if err != nil || !offered {
				return err
			}

			days, err := tx.Calendar().LockRange(ctx, listingID, rng.Start, rng.End)
			if err != nil {
				return err
			}

			for _, day := range days {
				// BOOKED days belong to an active booking and are never retracted
				if day.Status != domain.DayStatusAvailable {
					continue
				}
				if err := tx.Calendar().SetStatus(ctx, listingID, day.Date, domain.DayStatusUnavailable); err != nil {
					return err
				}
				retracted++
			}

			if retracted == 0 {
				return nil
			}
			event := domain.NewRangeEvent(domain.AvailabilityEventRetracted, listingID, rng, nil, retracted, uuid.New().String())
			return s.events.record(ctx, tx, event)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	metrics.RecordDaysRetracted(ctx, retracted)
	span.SetAttributes(attribute.Int("retracted", retracted))
	span.SetStatus(codes.Ok, "")
	return retracted, nil
}

// RepriceAvailability updates the price of offered days; absent days stay absent
func (s *availabilityService) RepriceAvailability(ctx context.Context, listingID string, rng domain.DateRange, price float64) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.reprice")
	defer span.End()

	if err := validateRange(span, listingID, rng, s.maxRangeDays); err != nil {
		return 0, err
	}
	if err := domain.ValidatePrice(price); err != nil {
		span.SetStatus(codes.Error, "invalid price")
		return 0, err
	}

	var repriced int
	err := withListingLock(ctx, s.locker, listingID, func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			days, err := tx.Calendar().LockRange(ctx, listingID, rng.Start, rng.End)
			if err != nil {
				return err
			}

			for _, day := range days {
				if !day.Status.IsOffered() {
					continue
				}
				if err := tx.Calendar().SetPrice(ctx, listingID, day.Date, price); err != nil {
					return err
				}
				repriced++
			}

			if repriced == 0 {
				return nil
			}
			event := domain.NewRangeEvent(domain.AvailabilityEventRepriced, listingID, rng, &price, repriced, uuid.New().String())
			return s.events.record(ctx, tx, event)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	metrics.RecordDaysRepriced(ctx, repriced)
	span.SetAttributes(attribute.Int("repriced", repriced))
	span.SetStatus(codes.Ok, "")
	return repriced, nil
}

func indexDays(days []*domain.Day) map[string]*domain.Day {
	byDate := make(map[string]*domain.Day, len(days))
	for _, d := range days {
		byDate[d.Date.Format(domain.DateLayout)] = d
	}
	return byDate
}
