package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/metrics"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// AccountService registers listings and accounts and runs the cancellation cascades
type AccountService interface {
	// RegisterAccount makes an account known and ACTIVE
	RegisterAccount(ctx context.Context, accountID string) (*domain.Account, error)

	// RegisterListing makes a listing known and ACTIVE under an existing host
	RegisterListing(ctx context.Context, listingID, hostID string) (*domain.Listing, error)

	// RemoveListing cancels every UPCOMING booking on the listing, then marks it INACTIVE
	RemoveListing(ctx context.Context, listingID string) (int, error)

	// DeactivateRenter cancels every UPCOMING booking of the renter, then marks the account INACTIVE
	DeactivateRenter(ctx context.Context, renterID string) (int, error)

	// DeleteHost removes every ACTIVE listing of the host, then marks the host INACTIVE
	DeleteHost(ctx context.Context, hostID string) (int, error)
}

// AccountServiceConfig contains configuration for account service
type AccountServiceConfig struct {
	EventsTopic string
}

// accountService implements AccountService
type accountService struct {
	store     repository.Store
	txManager repository.TxManager
	locker    repository.ListingLocker
	events    eventRecorder
}

// NewAccountService creates a new account service
func NewAccountService(
	store repository.Store,
	txManager repository.TxManager,
	locker repository.ListingLocker,
	cfg *AccountServiceConfig,
) AccountService {
	topic := ""
	if cfg != nil {
		topic = cfg.EventsTopic
	}
	if locker == nil {
		locker = repository.NewNoOpListingLocker()
	}
	return &accountService{
		store:     store,
		txManager: txManager,
		locker:    locker,
		events:    newEventRecorder(topic),
	}
}

// RegisterAccount upserts an ACTIVE account
func (s *accountService) RegisterAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.account.register")
	defer span.End()

	if strings.TrimSpace(accountID) == "" {
		span.SetStatus(codes.Error, "invalid account_id")
		return nil, domain.ErrInvalidRenterID
	}

	account, err := s.store.Accounts().UpsertAccount(ctx, accountID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return account, nil
}

// RegisterListing upserts an ACTIVE listing owned by an ACTIVE host
func (s *accountService) RegisterListing(ctx context.Context, listingID, hostID string) (*domain.Listing, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.account.register_listing")
	defer span.End()

	if strings.TrimSpace(listingID) == "" {
		span.SetStatus(codes.Error, "invalid listing_id")
		return nil, domain.ErrInvalidListingID
	}
	if strings.TrimSpace(hostID) == "" {
		span.SetStatus(codes.Error, "invalid host_id")
		return nil, domain.ErrInvalidHostID
	}
	span.SetAttributes(
		attribute.String("listing_id", listingID),
		attribute.String("host_id", hostID),
	)

	var listing *domain.Listing
	err := s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		host, err := tx.Accounts().GetAccount(ctx, hostID)
		if err != nil {
			return err
		}
		if !host.IsActive() {
			return domain.ErrAccountInactive
		}
		listing, err = tx.Accounts().UpsertListing(ctx, listingID, hostID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return listing, nil
}

// RemoveListing cancels the listing's UPCOMING bookings and deactivates it
func (s *accountService) RemoveListing(ctx context.Context, listingID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.account.remove_listing")
	defer span.End()

	if strings.TrimSpace(listingID) == "" {
		span.SetStatus(codes.Error, "invalid listing_id")
		return 0, domain.ErrInvalidListingID
	}
	span.SetAttributes(attribute.String("listing_id", listingID))

	var cancelled int
	err := withListingLock(ctx, s.locker, listingID, func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			n, err := s.removeListingTx(ctx, tx, listingID)
			cancelled = n
			return err
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	metrics.RecordBookingCancelled(ctx, "listing", cancelled)
	span.SetAttributes(attribute.Int("cancelled", cancelled))
	span.SetStatus(codes.Ok, "")
	return cancelled, nil
}

// removeListingTx cancels every UPCOMING booking of the listing and marks it INACTIVE.
// None of it is visible to others until the transaction commits.
func (s *accountService) removeListingTx(ctx context.Context, tx repository.Store, listingID string) (int, error) {
	if _, err := tx.Accounts().GetListing(ctx, listingID); err != nil {
		return 0, err
	}

	// Flipping the flag first waits out creates holding the listing share lock,
	// so the list below sees their bookings and later creates see INACTIVE
	if err := tx.Accounts().SetListingStatus(ctx, listingID, domain.ListingStatusInactive); err != nil {
		return 0, err
	}

	bookings, err := tx.Bookings().ListUpcomingByListing(ctx, listingID)
	if err != nil {
		return 0, err
	}
	for _, b := range bookings {
		if err := releaseAndCancel(ctx, tx, s.events, b); err != nil {
			return 0, err
		}
	}

	event := domain.NewCascadeEvent(domain.ListingEventRemoved, listingID, "", len(bookings), uuid.New().String())
	if err := s.events.record(ctx, tx, event); err != nil {
		return 0, err
	}
	return len(bookings), nil
}

// DeactivateRenter cancels the renter's UPCOMING bookings and deactivates the account
func (s *accountService) DeactivateRenter(ctx context.Context, renterID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.account.deactivate_renter")
	defer span.End()

	if strings.TrimSpace(renterID) == "" {
		span.SetStatus(codes.Error, "invalid renter_id")
		return 0, domain.ErrInvalidRenterID
	}
	span.SetAttributes(attribute.String("renter_id", renterID))

	if _, err := s.store.Accounts().GetAccount(ctx, renterID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	// Lock every affected listing in a fixed order so concurrent cascades cannot deadlock
	upcoming, err := s.store.Bookings().ListByRenter(ctx, renterID, domain.BookingStatusUpcoming)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	listingIDs := distinctListings(upcoming)

	var cancelled int
	run := func() error {
		return s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			// Flipping the flag first waits out creates holding the account share lock,
			// so the list below sees their bookings and later creates see INACTIVE
			if err := tx.Accounts().SetAccountStatus(ctx, renterID, domain.AccountStatusInactive); err != nil {
				return err
			}

			bookings, err := tx.Bookings().ListUpcomingByRenter(ctx, renterID)
			if err != nil {
				return err
			}
			for _, b := range bookings {
				if err := releaseAndCancel(ctx, tx, s.events, b); err != nil {
					return err
				}
			}

			cancelled = len(bookings)
			event := domain.NewCascadeEvent(domain.AccountEventDeactivated, "", renterID, cancelled, uuid.New().String())
			return s.events.record(ctx, tx, event)
		})
	}

	err = withListingLocks(ctx, s.locker, listingIDs, run)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	metrics.RecordBookingCancelled(ctx, "account", cancelled)
	span.SetAttributes(attribute.Int("cancelled", cancelled))
	span.SetStatus(codes.Ok, "")
	return cancelled, nil
}

// DeleteHost removes each ACTIVE listing of the host, then deactivates the host
func (s *accountService) DeleteHost(ctx context.Context, hostID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.account.delete_host")
	defer span.End()

	if strings.TrimSpace(hostID) == "" {
		span.SetStatus(codes.Error, "invalid host_id")
		return 0, domain.ErrInvalidHostID
	}
	span.SetAttributes(attribute.String("host_id", hostID))

	if _, err := s.store.Accounts().GetAccount(ctx, hostID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	listings, err := s.store.Accounts().ListActiveListingsByHost(ctx, hostID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	total := 0
	for _, l := range listings {
		n, err := s.RemoveListing(ctx, l.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return total, err
		}
		total += n
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Accounts().SetAccountStatus(ctx, hostID, domain.AccountStatusInactive); err != nil {
			return err
		}
		event := domain.NewCascadeEvent(domain.AccountEventDeactivated, "", hostID, total, uuid.New().String())
		return s.events.record(ctx, tx, event)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return total, err
	}

	span.SetAttributes(
		attribute.Int("listings", len(listings)),
		attribute.Int("cancelled", total),
	)
	span.SetStatus(codes.Ok, "")
	return total, nil
}

// withListingLocks acquires the locks in sorted order, runs fn and releases them
func withListingLocks(ctx context.Context, locker repository.ListingLocker, listingIDs []string, fn func() error) error {
	if len(listingIDs) == 0 {
		return fn()
	}
	return withListingLock(ctx, locker, listingIDs[0], func() error {
		return withListingLocks(ctx, locker, listingIDs[1:], fn)
	})
}

func distinctListings(bookings []*domain.Booking) []string {
	seen := make(map[string]struct{}, len(bookings))
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		if _, ok := seen[b.ListingID]; ok {
			continue
		}
		seen[b.ListingID] = struct{}{}
		ids = append(ids, b.ListingID)
	}
	sort.Strings(ids)
	return ids
}
