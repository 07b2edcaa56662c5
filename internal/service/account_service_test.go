package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

func TestAccountService_RegisterAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	account, err := env.accounts.RegisterAccount(ctx, "new-renter")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusActive, account.Status)
	assert.Contains(t, env.store.accounts, "new-renter")

	_, err = env.accounts.RegisterAccount(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidRenterID)
}

func TestAccountService_RegisterListing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	listing, err := env.accounts.RegisterListing(ctx, "listing-2", testHost)
	require.NoError(t, err)
	assert.Equal(t, testHost, listing.HostID)
	assert.True(t, listing.IsActive())

	tests := []struct {
		name      string
		setup     func()
		listingID string
		hostID    string
		wantErr   error
	}{
		{name: "empty listing", listingID: "", hostID: testHost, wantErr: domain.ErrInvalidListingID},
		{name: "empty host", listingID: "listing-3", hostID: "", wantErr: domain.ErrInvalidHostID},
		{name: "unknown host", listingID: "listing-3", hostID: "ghost", wantErr: domain.ErrAccountNotFound},
		{
			name: "inactive host",
			setup: func() {
				env.store.accounts["retired-host"] = &domain.Account{ID: "retired-host", Status: domain.AccountStatusInactive}
			},
			listingID: "listing-3",
			hostID:    "retired-host",
			wantErr:   domain.ErrAccountInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, err := env.accounts.RegisterListing(ctx, tt.listingID, tt.hostID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.NotContains(t, env.store.listings, "listing-3")
}

func TestAccountService_RemoveListing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.offer(t, "2024-01-01", "2024-01-10", 100)

	first, err := env.bookings.CreateBooking(ctx, testRenter, testListing, domain.MustDateRange("2024-01-01", "2024-01-02"))
	require.NoError(t, err)
	second, err := env.bookings.CreateBooking(ctx, otherRenter, testListing, domain.MustDateRange("2024-01-05", "2024-01-07"))
	require.NoError(t, err)
	past, err := env.bookings.CreateBooking(ctx, otherRenter, testListing, domain.MustDateRange("2024-01-09", "2024-01-09"))
	require.NoError(t, err)
	env.store.bookings[past.ID].Status = domain.BookingStatusPast

	n, err := env.accounts.RemoveListing(ctx, testListing)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, domain.BookingStatusCanceled, env.store.bookings[first.ID].Status)
	assert.Equal(t, domain.BookingStatusCanceled, env.store.bookings[second.ID].Status)
	assert.Equal(t, domain.BookingStatusPast, env.store.bookings[past.ID].Status, "PAST bookings are untouched")
	assert.Equal(t, domain.ListingStatusInactive, env.store.listings[testListing].Status)
	assert.Equal(t, domain.DayStatusAvailable, env.store.dayStatus(testListing, "2024-01-06"))

	types := env.store.eventTypes()
	assert.Equal(t, string(domain.ListingEventRemoved), types[len(types)-1])

	// The removed listing rejects new bookings
	_, err = env.bookings.CreateBooking(ctx, testRenter, testListing, domain.MustDateRange("2024-01-03", "2024-01-03"))
	assert.ErrorIs(t, err, domain.ErrListingInactive)
}

func TestAccountService_RemoveListing_Errors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.accounts.RemoveListing(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidListingID)

	_, err = env.accounts.RemoveListing(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	env.locker.busy[testListing] = true
	_, err = env.accounts.RemoveListing(ctx, testListing)
	assert.ErrorIs(t, err, domain.ErrListingBusy)
	assert.Equal(t, domain.ListingStatusActive, env.store.listings[testListing].Status)
}

func TestAccountService_RemoveListing_RollsBackOnFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.offer(t, "2024-01-01", "2024-01-06", 100)

	a, err := env.bookings.CreateBooking(ctx, testRenter, testListing, domain.MustDateRange("2024-01-01", "2024-01-02"))
	require.NoError(t, err)
	b, err := env.bookings.CreateBooking(ctx, otherRenter, testListing, domain.MustDateRange("2024-01-04", "2024-01-05"))
	require.NoError(t, err)
	before := env.store.snapshot()

	// Fail while releasing the second booking's days
	env.store.setStatusCalls = 0
	env.store.failSetStatusAfter = 3
	_, err = env.accounts.RemoveListing(ctx, testListing)
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, before.days, env.store.days)
	assert.Equal(t, domain.BookingStatusUpcoming, env.store.bookings[a.ID].Status)
	assert.Equal(t, domain.BookingStatusUpcoming, env.store.bookings[b.ID].Status)
	assert.Equal(t, domain.ListingStatusActive, env.store.listings[testListing].Status)
}

func TestAccountService_RemoveListing_LockOrdering(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.offer(t, "2024-01-01", "2024-01-03", 100)

	// Offer and create both take the listing share lock before touching days
	env.store.calls = nil
	_, err := env.bookings.CreateBooking(ctx, testRenter, testListing, domain.MustDateRange("2024-01-01", "2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, []string{"LockListing"}, env.store.calls)

	env.store.calls = nil
	env.offer(t, "2024-01-04", "2024-01-04", 100)
	assert.Equal(t, []string{"LockListing"}, env.store.calls)

	// Removal marks the listing INACTIVE before it lists the bookings to cancel
	env.store.calls = nil
	cancelled, err := env.accounts.RemoveListing(ctx, testListing)
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)
	assert.Equal(t, []string{"SetListingStatus", "ListUpcomingByListing"}, env.store.calls)

	_, err = env.bookings.CreateBooking(ctx, otherRenter, testListing, domain.MustDateRange("2024-01-03", "2024-01-03"))
	assert.ErrorIs(t, err, domain.ErrListingInactive)
	for _, b := range env.store.bookings {
		assert.NotEqual(t, domain.BookingStatusUpcoming, b.Status)
	}
}

func TestAccountService_DeactivateRenter(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.store.seed("listing-2", testHost)
	env.offer(t, "2024-01-01", "2024-01-10", 100)
	_, err := env.availability.OfferAvailability(ctx, "listing-2", domain.MustDateRange("2024-01-01", "2024-01-10"), 50)
	require.NoError(t, err)

	mine1, err := env.bookings.CreateBooking(ctx, testRenter, testListing, domain.MustDateRange("2024-01-01", "2024-01-02"))
	require.NoError(t, err)
	mine2, err := env.bookings.CreateBooking(ctx, testRenter, "listing-2", domain.MustDateRange("2024-01-03", "2024-01-04"))
	require.NoError(t, err)
	theirs, err := env.bookings.CreateBooking(ctx, otherRenter, testListing, domain.MustDateRange("2024-01-05", "2024-01-06"))
	require.NoError(t, err)
	env.locker.acquired = nil

	n, err := env.accounts.DeactivateRenter(ctx, testRenter)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, domain.BookingStatusCanceled, env.store.bookings[mine1.ID].Status)
	assert.Equal(t, domain.BookingStatusCanceled, env.store.bookings[mine2.ID].Status)
	assert.Equal(t, domain.BookingStatusUpcoming, env.store.bookings[theirs.ID].Status)
	assert.Equal(t, domain.AccountStatusInactive, env.store.accounts[testRenter].Status)
	assert.Equal(t, domain.DayStatusAvailable, env.store.dayStatus("listing-2", "2024-01-03"))
	assert.Equal(t, domain.DayStatusBooked, env.store.dayStatus(testListing, "2024-01-05"))

	assert.Equal(t, []string{testListing, "listing-2"}, env.locker.acquired, "listing locks are taken in sorted order")

	_, err = env.bookings.CreateBooking(ctx, testRenter, testListing, domain.MustDateRange("2024-01-08", "2024-01-08"))
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestAccountService_DeactivateRenter_NoBookings(t *testing.T) {
	env := newTestEnv()

	n, err := env.accounts.DeactivateRenter(context.Background(), otherRenter)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, domain.AccountStatusInactive, env.store.accounts[otherRenter].Status)
	assert.Empty(t, env.locker.acquired)

	_, err = env.accounts.DeactivateRenter(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountService_DeleteHost(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.store.seed("listing-2", testHost)
	env.offer(t, "2024-01-01", "2024-01-05", 100)
	_, err := env.availability.OfferAvailability(ctx, "listing-2", domain.MustDateRange("2024-01-01", "2024-01-05"), 50)
	require.NoError(t, err)

	_, err = env.bookings.CreateBooking(ctx, testRenter, testListing, domain.MustDateRange("2024-01-01", "2024-01-02"))
	require.NoError(t, err)
	_, err = env.bookings.CreateBooking(ctx, otherRenter, "listing-2", domain.MustDateRange("2024-01-02", "2024-01-03"))
	require.NoError(t, err)

	n, err := env.accounts.DeleteHost(ctx, testHost)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, domain.ListingStatusInactive, env.store.listings[testListing].Status)
	assert.Equal(t, domain.ListingStatusInactive, env.store.listings["listing-2"].Status)
	assert.Equal(t, domain.AccountStatusInactive, env.store.accounts[testHost].Status)
	for _, b := range env.store.bookings {
		assert.Equal(t, domain.BookingStatusCanceled, b.Status)
	}
}

func TestDistinctListings(t *testing.T) {
	bookings := []*domain.Booking{
		{ListingID: "c"}, {ListingID: "a"}, {ListingID: "c"}, {ListingID: "b"},
	}
	assert.Equal(t, []string{"a", "b", "c"}, distinctListings(bookings))
	assert.Empty(t, distinctListings(nil))
}
