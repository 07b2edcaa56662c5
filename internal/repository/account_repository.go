package repository

import (
	"context"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

// AccountRepository owns the activity flags of listings and accounts
type AccountRepository interface {
	// UpsertAccount registers an account as ACTIVE, reactivating it if it exists
	UpsertAccount(ctx context.Context, id string) (*domain.Account, error)

	// GetAccount retrieves an account by ID
	GetAccount(ctx context.Context, id string) (*domain.Account, error)

	// LockAccount reads an account under FOR SHARE so a concurrent status change waits for the caller's transaction
	LockAccount(ctx context.Context, id string) (*domain.Account, error)

	// SetAccountStatus sets the activity flag of an account
	SetAccountStatus(ctx context.Context, id string, status domain.AccountStatus) error

	// UpsertListing registers a listing as ACTIVE under hostID
	UpsertListing(ctx context.Context, id, hostID string) (*domain.Listing, error)

	// GetListing retrieves a listing by ID
	GetListing(ctx context.Context, id string) (*domain.Listing, error)

	// LockListing reads a listing under FOR SHARE so a concurrent removal waits for the caller's transaction
	LockListing(ctx context.Context, id string) (*domain.Listing, error)

	// SetListingStatus sets the activity flag of a listing
	SetListingStatus(ctx context.Context, id string, status domain.ListingStatus) error

	// ListActiveListingsByHost returns the ACTIVE listings of a host
	ListActiveListingsByHost(ctx context.Context, hostID string) ([]*domain.Listing, error)
}
