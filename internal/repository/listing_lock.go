package repository

import "context"

// ReleaseFunc releases a held listing lock
type ReleaseFunc func(ctx context.Context) error

// ListingLocker serializes mutations of one listing's calendar across instances
type ListingLocker interface {
	// Acquire blocks until the listing is locked or the wait budget runs out,
	// in which case it returns domain.ErrListingBusy
	Acquire(ctx context.Context, listingID string) (ReleaseFunc, error)
}

// NoOpListingLocker is used when Redis is disabled. Row locks in Postgres still apply.
type NoOpListingLocker struct{}

// NewNoOpListingLocker creates a new NoOpListingLocker
func NewNoOpListingLocker() *NoOpListingLocker {
	return &NoOpListingLocker{}
}

// Acquire always succeeds
func (l *NoOpListingLocker) Acquire(ctx context.Context, listingID string) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}

var _ ListingLocker = (*NoOpListingLocker)(nil)
