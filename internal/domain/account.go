package domain

// ListingStatus is the activity flag of a listing
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "ACTIVE"
	ListingStatusInactive ListingStatus = "INACTIVE"
)

// AccountStatus is the activity flag of a renter or host account
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
)

// Listing is the slice of a listing this engine owns: identity, host and activity
type Listing struct {
	ID     string        `json:"id"`
	HostID string        `json:"host_id"`
	Status ListingStatus `json:"status"`
}

// IsActive checks if the listing is active
func (l *Listing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// Account is the slice of a user account this engine owns
type Account struct {
	ID     string        `json:"id"`
	Status AccountStatus `json:"status"`
}

// IsActive checks if the account is active
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
