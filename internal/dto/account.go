package dto

import (
	"github.com/prohmpiriya/rental-booking/internal/domain"
)

// RegisterListingRequest represents request to register a listing
type RegisterListingRequest struct {
	HostID string `json:"host_id" binding:"required"`
}

// ListingResponse represents a listing in API response
type ListingResponse struct {
	ID     string `json:"id"`
	HostID string `json:"host_id"`
	Status string `json:"status"`
}

// AccountResponse represents an account in API response
type AccountResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CascadeResponse reports the bookings cancelled by a removal or deactivation
type CascadeResponse struct {
	ID                string `json:"id"`
	CancelledBookings int    `json:"cancelled_bookings"`
}

// ListingFromDomain converts a domain listing
func ListingFromDomain(l *domain.Listing) *ListingResponse {
	return &ListingResponse{ID: l.ID, HostID: l.HostID, Status: string(l.Status)}
}

// AccountFromDomain converts a domain account
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{ID: a.ID, Status: string(a.Status)}
}
