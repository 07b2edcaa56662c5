package dto

import (
	"time"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

// CreateBookingRequest represents request to book a listing
type CreateBookingRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	Start     string `json:"start" binding:"required"`
	End       string `json:"end" binding:"required"`
}

// ToRange parses the requested stay into a domain range
func (r *CreateBookingRequest) ToRange() (domain.DateRange, error) {
	return domain.ParseDateRange(r.Start, r.End)
}

// ReviewBookingRequest represents request to review a booking.
// Rating is optional; its bounds are checked by the service so that they map to INVALID_RATING.
type ReviewBookingRequest struct {
	Review string `json:"review"`
	Rating *int   `json:"rating"`
}

// SweepRequest optionally overrides the sweep date
type SweepRequest struct {
	Date string `json:"date,omitempty"`
}

// SweepResponse reports the bookings completed by a sweep
type SweepResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// BookingResponse represents a booking in API response
type BookingResponse struct {
	ID        string    `json:"id"`
	RenterID  string    `json:"renter_id"`
	ListingID string    `json:"listing_id"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Days      int       `json:"days"`
	Cost      float64   `json:"cost"`
	Status    string    `json:"status"`
	Review    *string   `json:"review,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingListResponse wraps a list of bookings
type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Count    int                `json:"count"`
}

// FromDomain converts domain Booking to BookingResponse
func FromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:        b.ID,
		RenterID:  b.RenterID,
		ListingID: b.ListingID,
		Start:     b.StartDate.Format(domain.DateLayout),
		End:       b.EndDate.Format(domain.DateLayout),
		Days:      b.Range().Days(),
		Cost:      b.Cost,
		Status:    string(b.Status),
		Review:    b.Review,
		Rating:    b.Rating,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// FromDomainList converts a slice of bookings
func FromDomainList(bookings []*domain.Booking) *BookingListResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, FromDomain(b))
	}
	return &BookingListResponse{Bookings: out, Count: len(out)}
}
