package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MinRating and MaxRating bound a booking review rating
	MinRating = 1
	MaxRating = 5
	// MaxReviewLength is the longest review text accepted, in characters
	MaxReviewLength = 2000
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusUpcoming BookingStatus = "UPCOMING"
	BookingStatusPast     BookingStatus = "PAST"
	BookingStatusCanceled BookingStatus = "CANCELED"
)

// IsValid checks if the status is a valid BookingStatus
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusUpcoming, BookingStatusPast, BookingStatusCanceled:
		return true
	}
	return false
}

// IsActive reports whether a booking in this status holds its days
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusUpcoming
}

// String returns the string representation of BookingStatus
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus parses a status string, case-insensitively
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", ErrInvalidBookingStatus
	}
	return status, nil
}

// Booking represents a reservation of a contiguous day range on one listing
type Booking struct {
	ID        string        `json:"id"`
	RenterID  string        `json:"renter_id"`
	ListingID string        `json:"listing_id"`
	StartDate time.Time     `json:"start_date"`
	EndDate   time.Time     `json:"end_date"`
	Cost      float64       `json:"cost"`
	Status    BookingStatus `json:"status"`
	Review    *string       `json:"review,omitempty"`
	Rating    *int          `json:"rating,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewBooking creates an UPCOMING booking over rng with the given cost snapshot
func NewBooking(id, renterID, listingID string, rng DateRange, cost float64) *Booking {
	now := time.Now().UTC()
	return &Booking{
		ID:        id,
		RenterID:  renterID,
		ListingID: listingID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Cost:      cost,
		Status:    BookingStatusUpcoming,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Range returns the booked date range
func (b *Booking) Range() DateRange {
	return DateRange{Start: Date(b.StartDate), End: Date(b.EndDate)}
}

// Validate validates the booking fields
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrInvalidBookingID
	}
	if strings.TrimSpace(b.RenterID) == "" {
		return ErrInvalidRenterID
	}
	if strings.TrimSpace(b.ListingID) == "" {
		return ErrInvalidListingID
	}
	if b.StartDate.After(b.EndDate) {
		return ErrInvalidRange
	}
	if !b.Status.IsValid() {
		return ErrInvalidBookingStatus
	}
	return ValidatePrice(b.Cost)
}

// CanCancel checks if the booking can be cancelled
func (b *Booking) CanCancel() bool {
	return b.Status == BookingStatusUpcoming
}

// IsCanceled checks if the booking is in canceled status
func (b *Booking) IsCanceled() bool {
	return b.Status == BookingStatusCanceled
}

// IsExpired reports whether the booking ended before today
func (b *Booking) IsExpired(today time.Time) bool {
	return Date(b.EndDate).Before(Date(today))
}

// Cancel marks the booking as canceled
func (b *Booking) Cancel() error {
	if !b.CanCancel() {
		return ErrBookingNotCancelable
	}
	b.Status = BookingStatusCanceled
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete marks an upcoming booking as past
func (b *Booking) Complete() error {
	if b.Status != BookingStatusUpcoming {
		return ErrInvalidBookingStatus
	}
	b.Status = BookingStatusPast
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// RatingOf returns a rating pointer for review calls
func RatingOf(n int) *int {
	return &n
}

// SetReview attaches review text and an optional rating, replacing any earlier review.
// A nil rating clears the stored one.
func (b *Booking) SetReview(text string, rating *int) error {
	if err := ValidateReview(text, rating); err != nil {
		return err
	}
	b.Review = &text
	b.Rating = nil
	if rating != nil {
		r := *rating
		b.Rating = &r
	}
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// ValidateReview checks the rating bound, when a rating is given, and the review length
func ValidateReview(text string, rating *int) error {
	if rating != nil && (*rating < MinRating || *rating > MaxRating) {
		return ErrInvalidRating
	}
	if utf8.RuneCountInString(text) > MaxReviewLength {
		return ErrReviewTooLong
	}
	return nil
}

// BelongsToRenter checks if the booking belongs to the given renter
func (b *Booking) BelongsToRenter(renterID string) bool {
	return b.RenterID == renterID
}
