package domain

import (
	"math"
	"time"
)

// MaxPrice is the largest per-day price the NUMERIC(12,2) price column holds
const MaxPrice = 9999999999.99

// DayStatus represents the offer state of a single calendar day
type DayStatus string

const (
	DayStatusAvailable   DayStatus = "AVAILABLE"
	DayStatusBooked      DayStatus = "BOOKED"
	DayStatusUnavailable DayStatus = "UNAVAILABLE"
)

// IsValid checks if the status is a valid DayStatus
func (s DayStatus) IsValid() bool {
	switch s {
	case DayStatusAvailable, DayStatusBooked, DayStatusUnavailable:
		return true
	}
	return false
}

// IsOffered reports whether the day is currently on offer (bookable or booked)
func (s DayStatus) IsOffered() bool {
	return s == DayStatusAvailable || s == DayStatusBooked
}

// String returns the string representation of DayStatus
func (s DayStatus) String() string {
	return string(s)
}

// Day is the per-listing, per-date calendar record.
// A listing has at most one Day per date; no record means the date is not offered.
type Day struct {
	ListingID string    `json:"listing_id"`
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	Status    DayStatus `json:"status"`
}

// NewAvailableDay creates an offered day at the given price
func NewAvailableDay(listingID string, date time.Time, price float64) *Day {
	return &Day{
		ListingID: listingID,
		Date:      Date(date),
		Price:     price,
		Status:    DayStatusAvailable,
	}
}

// IsAvailable reports whether the day can be booked
func (d *Day) IsAvailable() bool {
	return d.Status == DayStatusAvailable
}

// ValidatePrice accepts finite prices in [0, MaxPrice]
func ValidatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 || price > MaxPrice {
		return ErrInvalidPrice
	}
	return nil
}
