package dto

import (
	"github.com/prohmpiriya/rental-booking/internal/domain"
)

// RangeQuery carries an inclusive date range in the query string
type RangeQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

// ToRange parses the query into a domain range
func (q *RangeQuery) ToRange() (domain.DateRange, error) {
	return domain.ParseDateRange(q.Start, q.End)
}

// RangePriceRequest is the body of offer and reprice requests.
// Price is a pointer so that a zero price is accepted.
type RangePriceRequest struct {
	Start string   `json:"start" binding:"required"`
	End   string   `json:"end" binding:"required"`
	Price *float64 `json:"price" binding:"required"`
}

// ToRange parses the body dates into a domain range
func (r *RangePriceRequest) ToRange() (domain.DateRange, error) {
	return domain.ParseDateRange(r.Start, r.End)
}

// AvailabilityResponse answers an availability check
type AvailabilityResponse struct {
	ListingID string `json:"listing_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// QuoteResponse carries the total price of a range
type QuoteResponse struct {
	ListingID string  `json:"listing_id"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Days      int     `json:"days"`
	Cost      float64 `json:"cost"`
}

// DayResponse represents a calendar day in API response
type DayResponse struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
}

// CalendarResponse lists the existing days of a range
type CalendarResponse struct {
	ListingID string         `json:"listing_id"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Days      []*DayResponse `json:"days"`
}

// NewCalendarResponse converts calendar days for the API
func NewCalendarResponse(listingID string, rng domain.DateRange, days []*domain.Day) *CalendarResponse {
	out := make([]*DayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, &DayResponse{
			Date:   d.Date.Format(domain.DateLayout),
			Price:  d.Price,
			Status: string(d.Status),
		})
	}
	return &CalendarResponse{
		ListingID: listingID,
		Start:     rng.Start.Format(domain.DateLayout),
		End:       rng.End.Format(domain.DateLayout),
		Days:      out,
	}
}
