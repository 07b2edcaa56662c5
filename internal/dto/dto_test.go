package dto

import (
	"errors"
	"testing"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

func TestRangeQuery_ToRange(t *testing.T) {
	tests := []struct {
		name    string
		query   RangeQuery
		wantErr error
	}{
		{"valid", RangeQuery{Start: "2024-01-01", End: "2024-01-05"}, nil},
		{"inverted", RangeQuery{Start: "2024-01-05", End: "2024-01-01"}, domain.ErrInvalidRange},
		{"malformed", RangeQuery{Start: "01/01/2024", End: "2024-01-05"}, domain.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.query.ToRange()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ToRange() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromDomain(t *testing.T) {
	b := domain.NewBooking("b-1", "renter-1", "listing-1", domain.MustDateRange("2024-01-01", "2024-01-05"), 500)
	_ = b.SetReview("lovely", domain.RatingOf(5))

	resp := FromDomain(b)
	if resp.Start != "2024-01-01" || resp.End != "2024-01-05" {
		t.Errorf("range = %s..%s", resp.Start, resp.End)
	}
	if resp.Days != 5 || resp.Cost != 500 {
		t.Errorf("days = %d cost = %v", resp.Days, resp.Cost)
	}
	if resp.Status != "UPCOMING" || resp.Rating == nil || *resp.Rating != 5 {
		t.Errorf("unexpected status/rating %s %v", resp.Status, resp.Rating)
	}

	list := FromDomainList([]*domain.Booking{b, b})
	if list.Count != 2 || len(list.Bookings) != 2 {
		t.Errorf("FromDomainList() count = %d", list.Count)
	}
}
