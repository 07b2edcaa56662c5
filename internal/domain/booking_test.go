package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestBooking() *Booking {
	return NewBooking("booking-1", "renter-1", "listing-1", MustDateRange("2024-01-01", "2024-01-03"), 300)
}

func TestNewBooking(t *testing.T) {
	b := newTestBooking()

	if b.Status != BookingStatusUpcoming {
		t.Errorf("Status = %s, want UPCOMING", b.Status)
	}
	if b.Review != nil || b.Rating != nil {
		t.Error("new booking should have no review")
	}
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if b.Range().Days() != 3 {
		t.Errorf("Range().Days() = %d, want 3", b.Range().Days())
	}
}

func TestBooking_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *Booking)
		wantErr error
	}{
		{"missing id", func(b *Booking) { b.ID = "" }, ErrInvalidBookingID},
		{"missing renter", func(b *Booking) { b.RenterID = "" }, ErrInvalidRenterID},
		{"missing listing", func(b *Booking) { b.ListingID = "" }, ErrInvalidListingID},
		{"inverted range", func(b *Booking) { b.StartDate, b.EndDate = b.EndDate, b.StartDate }, ErrInvalidRange},
		{"unknown status", func(b *Booking) { b.Status = "PENDING" }, ErrInvalidBookingStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBooking()
			tt.mutate(b)
			if err := b.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBooking_Cancel(t *testing.T) {
	b := newTestBooking()
	if err := b.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !b.IsCanceled() {
		t.Error("booking should be canceled")
	}

	past := newTestBooking()
	past.Status = BookingStatusPast
	if err := past.Cancel(); !errors.Is(err, ErrBookingNotCancelable) {
		t.Errorf("Cancel() on PAST error = %v, want %v", err, ErrBookingNotCancelable)
	}
}

func TestBooking_Complete(t *testing.T) {
	b := newTestBooking()
	if err := b.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if b.Status != BookingStatusPast {
		t.Errorf("Status = %s, want PAST", b.Status)
	}
	if err := b.Complete(); !errors.Is(err, ErrInvalidBookingStatus) {
		t.Errorf("second Complete() error = %v", err)
	}
}

func TestBooking_IsExpired(t *testing.T) {
	b := newTestBooking()

	tests := []struct {
		today string
		want  bool
	}{
		{"2024-01-02", false},
		{"2024-01-03", false},
		{"2024-01-04", true},
	}
	for _, tt := range tests {
		today, _ := ParseDate(tt.today)
		if got := b.IsExpired(today.Add(12 * time.Hour)); got != tt.want {
			t.Errorf("IsExpired(%s) = %v, want %v", tt.today, got, tt.want)
		}
	}
}

func TestValidateReview(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		rating  *int
		wantErr error
	}{
		{"min rating", "ok", RatingOf(MinRating), nil},
		{"max rating", "great", RatingOf(MaxRating), nil},
		{"empty text", "", RatingOf(3), nil},
		{"text without rating", "lovely stay", nil, nil},
		{"max length in runes", strings.Repeat("é", MaxReviewLength), RatingOf(4), nil},
		{"rating zero", "bad", RatingOf(0), ErrInvalidRating},
		{"rating six", "bad", RatingOf(6), ErrInvalidRating},
		{"too long", strings.Repeat("a", MaxReviewLength+1), RatingOf(4), ErrReviewTooLong},
		{"too long without rating", strings.Repeat("a", MaxReviewLength+1), nil, ErrReviewTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateReview(tt.text, tt.rating); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateReview() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBooking_SetReviewReplaces(t *testing.T) {
	b := newTestBooking()
	if err := b.SetReview("first", RatingOf(2)); err != nil {
		t.Fatalf("SetReview() error = %v", err)
	}
	if err := b.SetReview("second", RatingOf(4)); err != nil {
		t.Fatalf("SetReview() error = %v", err)
	}
	if *b.Review != "second" || *b.Rating != 4 {
		t.Errorf("review = %q/%d, want second/4", *b.Review, *b.Rating)
	}
	if err := b.SetReview("third", RatingOf(9)); err == nil {
		t.Error("SetReview() should reject rating 9")
	}
	if *b.Rating != 4 {
		t.Error("rejected review must not overwrite the stored one")
	}
	if err := b.SetReview("fourth", nil); err != nil {
		t.Fatalf("SetReview() without rating error = %v", err)
	}
	if *b.Review != "fourth" || b.Rating != nil {
		t.Errorf("review = %q/%v, want fourth/nil", *b.Review, b.Rating)
	}
}

func TestParseBookingStatus(t *testing.T) {
	got, err := ParseBookingStatus(" upcoming ")
	if err != nil || got != BookingStatusUpcoming {
		t.Errorf("ParseBookingStatus() = %v, %v", got, err)
	}
	if _, err := ParseBookingStatus("pending"); !errors.Is(err, ErrInvalidBookingStatus) {
		t.Errorf("ParseBookingStatus(pending) error = %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsNotFoundError(ErrListingNotFound) || IsNotFoundError(ErrInvalidRange) {
		t.Error("IsNotFoundError misclassifies")
	}
	if !IsValidationError(ErrReviewTooLong) || IsValidationError(ErrRangeUnavailable) {
		t.Error("IsValidationError misclassifies")
	}
	if !IsConflictError(ErrListingInactive) || IsConflictError(ErrBookingNotFound) {
		t.Error("IsConflictError misclassifies")
	}
}
