package domain

import (
	"errors"
	"math"
	"testing"
)

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		name    string
		price   float64
		wantErr error
	}{
		{"zero", 0, nil},
		{"regular", 120.5, nil},
		{"column maximum", MaxPrice, nil},
		{"negative", -0.01, ErrInvalidPrice},
		{"column overflow", 1e10, ErrInvalidPrice},
		{"NaN", math.NaN(), ErrInvalidPrice},
		{"positive infinity", math.Inf(1), ErrInvalidPrice},
		{"negative infinity", math.Inf(-1), ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePrice(tt.price); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePrice(%v) error = %v, want %v", tt.price, err, tt.wantErr)
			}
		})
	}
}

func TestDayStatus(t *testing.T) {
	if !DayStatusBooked.IsOffered() || DayStatusUnavailable.IsOffered() {
		t.Error("only AVAILABLE and BOOKED days are offered")
	}
	if DayStatus("RESERVED").IsValid() {
		t.Error("RESERVED is not a day status")
	}
}
