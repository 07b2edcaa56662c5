package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		wantErr  error
		wantDays int
	}{
		{"single day", "2024-01-01", "2024-01-01", nil, 1},
		{"five days", "2024-01-01", "2024-01-05", nil, 5},
		{"across leap day", "2024-02-28", "2024-03-01", nil, 3},
		{"across year end", "2023-12-31", "2024-01-01", nil, 2},
		{"start after end", "2024-01-05", "2024-01-01", ErrInvalidRange, 0},
		{"bad start", "2024/01/01", "2024-01-05", ErrInvalidDate, 0},
		{"bad end", "2024-01-01", "tomorrow", ErrInvalidDate, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ParseDateRange(tt.start, tt.end)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseDateRange() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := rng.Days(); got != tt.wantDays {
				t.Errorf("Days() = %d, want %d", got, tt.wantDays)
			}
		})
	}
}

func TestNewDateRange_TruncatesToDate(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)

	rng, err := NewDateRange(start, end)
	if err != nil {
		t.Fatalf("NewDateRange() error = %v", err)
	}
	if rng.Days() != 2 {
		t.Errorf("Days() = %d, want 2", rng.Days())
	}
	if rng.String() != "2024-01-01..2024-01-02" {
		t.Errorf("String() = %q", rng.String())
	}
}

func TestDateRange_Dates(t *testing.T) {
	dates := MustDateRange("2024-02-28", "2024-03-01").Dates()
	want := []string{"2024-02-28", "2024-02-29", "2024-03-01"}

	if len(dates) != len(want) {
		t.Fatalf("Dates() returned %d dates, want %d", len(dates), len(want))
	}
	for i, d := range dates {
		if got := d.Format(DateLayout); got != want[i] {
			t.Errorf("Dates()[%d] = %s, want %s", i, got, want[i])
		}
	}
}

func TestDateRange_EachStopsOnError(t *testing.T) {
	stop := errors.New("stop")
	visited := 0

	err := MustDateRange("2024-01-01", "2024-01-10").Each(func(time.Time) error {
		visited++
		if visited == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Each() error = %v, want %v", err, stop)
	}
	if visited != 3 {
		t.Errorf("visited %d days, want 3", visited)
	}
}

func TestDateRange_Overlaps(t *testing.T) {
	base := MustDateRange("2024-01-05", "2024-01-10")

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"identical", MustDateRange("2024-01-05", "2024-01-10"), true},
		{"touches start", MustDateRange("2024-01-01", "2024-01-05"), true},
		{"touches end", MustDateRange("2024-01-10", "2024-01-12"), true},
		{"inside", MustDateRange("2024-01-07", "2024-01-07"), true},
		{"covers", MustDateRange("2024-01-01", "2024-01-31"), true},
		{"day before", MustDateRange("2024-01-01", "2024-01-04"), false},
		{"day after", MustDateRange("2024-01-11", "2024-01-20"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("Overlaps() is not symmetric")
			}
		})
	}
}

func TestDateRange_Contains(t *testing.T) {
	rng := MustDateRange("2024-01-05", "2024-01-06")

	if !rng.Contains(time.Date(2024, 1, 6, 18, 0, 0, 0, time.UTC)) {
		t.Error("Contains() should include the last day")
	}
	if rng.Contains(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Error("Contains() should exclude the day before")
	}
}
