package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates
const DateLayout = "2006-01-02"

// DateRange is an inclusive pair of calendar dates
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Date truncates t to midnight UTC of its own calendar day
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// NewDateRange builds a range, rejecting start after end
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = Date(start), Date(end)
	if start.After(end) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: start, End: end}, nil
}

// ParseDateRange parses and validates a pair of YYYY-MM-DD strings
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

// MustDateRange is NewDateRange for fixtures; it panics on an invalid range
func MustDateRange(start, end string) DateRange {
	r, err := ParseDateRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Days returns the inclusive number of calendar days in the range
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Each calls fn for every date from Start to End in ascending order.
// The walk stops at End + 1 day, exclusive. Iteration halts on the first error.
func (r DateRange) Each(fn func(day time.Time) error) error {
	stop := r.End.AddDate(0, 0, 1)
	for d := r.Start; d.Before(stop); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// Dates returns every date in the range in ascending order
func (r DateRange) Dates() []time.Time {
	dates := make([]time.Time, 0, r.Days())
	_ = r.Each(func(d time.Time) error {
		dates = append(dates, d)
		return nil
	})
	return dates
}

// Overlaps reports whether the two ranges share at least one day
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Contains reports whether day falls inside the range
func (r DateRange) Contains(day time.Time) bool {
	day = Date(day)
	return !day.Before(r.Start) && !day.After(r.End)
}

// String returns the range as "start..end"
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
