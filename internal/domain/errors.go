package domain

import "errors"

// Domain errors
var (
	// Range errors
	ErrInvalidRange     = errors.New("start date is after end date")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrRangeTooLong     = errors.New("date range exceeds the maximum length")
	ErrInvalidPrice     = errors.New("price must be between 0 and 9999999999.99")
	ErrInvalidListingID = errors.New("invalid listing id")

	// Availability errors
	ErrRangeUnavailable      = errors.New("listing is not available for the given date range")
	ErrCostComputationFailed = errors.New("cost could not be computed for the given date range")
	ErrIncompleteCoverage    = errors.New("price is not defined for every day in range")
	ErrListingBusy           = errors.New("listing is being modified by another request")

	// Booking errors
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingConflict      = errors.New("date range overlaps an active booking")
	ErrBookingNotCancelable = errors.New("booking can no longer be cancelled")
	ErrInvalidBookingID     = errors.New("invalid booking id")
	ErrInvalidRenterID      = errors.New("invalid renter id")
	ErrInvalidBookingStatus = errors.New("invalid booking status")

	// Review errors
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrReviewTooLong = errors.New("review text is too long")

	// Account errors
	ErrListingNotFound = errors.New("listing not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidHostID   = errors.New("invalid host id")
	ErrListingInactive = errors.New("listing is inactive")
	ErrAccountInactive = errors.New("account is inactive")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrListingNotFound) ||
		errors.Is(err, ErrAccountNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrRangeTooLong) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidListingID) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidRenterID) ||
		errors.Is(err, ErrInvalidHostID) ||
		errors.Is(err, ErrInvalidBookingStatus) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrReviewTooLong)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrRangeUnavailable) ||
		errors.Is(err, ErrBookingConflict) ||
		errors.Is(err, ErrBookingNotCancelable) ||
		errors.Is(err, ErrListingBusy) ||
		errors.Is(err, ErrListingInactive) ||
		errors.Is(err, ErrAccountInactive)
}
