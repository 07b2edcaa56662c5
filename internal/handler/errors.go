package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/dto"
)

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	body := dto.ErrorResponse{Error: err.Error(), Code: code}

	switch code {
	case "INTERNAL_ERROR":
		_ = c.Error(err)
		body.Error = "internal server error"
	case "LISTING_BUSY":
		body.Message = "The listing is being modified by another request. Please retry."
	case "COST_COMPUTATION_FAILED":
		body.Message = "Some days in the range have no price."
	}

	c.JSON(status, body)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest, "INVALID_DATE"
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest, "INVALID_RANGE"
	case errors.Is(err, domain.ErrRangeTooLong):
		return http.StatusBadRequest, "RANGE_TOO_LONG"
	case errors.Is(err, domain.ErrInvalidPrice):
		return http.StatusBadRequest, "INVALID_PRICE"
	case errors.Is(err, domain.ErrInvalidRating):
		return http.StatusBadRequest, "INVALID_RATING"
	case errors.Is(err, domain.ErrReviewTooLong):
		return http.StatusBadRequest, "REVIEW_TOO_LONG"
	case errors.Is(err, domain.ErrInvalidBookingStatus):
		return http.StatusBadRequest, "INVALID_STATUS"
	case errors.Is(err, domain.ErrInvalidListingID),
		errors.Is(err, domain.ErrInvalidBookingID),
		errors.Is(err, domain.ErrInvalidRenterID),
		errors.Is(err, domain.ErrInvalidHostID):
		return http.StatusBadRequest, "INVALID_REQUEST"

	case errors.Is(err, domain.ErrRangeUnavailable):
		return http.StatusConflict, "RANGE_UNAVAILABLE"
	case errors.Is(err, domain.ErrBookingConflict):
		return http.StatusConflict, "BOOKING_CONFLICT"
	case errors.Is(err, domain.ErrBookingNotCancelable):
		return http.StatusConflict, "NOT_CANCELABLE"
	case errors.Is(err, domain.ErrListingBusy):
		return http.StatusConflict, "LISTING_BUSY"
	case errors.Is(err, domain.ErrListingInactive):
		return http.StatusConflict, "LISTING_INACTIVE"
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusConflict, "ACCOUNT_INACTIVE"

	case errors.Is(err, domain.ErrCostComputationFailed):
		return http.StatusUnprocessableEntity, "COST_COMPUTATION_FAILED"

	case domain.IsNotFoundError(err):
		return http.StatusNotFound, "NOT_FOUND"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "invalid request",
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

// parseStatusFilter reads the optional ?status= filter
func parseStatusFilter(c *gin.Context) (domain.BookingStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return "", nil
	}
	return domain.ParseBookingStatus(raw)
}
