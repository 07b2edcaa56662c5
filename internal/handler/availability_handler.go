package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/dto"
	"github.com/prohmpiriya/rental-booking/internal/service"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// AvailabilityHandler handles listing calendar HTTP requests
type AvailabilityHandler struct {
	availabilityService service.AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availabilityService service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// bindRange reads ?start=&end= and writes the error response itself
func bindRange(c *gin.Context) (domain.DateRange, bool) {
	var q dto.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return domain.DateRange{}, false
	}
	rng, err := q.ToRange()
	if err != nil {
		handleError(c, err)
		return domain.DateRange{}, false
	}
	return rng, true
}

// bindPricedRange reads a {start,end,price} body
func bindPricedRange(c *gin.Context) (domain.DateRange, float64, bool) {
	var req dto.RangePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return domain.DateRange{}, 0, false
	}
	rng, err := req.ToRange()
	if err != nil {
		handleError(c, err)
		return domain.DateRange{}, 0, false
	}
	return rng, *req.Price, true
}

// CheckAvailability handles GET /listings/:id/availability
func (h *AvailabilityHandler) CheckAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.check")
	defer span.End()

	listingID := c.Param("id")
	rng, ok := bindRange(c)
	if !ok {
		span.SetStatus(codes.Error, "invalid request")
		return
	}

	available, err := h.availabilityService.IsFullyAvailable(ctx, listingID, rng)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.AvailabilityResponse{
		ListingID: listingID,
		Start:     rng.Start.Format(domain.DateLayout),
		End:       rng.End.Format(domain.DateLayout),
		Available: available,
	})
}

// GetCalendar handles GET /listings/:id/calendar
func (h *AvailabilityHandler) GetCalendar(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.calendar")
	defer span.End()

	listingID := c.Param("id")
	rng, ok := bindRange(c)
	if !ok {
		span.SetStatus(codes.Error, "invalid request")
		return
	}

	days, err := h.availabilityService.GetRange(ctx, listingID, rng)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("days", len(days)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.NewCalendarResponse(listingID, rng, days))
}

// QuoteCost handles GET /listings/:id/quote
func (h *AvailabilityHandler) QuoteCost(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.quote")
	defer span.End()

	listingID := c.Param("id")
	rng, ok := bindRange(c)
	if !ok {
		span.SetStatus(codes.Error, "invalid request")
		return
	}

	cost, err := h.availabilityService.QuoteCost(ctx, listingID, rng)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.QuoteResponse{
		ListingID: listingID,
		Start:     rng.Start.Format(domain.DateLayout),
		End:       rng.End.Format(domain.DateLayout),
		Days:      rng.Days(),
		Cost:      cost,
	})
}

// OfferAvailability handles POST /listings/:id/availability
func (h *AvailabilityHandler) OfferAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.offer")
	defer span.End()

	rng, price, ok := bindPricedRange(c)
	if !ok {
		span.SetStatus(codes.Error, "invalid request")
		return
	}

	n, err := h.availabilityService.OfferAvailability(ctx, c.Param("id"), rng, price)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}

// RetractAvailability handles DELETE /listings/:id/availability
func (h *AvailabilityHandler) RetractAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.retract")
	defer span.End()

	rng, ok := bindRange(c)
	if !ok {
		span.SetStatus(codes.Error, "invalid request")
		return
	}

	n, err := h.availabilityService.RetractAvailability(ctx, c.Param("id"), rng)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}

// RepriceAvailability handles PATCH /listings/:id/availability
func (h *AvailabilityHandler) RepriceAvailability(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.availability.reprice")
	defer span.End()

	rng, price, ok := bindPricedRange(c)
	if !ok {
		span.SetStatus(codes.Error, "invalid request")
		return
	}

	n, err := h.availabilityService.RepriceAvailability(ctx, c.Param("id"), rng, price)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}
