package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/dto"
	"github.com/prohmpiriya/rental-booking/internal/service"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// AdminHandler handles operator HTTP requests
type AdminHandler struct {
	bookingService service.BookingService
	now            func() time.Time
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(bookingService service.BookingService) *AdminHandler {
	return &AdminHandler{
		bookingService: bookingService,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Sweep handles POST /admin/sweep.
// The body may name the date to sweep as; it defaults to today (UTC).
func (h *AdminHandler) Sweep(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.sweep")
	defer span.End()

	var req dto.SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			span.SetStatus(codes.Error, "invalid request")
			badRequest(c, err)
			return
		}
	}

	today := domain.Date(h.now())
	if req.Date != "" {
		d, err := domain.ParseDate(req.Date)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			handleError(c, err)
			return
		}
		today = d
	}

	count, err := h.bookingService.SweepExpiredBookings(ctx, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("completed", count))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SweepResponse{
		Date:  today.Format(domain.DateLayout),
		Count: count,
	})
}
