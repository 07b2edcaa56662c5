package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/rental-booking/internal/dto"
	"github.com/prohmpiriya/rental-booking/internal/service"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// AccountHandler handles listing and account lifecycle requests
type AccountHandler struct {
	accountService service.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// RegisterAccount handles PUT /accounts/:id
func (h *AccountHandler) RegisterAccount(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.account.register")
	defer span.End()

	account, err := h.accountService.RegisterAccount(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.AccountFromDomain(account))
}

// RegisterListing handles PUT /listings/:id
func (h *AccountHandler) RegisterListing(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.account.register_listing")
	defer span.End()

	var req dto.RegisterListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		badRequest(c, err)
		return
	}

	listing, err := h.accountService.RegisterListing(ctx, c.Param("id"), req.HostID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.ListingFromDomain(listing))
}

// RemoveListing handles DELETE /listings/:id
func (h *AccountHandler) RemoveListing(c *gin.Context) {
	h.cascade(c, "handler.account.remove_listing", h.accountService.RemoveListing)
}

// DeactivateRenter handles DELETE /renters/:id
func (h *AccountHandler) DeactivateRenter(c *gin.Context) {
	h.cascade(c, "handler.account.deactivate_renter", h.accountService.DeactivateRenter)
}

// DeleteHost handles DELETE /hosts/:id
func (h *AccountHandler) DeleteHost(c *gin.Context) {
	h.cascade(c, "handler.account.delete_host", h.accountService.DeleteHost)
}

func (h *AccountHandler) cascade(c *gin.Context, spanName string, op func(ctx context.Context, id string) (int, error)) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), spanName)
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("id", id))

	cancelled, err := op(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("cancelled", cancelled))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.CascadeResponse{ID: id, CancelledBookings: cancelled})
}
