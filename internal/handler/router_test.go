package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/rental-booking/internal/dto"
	"github.com/prohmpiriya/rental-booking/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServices struct {
	availability *MockAvailabilityService
	bookings     *MockBookingService
	accounts     *MockAccountService
}

func newTestServices() *testServices {
	return &testServices{
		availability: &MockAvailabilityService{},
		bookings:     &MockBookingService{},
		accounts:     &MockAccountService{},
	}
}

func setupTestRouter(s *testServices) *gin.Engine {
	router := gin.New()
	router.Use(middleware.UserID())

	availability := NewAvailabilityHandler(s.availability)
	bookings := NewBookingHandler(s.bookings)
	accounts := NewAccountHandler(s.accounts)
	admin := NewAdminHandler(s.bookings)

	v1 := router.Group("/api/v1")
	{
		v1.PUT("/accounts/:id", accounts.RegisterAccount)

		listings := v1.Group("/listings/:id")
		listings.PUT("", accounts.RegisterListing)
		listings.DELETE("", accounts.RemoveListing)
		listings.GET("/availability", availability.CheckAvailability)
		listings.POST("/availability", availability.OfferAvailability)
		listings.PATCH("/availability", availability.RepriceAvailability)
		listings.DELETE("/availability", availability.RetractAvailability)
		listings.GET("/calendar", availability.GetCalendar)
		listings.GET("/quote", availability.QuoteCost)

		v1.POST("/bookings", bookings.CreateBooking)
		v1.GET("/bookings/:id", bookings.GetBooking)
		v1.POST("/bookings/:id/cancel", bookings.CancelBooking)
		v1.POST("/bookings/:id/review", bookings.ReviewBooking)

		v1.GET("/renters/:id/bookings", bookings.ListRenterBookings)
		v1.DELETE("/renters/:id", accounts.DeactivateRenter)
		v1.GET("/hosts/:id/bookings", bookings.ListHostBookings)
		v1.DELETE("/hosts/:id", accounts.DeleteHost)

		v1.POST("/admin/sweep", admin.Sweep)
	}
	return router
}

func doRequest(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
