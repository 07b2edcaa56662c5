package handler

import (
	"context"
	"time"

	"github.com/prohmpiriya/rental-booking/internal/domain"
)

// MockAvailabilityService is a mock implementation of AvailabilityService for testing
type MockAvailabilityService struct {
	IsFullyAvailableFunc    func(ctx context.Context, listingID string, rng domain.DateRange) (bool, error)
	QuoteCostFunc           func(ctx context.Context, listingID string, rng domain.DateRange) (float64, error)
	GetRangeFunc            func(ctx context.Context, listingID string, rng domain.DateRange) ([]*domain.Day, error)
	OfferAvailabilityFunc   func(ctx context.Context, listingID string, rng domain.DateRange, price float64) (int, error)
	RetractAvailabilityFunc func(ctx context.Context, listingID string, rng domain.DateRange) (int, error)
	RepriceAvailabilityFunc func(ctx context.Context, listingID string, rng domain.DateRange, price float64) (int, error)
}

func (m *MockAvailabilityService) IsFullyAvailable(ctx context.Context, listingID string, rng domain.DateRange) (bool, error) {
	if m.IsFullyAvailableFunc != nil {
		return m.IsFullyAvailableFunc(ctx, listingID, rng)
	}
	return false, nil
}

func (m *MockAvailabilityService) QuoteCost(ctx context.Context, listingID string, rng domain.DateRange) (float64, error) {
	if m.QuoteCostFunc != nil {
		return m.QuoteCostFunc(ctx, listingID, rng)
	}
	return 0, nil
}

func (m *MockAvailabilityService) GetRange(ctx context.Context, listingID string, rng domain.DateRange) ([]*domain.Day, error) {
	if m.GetRangeFunc != nil {
		return m.GetRangeFunc(ctx, listingID, rng)
	}
	return nil, nil
}

func (m *MockAvailabilityService) OfferAvailability(ctx context.Context, listingID string, rng domain.DateRange, price float64) (int, error) {
	if m.OfferAvailabilityFunc != nil {
		return m.OfferAvailabilityFunc(ctx, listingID, rng, price)
	}
	return 0, nil
}

func (m *MockAvailabilityService) RetractAvailability(ctx context.Context, listingID string, rng domain.DateRange) (int, error) {
	if m.RetractAvailabilityFunc != nil {
		return m.RetractAvailabilityFunc(ctx, listingID, rng)
	}
	return 0, nil
}

func (m *MockAvailabilityService) RepriceAvailability(ctx context.Context, listingID string, rng domain.DateRange, price float64) (int, error) {
	if m.RepriceAvailabilityFunc != nil {
		return m.RepriceAvailabilityFunc(ctx, listingID, rng, price)
	}
	return 0, nil
}

// MockBookingService is a mock implementation of BookingService for testing
type MockBookingService struct {
	CreateBookingFunc        func(ctx context.Context, renterID, listingID string, rng domain.DateRange) (*domain.Booking, error)
	CancelBookingFunc        func(ctx context.Context, bookingID string) (*domain.Booking, error)
	SweepExpiredBookingsFunc func(ctx context.Context, today time.Time) (int64, error)
	ReviewBookingFunc        func(ctx context.Context, bookingID, text string, rating *int) (*domain.Booking, error)
	GetBookingFunc           func(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListRenterBookingsFunc   func(ctx context.Context, renterID string, status domain.BookingStatus) ([]*domain.Booking, error)
	ListHostBookingsFunc     func(ctx context.Context, hostID string, status domain.BookingStatus) ([]*domain.Booking, error)
}

func (m *MockBookingService) CreateBooking(ctx context.Context, renterID, listingID string, rng domain.DateRange) (*domain.Booking, error) {
	if m.CreateBookingFunc != nil {
		return m.CreateBookingFunc(ctx, renterID, listingID, rng)
	}
	return nil, nil
}

func (m *MockBookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if m.CancelBookingFunc != nil {
		return m.CancelBookingFunc(ctx, bookingID)
	}
	return nil, nil
}

func (m *MockBookingService) SweepExpiredBookings(ctx context.Context, today time.Time) (int64, error) {
	if m.SweepExpiredBookingsFunc != nil {
		return m.SweepExpiredBookingsFunc(ctx, today)
	}
	return 0, nil
}

func (m *MockBookingService) ReviewBooking(ctx context.Context, bookingID, text string, rating *int) (*domain.Booking, error) {
	if m.ReviewBookingFunc != nil {
		return m.ReviewBookingFunc(ctx, bookingID, text, rating)
	}
	return nil, nil
}

func (m *MockBookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if m.GetBookingFunc != nil {
		return m.GetBookingFunc(ctx, bookingID)
	}
	return nil, nil
}

func (m *MockBookingService) ListRenterBookings(ctx context.Context, renterID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	if m.ListRenterBookingsFunc != nil {
		return m.ListRenterBookingsFunc(ctx, renterID, status)
	}
	return nil, nil
}

func (m *MockBookingService) ListHostBookings(ctx context.Context, hostID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	if m.ListHostBookingsFunc != nil {
		return m.ListHostBookingsFunc(ctx, hostID, status)
	}
	return nil, nil
}

// MockAccountService is a mock implementation of AccountService for testing
type MockAccountService struct {
	RegisterAccountFunc  func(ctx context.Context, accountID string) (*domain.Account, error)
	RegisterListingFunc  func(ctx context.Context, listingID, hostID string) (*domain.Listing, error)
	RemoveListingFunc    func(ctx context.Context, listingID string) (int, error)
	DeactivateRenterFunc func(ctx context.Context, renterID string) (int, error)
	DeleteHostFunc       func(ctx context.Context, hostID string) (int, error)
}

func (m *MockAccountService) RegisterAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if m.RegisterAccountFunc != nil {
		return m.RegisterAccountFunc(ctx, accountID)
	}
	return &domain.Account{ID: accountID, Status: domain.AccountStatusActive}, nil
}

func (m *MockAccountService) RegisterListing(ctx context.Context, listingID, hostID string) (*domain.Listing, error) {
	if m.RegisterListingFunc != nil {
		return m.RegisterListingFunc(ctx, listingID, hostID)
	}
	return &domain.Listing{ID: listingID, HostID: hostID, Status: domain.ListingStatusActive}, nil
}

func (m *MockAccountService) RemoveListing(ctx context.Context, listingID string) (int, error) {
	if m.RemoveListingFunc != nil {
		return m.RemoveListingFunc(ctx, listingID)
	}
	return 0, nil
}

func (m *MockAccountService) DeactivateRenter(ctx context.Context, renterID string) (int, error) {
	if m.DeactivateRenterFunc != nil {
		return m.DeactivateRenterFunc(ctx, renterID)
	}
	return 0, nil
}

func (m *MockAccountService) DeleteHost(ctx context.Context, hostID string) (int, error) {
	if m.DeleteHostFunc != nil {
		return m.DeleteHostFunc(ctx, hostID)
	}
	return 0, nil
}
