package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/repository"
)

var errInjected = errors.New("injected storage failure")

// memoryStore is an in-memory Store and TxManager. WithinTx serializes
// transactions and restores a snapshot when fn fails.
type memoryStore struct {
	txMu sync.Mutex

	days     map[string]map[string]*domain.Day
	bookings map[string]*domain.Booking
	listings map[string]*domain.Listing
	accounts map[string]*domain.Account
	outbox   []*domain.OutboxMessage

	// failSetStatusAfter makes SetStatus fail after n successful calls when > 0
	failSetStatusAfter int
	setStatusCalls     int
	txCount            int

	// failSumPrice makes SumPrice report a gap in the day rows
	failSumPrice bool

	// calls records listing-level reads and writes in order
	calls []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		days:     make(map[string]map[string]*domain.Day),
		bookings: make(map[string]*domain.Booking),
		listings: make(map[string]*domain.Listing),
		accounts: make(map[string]*domain.Account),
	}
}

// seed registers a host, a renter and an ACTIVE listing
func (m *memoryStore) seed(listingID, hostID string, renterIDs ...string) {
	m.accounts[hostID] = &domain.Account{ID: hostID, Status: domain.AccountStatusActive}
	for _, id := range renterIDs {
		m.accounts[id] = &domain.Account{ID: id, Status: domain.AccountStatusActive}
	}
	m.listings[listingID] = &domain.Listing{ID: listingID, HostID: hostID, Status: domain.ListingStatusActive}
}

// dayStatus returns the status of a day or "" when absent
func (m *memoryStore) dayStatus(listingID, date string) domain.DayStatus {
	if d, ok := m.days[listingID][date]; ok {
		return d.Status
	}
	return ""
}

func (m *memoryStore) dayPrice(listingID, date string) float64 {
	if d, ok := m.days[listingID][date]; ok {
		return d.Price
	}
	return -1
}

func (m *memoryStore) eventTypes() []string {
	types := make([]string, 0, len(m.outbox))
	for _, msg := range m.outbox {
		types = append(types, msg.EventType)
	}
	return types
}

func (m *memoryStore) Calendar() repository.CalendarRepository { return memCalendar{m} }
func (m *memoryStore) Bookings() repository.BookingRepository  { return memBookings{m} }
func (m *memoryStore) Accounts() repository.AccountRepository  { return memAccounts{m} }
func (m *memoryStore) Outbox() repository.OutboxRepository     { return memOutbox{m} }

func (m *memoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.txCount++

	snapshot := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	days     map[string]map[string]*domain.Day
	bookings map[string]*domain.Booking
	listings map[string]*domain.Listing
	accounts map[string]*domain.Account
	outbox   []*domain.OutboxMessage
}

func (m *memoryStore) snapshot() memorySnapshot {
	s := memorySnapshot{
		days:     make(map[string]map[string]*domain.Day, len(m.days)),
		bookings: make(map[string]*domain.Booking, len(m.bookings)),
		listings: make(map[string]*domain.Listing, len(m.listings)),
		accounts: make(map[string]*domain.Account, len(m.accounts)),
		outbox:   append([]*domain.OutboxMessage(nil), m.outbox...),
	}
	for listing, days := range m.days {
		copied := make(map[string]*domain.Day, len(days))
		for k, d := range days {
			c := *d
			copied[k] = &c
		}
		s.days[listing] = copied
	}
	for k, b := range m.bookings {
		c := *b
		s.bookings[k] = &c
	}
	for k, l := range m.listings {
		c := *l
		s.listings[k] = &c
	}
	for k, a := range m.accounts {
		c := *a
		s.accounts[k] = &c
	}
	return s
}

func (m *memoryStore) restore(s memorySnapshot) {
	m.days = s.days
	m.bookings = s.bookings
	m.listings = s.listings
	m.accounts = s.accounts
	m.outbox = s.outbox
}

func key(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// --- calendar ---

type memCalendar struct{ m *memoryStore }

func (c memCalendar) GetRange(ctx context.Context, listingID string, start, end time.Time) ([]*domain.Day, error) {
	var days []*domain.Day
	rng := domain.DateRange{Start: start, End: end}
	for _, date := range rng.Dates() {
		if d, ok := c.m.days[listingID][key(date)]; ok {
			copied := *d
			days = append(days, &copied)
		}
	}
	return days, nil
}

func (c memCalendar) LockRange(ctx context.Context, listingID string, start, end time.Time) ([]*domain.Day, error) {
	return c.GetRange(ctx, listingID, start, end)
}

func (c memCalendar) HasAnyWithStatusInRange(ctx context.Context, listingID string, start, end time.Time, statuses ...domain.DayStatus) (bool, error) {
	days, _ := c.GetRange(ctx, listingID, start, end)
	for _, d := range days {
		for _, s := range statuses {
			if d.Status == s {
				return true, nil
			}
		}
	}
	return false, nil
}

func (c memCalendar) CountWithStatusInRange(ctx context.Context, listingID string, start, end time.Time, status domain.DayStatus) (int, error) {
	days, _ := c.GetRange(ctx, listingID, start, end)
	count := 0
	for _, d := range days {
		if d.Status == status {
			count++
		}
	}
	return count, nil
}

func (c memCalendar) HasBookingOverlap(ctx context.Context, listingID string, start, end time.Time) (bool, error) {
	rng := domain.DateRange{Start: start, End: end}
	for _, b := range c.m.bookings {
		if b.ListingID == listingID && !b.IsCanceled() && b.Range().Overlaps(rng) {
			return true, nil
		}
	}
	return false, nil
}

func (c memCalendar) SetStatus(ctx context.Context, listingID string, date time.Time, status domain.DayStatus) error {
	c.m.setStatusCalls++
	if c.m.failSetStatusAfter > 0 && c.m.setStatusCalls > c.m.failSetStatusAfter {
		return errInjected
	}
	if d, ok := c.m.days[listingID][key(date)]; ok {
		d.Status = status
	}
	return nil
}

func (c memCalendar) SetPrice(ctx context.Context, listingID string, date time.Time, price float64) error {
	if d, ok := c.m.days[listingID][key(date)]; ok {
		d.Price = price
	}
	return nil
}

func (c memCalendar) Insert(ctx context.Context, day *domain.Day) error {
	if c.m.days[day.ListingID] == nil {
		c.m.days[day.ListingID] = make(map[string]*domain.Day)
	}
	if _, ok := c.m.days[day.ListingID][key(day.Date)]; ok {
		return errors.New("duplicate day")
	}
	copied := *day
	c.m.days[day.ListingID][key(day.Date)] = &copied
	return nil
}

func (c memCalendar) SumPrice(ctx context.Context, listingID string, start, end time.Time) (float64, error) {
	if c.m.failSumPrice {
		return 0, domain.ErrIncompleteCoverage
	}
	days, _ := c.GetRange(ctx, listingID, start, end)
	if len(days) != (domain.DateRange{Start: start, End: end}).Days() {
		return 0, domain.ErrIncompleteCoverage
	}
	total := 0.0
	for _, d := range days {
		total += d.Price
	}
	return total, nil
}

// --- bookings ---

type memBookings struct{ m *memoryStore }

func (r memBookings) Create(ctx context.Context, booking *domain.Booking) error {
	copied := *booking
	r.m.bookings[booking.ID] = &copied
	return nil
}

func (r memBookings) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r memBookings) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	b, ok := r.m.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (r memBookings) SetReview(ctx context.Context, id string, review string, rating *int) error {
	b, ok := r.m.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.Review = &review
	b.Rating = nil
	if rating != nil {
		stored := *rating
		b.Rating = &stored
	}
	return nil
}

func (r memBookings) filter(keep func(b *domain.Booking) bool) []*domain.Booking {
	var out []*domain.Booking
	for _, b := range r.m.bookings {
		if keep(b) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

func (r memBookings) ListUpcomingByListing(ctx context.Context, listingID string) ([]*domain.Booking, error) {
	r.m.calls = append(r.m.calls, "ListUpcomingByListing")
	return r.filter(func(b *domain.Booking) bool {
		return b.ListingID == listingID && b.Status == domain.BookingStatusUpcoming
	}), nil
}

func (r memBookings) ListUpcomingByRenter(ctx context.Context, renterID string) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.RenterID == renterID && b.Status == domain.BookingStatusUpcoming
	}), nil
}

func (r memBookings) ListByRenter(ctx context.Context, renterID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.RenterID == renterID && (status == "" || b.Status == status)
	}), nil
}

func (r memBookings) ListByHost(ctx context.Context, hostID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		l, ok := r.m.listings[b.ListingID]
		return ok && l.HostID == hostID && (status == "" || b.Status == status)
	}), nil
}

func (r memBookings) CompleteExpired(ctx context.Context, today time.Time) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range r.m.bookings {
		if b.Status == domain.BookingStatusUpcoming && b.EndDate.Before(today) {
			b.Status = domain.BookingStatusPast
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

// --- accounts ---

type memAccounts struct{ m *memoryStore }

func (r memAccounts) UpsertAccount(ctx context.Context, id string) (*domain.Account, error) {
	a := &domain.Account{ID: id, Status: domain.AccountStatusActive}
	r.m.accounts[id] = a
	copied := *a
	return &copied, nil
}

func (r memAccounts) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	a, ok := r.m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (r memAccounts) LockAccount(ctx context.Context, id string) (*domain.Account, error) {
	return r.GetAccount(ctx, id)
}

func (r memAccounts) SetAccountStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	a, ok := r.m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Status = status
	return nil
}

func (r memAccounts) UpsertListing(ctx context.Context, id, hostID string) (*domain.Listing, error) {
	l := &domain.Listing{ID: id, HostID: hostID, Status: domain.ListingStatusActive}
	r.m.listings[id] = l
	copied := *l
	return &copied, nil
}

func (r memAccounts) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l, ok := r.m.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	copied := *l
	return &copied, nil
}

func (r memAccounts) LockListing(ctx context.Context, id string) (*domain.Listing, error) {
	r.m.calls = append(r.m.calls, "LockListing")
	return r.GetListing(ctx, id)
}

func (r memAccounts) SetListingStatus(ctx context.Context, id string, status domain.ListingStatus) error {
	r.m.calls = append(r.m.calls, "SetListingStatus")
	l, ok := r.m.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	l.Status = status
	return nil
}

func (r memAccounts) ListActiveListingsByHost(ctx context.Context, hostID string) ([]*domain.Listing, error) {
	var out []*domain.Listing
	for _, l := range r.m.listings {
		if l.HostID == hostID && l.IsActive() {
			copied := *l
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- outbox ---

type memOutbox struct{ m *memoryStore }

func (r memOutbox) Create(ctx context.Context, msg *domain.OutboxMessage) error {
	r.m.outbox = append(r.m.outbox, msg)
	return nil
}

func (r memOutbox) GetPending(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	return nil, nil
}

func (r memOutbox) GetRetryable(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	return nil, nil
}

func (r memOutbox) GetExhausted(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	return nil, nil
}

func (r memOutbox) MarkPublished(ctx context.Context, id string) error { return nil }

func (r memOutbox) MarkFailed(ctx context.Context, id string, errMsg string) error { return nil }

func (r memOutbox) MarkDeadLettered(ctx context.Context, id string) error { return nil }

func (r memOutbox) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

var (
	_ repository.Store     = (*memoryStore)(nil)
	_ repository.TxManager = (*memoryStore)(nil)
)

// recordingLocker counts acquisitions and can simulate a busy listing
type recordingLocker struct {
	mu       sync.Mutex
	acquired []string
	released int
	busy     map[string]bool
}

func (l *recordingLocker) Acquire(ctx context.Context, listingID string) (repository.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy[listingID] {
		return nil, domain.ErrListingBusy
	}
	l.acquired = append(l.acquired, listingID)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}
