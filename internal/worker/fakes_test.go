package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/pkg/retry"
)

// fakeOutbox keeps outbox rows in memory with the status transitions of the Postgres repository
type fakeOutbox struct {
	mu       sync.Mutex
	messages []*domain.OutboxMessage
	fetchErr error
	deleted  time.Time
}

func (f *fakeOutbox) add(msgs ...*domain.OutboxMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msgs...)
}

func (f *fakeOutbox) get(id string) *domain.OutboxMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (f *fakeOutbox) filter(limit int, keep func(*domain.OutboxMessage) bool) ([]*domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []*domain.OutboxMessage
	for _, m := range f.messages {
		if keep(m) && len(out) < limit {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOutbox) Create(ctx context.Context, msg *domain.OutboxMessage) error {
	f.add(msg)
	return nil
}

func (f *fakeOutbox) GetPending(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	return f.filter(limit, func(m *domain.OutboxMessage) bool { return m.Status == domain.OutboxStatusPending })
}

func (f *fakeOutbox) GetRetryable(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	return f.filter(limit, func(m *domain.OutboxMessage) bool { return m.CanRetry() })
}

func (f *fakeOutbox) GetExhausted(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	return f.filter(limit, func(m *domain.OutboxMessage) bool { return m.ShouldDeadLetter() })
}

func (f *fakeOutbox) update(id string, fn func(*domain.OutboxMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			fn(m)
			return nil
		}
	}
	return errors.New("outbox message not found")
}

func (f *fakeOutbox) MarkPublished(ctx context.Context, id string) error {
	return f.update(id, func(m *domain.OutboxMessage) { m.MarkAsPublished() })
}

func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return f.update(id, func(m *domain.OutboxMessage) { m.MarkAsFailed(errMsg) })
}

func (f *fakeOutbox) MarkDeadLettered(ctx context.Context, id string) error {
	return f.update(id, func(m *domain.OutboxMessage) { m.Status = domain.OutboxStatusDeadLettered })
}

func (f *fakeOutbox) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = cutoff
	var kept []*domain.OutboxMessage
	var n int64
	for _, m := range f.messages {
		if m.Status == domain.OutboxStatusPublished && m.PublishedAt != nil && m.PublishedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	f.messages = kept
	return n, nil
}

var _ repository.OutboxRepository = (*fakeOutbox)(nil)

// fakeStore exposes only the outbox; the workers never touch the other repositories
type fakeStore struct {
	outbox *fakeOutbox
}

func (s *fakeStore) Calendar() repository.CalendarRepository { return nil }
func (s *fakeStore) Bookings() repository.BookingRepository  { return nil }
func (s *fakeStore) Accounts() repository.AccountRepository  { return nil }
func (s *fakeStore) Outbox() repository.OutboxRepository     { return s.outbox }

type fakeTxManager struct {
	store *fakeStore
	calls int
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	m.calls++
	return fn(ctx, m.store)
}

// fakePublisher fails for message IDs listed in failFor
type fakePublisher struct {
	mu        sync.Mutex
	failFor   map[string]bool
	published []string
}

func (p *fakePublisher) Publish(ctx context.Context, msg *domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[msg.ID] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, msg.ID)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeDLQ struct {
	mu       sync.Mutex
	messages []*retry.DLQMessage
	err      error
}

func (d *fakeDLQ) PublishToDLQ(ctx context.Context, msg *retry.DLQMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, msg)
	return nil
}

func (d *fakeDLQ) GetDLQTopic(originalTopic string) string {
	return originalTopic + ".dlq"
}

// fakeSweeper returns errs in order before succeeding with count
type fakeSweeper struct {
	mu    sync.Mutex
	errs  []error
	count int64
	days  []time.Time
}

func (s *fakeSweeper) SweepExpiredBookings(ctx context.Context, today time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days = append(s.days, today)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return 0, err
	}
	return s.count, nil
}

func (s *fakeSweeper) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.days)
}
