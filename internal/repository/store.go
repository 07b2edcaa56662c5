package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// Store groups the repositories bound to one connection or transaction
type Store interface {
	Calendar() CalendarRepository
	Bookings() BookingRepository
	Accounts() AccountRepository
	Outbox() OutboxRepository
}

// TxManager runs a unit of work in a single database transaction
type TxManager interface {
	// WithinTx commits when fn returns nil and rolls back otherwise
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// PostgresStore implements Store over any DBTX
type PostgresStore struct {
	calendar *PostgresCalendarRepository
	bookings *PostgresBookingRepository
	accounts *PostgresAccountRepository
	outbox   *PostgresOutboxRepository
}

// NewPostgresStore binds every repository to db
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{
		calendar: NewPostgresCalendarRepository(db),
		bookings: NewPostgresBookingRepository(db),
		accounts: NewPostgresAccountRepository(db),
		outbox:   NewPostgresOutboxRepository(db),
	}
}

func (s *PostgresStore) Calendar() CalendarRepository { return s.calendar }
func (s *PostgresStore) Bookings() BookingRepository  { return s.bookings }
func (s *PostgresStore) Accounts() AccountRepository  { return s.accounts }
func (s *PostgresStore) Outbox() OutboxRepository     { return s.outbox }

// PostgresTxManager implements TxManager with pgx transactions at READ COMMITTED.
// Callers take FOR UPDATE row locks for the rows they decide on.
type PostgresTxManager struct {
	pool *pgxpool.Pool
}

// NewPostgresTxManager creates a new PostgresTxManager
func NewPostgresTxManager(pool *pgxpool.Pool) *PostgresTxManager {
	return &PostgresTxManager{pool: pool}
}

// WithinTx runs fn inside a transaction
func (m *PostgresTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.tx")
	defer span.End()

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, NewPostgresStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

var (
	_ Store     = (*PostgresStore)(nil)
	_ TxManager = (*PostgresTxManager)(nil)
)
