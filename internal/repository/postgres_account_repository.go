package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// PostgresAccountRepository implements AccountRepository using PostgreSQL
type PostgresAccountRepository struct {
	db DBTX
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db DBTX) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// UpsertAccount registers an account as ACTIVE
func (r *PostgresAccountRepository) UpsertAccount(ctx context.Context, id string) (*domain.Account, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.account.upsert")
	defer span.End()

	span.SetAttributes(attribute.String("account_id", id))

	query := `
		INSERT INTO accounts (id, status)
		VALUES ($1, 'ACTIVE')
		ON CONFLICT (id) DO UPDATE SET status = 'ACTIVE', updated_at = NOW()
		RETURNING id, status
	`

	account := &domain.Account{}
	var status string
	if err := r.db.QueryRow(ctx, query, id).Scan(&account.ID, &status); err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}
	account.Status = domain.AccountStatus(status)

	span.SetStatus(codes.Ok, "")
	return account, nil
}

// GetAccount retrieves an account by ID
func (r *PostgresAccountRepository) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.account.get")
	defer span.End()

	span.SetAttributes(attribute.String("account_id", id))

	account := &domain.Account{}
	var status string
	err := r.db.QueryRow(ctx, `SELECT id, status FROM accounts WHERE id = $1`, id).Scan(&account.ID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrAccountNotFound
		}
		failSpan(span, err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	account.Status = domain.AccountStatus(status)

	span.SetStatus(codes.Ok, "")
	return account, nil
}

// LockAccount retrieves an account and holds a share lock on its row until the transaction ends
func (r *PostgresAccountRepository) LockAccount(ctx context.Context, id string) (*domain.Account, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.account.lock")
	defer span.End()

	span.SetAttributes(attribute.String("account_id", id))

	account := &domain.Account{}
	var status string
	err := r.db.QueryRow(ctx, `SELECT id, status FROM accounts WHERE id = $1 FOR SHARE`, id).Scan(&account.ID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrAccountNotFound
		}
		failSpan(span, err)
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	account.Status = domain.AccountStatus(status)

	span.SetStatus(codes.Ok, "")
	return account, nil
}

// SetAccountStatus sets the activity flag of an account
func (r *PostgresAccountRepository) SetAccountStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.account.set_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("account_id", id),
		attribute.String("status", string(status)),
	)

	result, err := r.db.Exec(ctx, `UPDATE accounts SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to set account status: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrAccountNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UpsertListing registers a listing as ACTIVE under hostID
func (r *PostgresAccountRepository) UpsertListing(ctx context.Context, id, hostID string) (*domain.Listing, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.listing.upsert")
	defer span.End()

	span.SetAttributes(
		attribute.String("listing_id", id),
		attribute.String("host_id", hostID),
	)

	query := `
		INSERT INTO listings (id, host_id, status)
		VALUES ($1, $2, 'ACTIVE')
		ON CONFLICT (id) DO UPDATE SET host_id = EXCLUDED.host_id, status = 'ACTIVE', updated_at = NOW()
		RETURNING id, host_id, status
	`

	listing := &domain.Listing{}
	var status string
	if err := r.db.QueryRow(ctx, query, id, hostID).Scan(&listing.ID, &listing.HostID, &status); err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("failed to upsert listing: %w", err)
	}
	listing.Status = domain.ListingStatus(status)

	span.SetStatus(codes.Ok, "")
	return listing, nil
}

// GetListing retrieves a listing by ID
func (r *PostgresAccountRepository) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.listing.get")
	defer span.End()

	span.SetAttributes(attribute.String("listing_id", id))

	listing := &domain.Listing{}
	var status string
	err := r.db.QueryRow(ctx, `SELECT id, host_id, status FROM listings WHERE id = $1`, id).
		Scan(&listing.ID, &listing.HostID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrListingNotFound
		}
		failSpan(span, err)
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	listing.Status = domain.ListingStatus(status)

	span.SetStatus(codes.Ok, "")
	return listing, nil
}

// LockListing retrieves a listing and holds a share lock on its row until the transaction ends
func (r *PostgresAccountRepository) LockListing(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.listing.lock")
	defer span.End()

	span.SetAttributes(attribute.String("listing_id", id))

	listing := &domain.Listing{}
	var status string
	err := r.db.QueryRow(ctx, `SELECT id, host_id, status FROM listings WHERE id = $1 FOR SHARE`, id).
		Scan(&listing.ID, &listing.HostID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrListingNotFound
		}
		failSpan(span, err)
		return nil, fmt.Errorf("failed to lock listing: %w", err)
	}
	listing.Status = domain.ListingStatus(status)

	span.SetStatus(codes.Ok, "")
	return listing, nil
}

// SetListingStatus sets the activity flag of a listing
func (r *PostgresAccountRepository) SetListingStatus(ctx context.Context, id string, status domain.ListingStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.listing.set_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("listing_id", id),
		attribute.String("status", string(status)),
	)

	result, err := r.db.Exec(ctx, `UPDATE listings SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to set listing status: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrListingNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListActiveListingsByHost returns the ACTIVE listings of a host
func (r *PostgresAccountRepository) ListActiveListingsByHost(ctx context.Context, hostID string) ([]*domain.Listing, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.listing.list_active_by_host")
	defer span.End()

	span.SetAttributes(attribute.String("host_id", hostID))

	query := `
		SELECT id, host_id, status
		FROM listings
		WHERE host_id = $1 AND status = 'ACTIVE'
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, hostID)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("failed to list host listings: %w", err)
	}
	defer rows.Close()

	var listings []*domain.Listing
	for rows.Next() {
		listing := &domain.Listing{}
		var status string
		if err := rows.Scan(&listing.ID, &listing.HostID, &status); err != nil {
			failSpan(span, err)
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listing.Status = domain.ListingStatus(status)
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	span.SetAttributes(attribute.Int("listings", len(listings)))
	span.SetStatus(codes.Ok, "")
	return listings, nil
}

// Ensure PostgresAccountRepository implements AccountRepository
var _ AccountRepository = (*PostgresAccountRepository)(nil)
