package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

const bookingColumns = `
	b.id, b.renter_id, b.listing_id, b.start_date, b.end_date,
	b.cost::float8, b.status, b.review, b.rating, b.created_at, b.updated_at
`

// PostgresBookingRepository implements BookingRepository using PostgreSQL
type PostgresBookingRepository struct {
	db DBTX
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(db DBTX) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

// Create creates a new booking record in the database
func (r *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("renter_id", booking.RenterID),
		attribute.String("listing_id", booking.ListingID),
	)

	query := `
		INSERT INTO bookings (
			id, renter_id, listing_id, start_date, end_date,
			cost, status, review, rating, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.RenterID,
		booking.ListingID,
		booking.StartDate,
		booking.EndDate,
		booking.Cost,
		booking.Status.String(),
		booking.Review,
		booking.Rating,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to create booking: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a booking by its ID
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	return r.getOne(ctx, span, query, id)
}

// GetByIDForUpdate retrieves a booking and locks the row
func (r *PostgresBookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id_for_update")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1 FOR UPDATE`
	return r.getOne(ctx, span, query, id)
}

func (r *PostgresBookingRepository) getOne(ctx context.Context, span trace.Span, query string, id string) (*domain.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrBookingNotFound
		}
		failSpan(span, err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// UpdateStatus sets the status of a booking
func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", id),
		attribute.String("status", status.String()),
	)

	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status.String())
	if err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrBookingNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SetReview stores review text and rating on a booking
func (r *PostgresBookingRepository) SetReview(ctx context.Context, id string, review string, rating *int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.set_review")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))
	if rating != nil {
		span.SetAttributes(attribute.Int("rating", *rating))
	}

	query := `
		UPDATE bookings
		SET review = $2, rating = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, review, rating)
	if err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to set booking review: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrBookingNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListUpcomingByListing returns UPCOMING bookings of a listing, locked for update
func (r *PostgresBookingRepository) ListUpcomingByListing(ctx context.Context, listingID string) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_upcoming_by_listing")
	defer span.End()

	span.SetAttributes(attribute.String("listing_id", listingID))

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.listing_id = $1 AND b.status = 'UPCOMING'
		ORDER BY b.start_date ASC
		FOR UPDATE
	`

	return r.list(ctx, span, query, listingID)
}

// ListUpcomingByRenter returns UPCOMING bookings of a renter, locked for update
func (r *PostgresBookingRepository) ListUpcomingByRenter(ctx context.Context, renterID string) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_upcoming_by_renter")
	defer span.End()

	span.SetAttributes(attribute.String("renter_id", renterID))

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.renter_id = $1 AND b.status = 'UPCOMING'
		ORDER BY b.listing_id, b.start_date ASC
		FOR UPDATE
	`

	return r.list(ctx, span, query, renterID)
}

// ListByRenter returns a renter's bookings, newest stay first. An empty status returns all.
func (r *PostgresBookingRepository) ListByRenter(ctx context.Context, renterID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_by_renter")
	defer span.End()

	span.SetAttributes(
		attribute.String("renter_id", renterID),
		attribute.String("status", status.String()),
	)

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.renter_id = $1 AND ($2 = '' OR b.status = $2)
		ORDER BY b.start_date DESC
	`

	return r.list(ctx, span, query, renterID, status.String())
}

// ListByHost returns bookings on the host's listings. An empty status returns all.
func (r *PostgresBookingRepository) ListByHost(ctx context.Context, hostID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.list_by_host")
	defer span.End()

	span.SetAttributes(
		attribute.String("host_id", hostID),
		attribute.String("status", status.String()),
	)

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN listings l ON l.id = b.listing_id
		WHERE l.host_id = $1 AND ($2 = '' OR b.status = $2)
		ORDER BY b.start_date DESC
	`

	return r.list(ctx, span, query, hostID, status.String())
}

// CompleteExpired moves UPCOMING bookings with end_date < today to PAST in one statement
func (r *PostgresBookingRepository) CompleteExpired(ctx context.Context, today time.Time) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.complete_expired")
	defer span.End()

	span.SetAttributes(attribute.String("today", today.Format(domain.DateLayout)))

	query := `
		UPDATE bookings b
		SET status = 'PAST', updated_at = NOW()
		WHERE b.status = 'UPCOMING' AND b.end_date < $1
		RETURNING ` + bookingColumns

	bookings, err := r.list(ctx, span, query, today)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("completed", len(bookings)))
	return bookings, nil
}

func (r *PostgresBookingRepository) list(ctx context.Context, span trace.Span, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			failSpan(span, err)
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return bookings, nil
}

// scanBooking scans a single row into a Booking
func scanBooking(row pgx.Row) (*domain.Booking, error) {
	booking := &domain.Booking{}
	var (
		status string
		review *string
		rating *int16
	)

	err := row.Scan(
		&booking.ID,
		&booking.RenterID,
		&booking.ListingID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.Cost,
		&status,
		&review,
		&rating,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	booking.StartDate = domain.Date(booking.StartDate)
	booking.EndDate = domain.Date(booking.EndDate)
	booking.Status = domain.BookingStatus(status)
	booking.Review = review
	if rating != nil {
		v := int(*rating)
		booking.Rating = &v
	}

	return booking, nil
}

// Ensure PostgresBookingRepository implements BookingRepository
var _ BookingRepository = (*PostgresBookingRepository)(nil)
