package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

// PostgresCalendarRepository implements CalendarRepository on the calendar_days table
type PostgresCalendarRepository struct {
	db DBTX
}

// NewPostgresCalendarRepository creates a new PostgresCalendarRepository
func NewPostgresCalendarRepository(db DBTX) *PostgresCalendarRepository {
	return &PostgresCalendarRepository{db: db}
}

func rangeAttributes(span trace.Span, listingID string, start, end time.Time) {
	span.SetAttributes(
		attribute.String("listing_id", listingID),
		attribute.String("start", start.Format(domain.DateLayout)),
		attribute.String("end", end.Format(domain.DateLayout)),
	)
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetRange returns existing days in [start, end]
func (r *PostgresCalendarRepository) GetRange(ctx context.Context, listingID string, start, end time.Time) ([]*domain.Day, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.get_range")
	defer span.End()
	rangeAttributes(span, listingID, start, end)

	query := `
		SELECT listing_id, day, price::float8, status
		FROM calendar_days
		WHERE listing_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day ASC
	`

	days, err := r.queryDays(ctx, query, listingID, start, end)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("failed to get calendar range: %w", err)
	}

	span.SetAttributes(attribute.Int("days", len(days)))
	span.SetStatus(codes.Ok, "")
	return days, nil
}

// LockRange returns existing days in [start, end] and locks them FOR UPDATE
func (r *PostgresCalendarRepository) LockRange(ctx context.Context, listingID string, start, end time.Time) ([]*domain.Day, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.lock_range")
	defer span.End()
	rangeAttributes(span, listingID, start, end)

	query := `
		SELECT listing_id, day, price::float8, status
		FROM calendar_days
		WHERE listing_id = $1 AND day BETWEEN $2 AND $3
		ORDER BY day ASC
		FOR UPDATE
	`

	days, err := r.queryDays(ctx, query, listingID, start, end)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("failed to lock calendar range: %w", err)
	}

	span.SetAttributes(attribute.Int("days", len(days)))
	span.SetStatus(codes.Ok, "")
	return days, nil
}

// HasAnyWithStatusInRange reports whether any day in range has one of the given statuses
func (r *PostgresCalendarRepository) HasAnyWithStatusInRange(ctx context.Context, listingID string, start, end time.Time, statuses ...domain.DayStatus) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.has_any_with_status")
	defer span.End()
	rangeAttributes(span, listingID, start, end)

	if len(statuses) == 0 {
		return false, nil
	}

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = s.String()
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM calendar_days
			WHERE listing_id = $1 AND day BETWEEN $2 AND $3 AND status = ANY($4)
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, listingID, start, end, values).Scan(&exists); err != nil {
		failSpan(span, err)
		return false, fmt.Errorf("failed to check calendar status: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return exists, nil
}

// CountWithStatusInRange counts the days in range with the given status
func (r *PostgresCalendarRepository) CountWithStatusInRange(ctx context.Context, listingID string, start, end time.Time, status domain.DayStatus) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.count_with_status")
	defer span.End()
	rangeAttributes(span, listingID, start, end)
	span.SetAttributes(attribute.String("status", status.String()))

	query := `
		SELECT COUNT(*)
		FROM calendar_days
		WHERE listing_id = $1 AND day BETWEEN $2 AND $3 AND status = $4
	`

	var count int
	if err := r.db.QueryRow(ctx, query, listingID, start, end, status.String()).Scan(&count); err != nil {
		failSpan(span, err)
		return 0, fmt.Errorf("failed to count calendar days: %w", err)
	}

	span.SetAttributes(attribute.Int("count", count))
	span.SetStatus(codes.Ok, "")
	return count, nil
}

// HasBookingOverlap reports whether a non-canceled booking on the listing overlaps [start, end]
func (r *PostgresCalendarRepository) HasBookingOverlap(ctx context.Context, listingID string, start, end time.Time) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.has_booking_overlap")
	defer span.End()
	rangeAttributes(span, listingID, start, end)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE listing_id = $1
			  AND status <> 'CANCELED'
			  AND start_date <= $3
			  AND $2 <= end_date
		)
	`

	var overlap bool
	if err := r.db.QueryRow(ctx, query, listingID, start, end).Scan(&overlap); err != nil {
		failSpan(span, err)
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}

	span.SetAttributes(attribute.Bool("overlap", overlap))
	span.SetStatus(codes.Ok, "")
	return overlap, nil
}

// SetStatus updates the status of one day
func (r *PostgresCalendarRepository) SetStatus(ctx context.Context, listingID string, day time.Time, status domain.DayStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.set_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("listing_id", listingID),
		attribute.String("day", day.Format(domain.DateLayout)),
		attribute.String("status", status.String()),
	)

	query := `
		UPDATE calendar_days
		SET status = $3, updated_at = NOW()
		WHERE listing_id = $1 AND day = $2
	`

	if _, err := r.db.Exec(ctx, query, listingID, day, status.String()); err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to set day status: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SetPrice updates the price of one day
func (r *PostgresCalendarRepository) SetPrice(ctx context.Context, listingID string, day time.Time, price float64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.set_price")
	defer span.End()

	span.SetAttributes(
		attribute.String("listing_id", listingID),
		attribute.String("day", day.Format(domain.DateLayout)),
		attribute.Float64("price", price),
	)

	query := `
		UPDATE calendar_days
		SET price = $3, updated_at = NOW()
		WHERE listing_id = $1 AND day = $2
	`

	if _, err := r.db.Exec(ctx, query, listingID, day, price); err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to set day price: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Insert creates one day record
func (r *PostgresCalendarRepository) Insert(ctx context.Context, day *domain.Day) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.insert")
	defer span.End()

	span.SetAttributes(
		attribute.String("listing_id", day.ListingID),
		attribute.String("day", day.Date.Format(domain.DateLayout)),
		attribute.String("status", day.Status.String()),
	)

	query := `
		INSERT INTO calendar_days (listing_id, day, price, status)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Exec(ctx, query, day.ListingID, day.Date, day.Price, day.Status.String()); err != nil {
		failSpan(span, err)
		return fmt.Errorf("failed to insert day: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SumPrice sums day prices over [start, end]
func (r *PostgresCalendarRepository) SumPrice(ctx context.Context, listingID string, start, end time.Time) (float64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.calendar.sum_price")
	defer span.End()
	rangeAttributes(span, listingID, start, end)

	query := `
		SELECT COUNT(*), COALESCE(SUM(price), 0)::float8
		FROM calendar_days
		WHERE listing_id = $1 AND day BETWEEN $2 AND $3
	`

	var (
		count int
		total float64
	)
	if err := r.db.QueryRow(ctx, query, listingID, start, end).Scan(&count, &total); err != nil {
		failSpan(span, err)
		return 0, fmt.Errorf("failed to sum prices: %w", err)
	}

	want := domain.DateRange{Start: start, End: end}.Days()
	if count != want {
		span.SetAttributes(attribute.Int("priced_days", count), attribute.Int("range_days", want))
		span.SetStatus(codes.Error, "incomplete coverage")
		return 0, domain.ErrIncompleteCoverage
	}

	span.SetAttributes(attribute.Float64("total", total))
	span.SetStatus(codes.Ok, "")
	return total, nil
}

func (r *PostgresCalendarRepository) queryDays(ctx context.Context, query string, args ...any) ([]*domain.Day, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDays(rows)
}

// scanDays scans rows into Day slice
func scanDays(rows pgx.Rows) ([]*domain.Day, error) {
	var days []*domain.Day

	for rows.Next() {
		day := &domain.Day{}
		var status string

		if err := rows.Scan(&day.ListingID, &day.Date, &day.Price, &status); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}

		day.Date = domain.Date(day.Date)
		day.Status = domain.DayStatus(status)
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating days: %w", err)
	}

	return days, nil
}

// Ensure PostgresCalendarRepository implements CalendarRepository
var _ CalendarRepository = (*PostgresCalendarRepository)(nil)
