package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

var (
	// Booking counters
	BookingsCreated   *telemetry.Counter
	BookingsCancelled *telemetry.Counter
	BookingsCompleted *telemetry.Counter
	BookingsFailed    *telemetry.Counter
	BookingsReviewed  *telemetry.Counter

	// Calendar counters
	DaysOffered   *telemetry.Counter
	DaysRetracted *telemetry.Counter
	DaysRepriced  *telemetry.Counter

	// Cascade counters
	CascadeCancellations *telemetry.Counter

	// Outbox counters
	OutboxPublished    *telemetry.Counter
	OutboxFailed       *telemetry.Counter
	OutboxDeadLettered *telemetry.Counter

	// Histograms
	ListingLockWait *telemetry.Histogram
	BookingNights   *telemetry.Histogram

	// Gauges
	UpcomingBookings *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all engine metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func counter(name, description string) (*telemetry.Counter, error) {
	return telemetry.NewCounter(telemetry.MetricOpts{
		Name:        name,
		Description: description,
		Unit:        "1",
	})
}

func initMetrics() error {
	var err error

	if BookingsCreated, err = counter("bookings_created_total", "Total number of bookings created"); err != nil {
		return err
	}
	if BookingsCancelled, err = counter("bookings_cancelled_total", "Total number of bookings cancelled"); err != nil {
		return err
	}
	if BookingsCompleted, err = counter("bookings_completed_total", "Total number of bookings moved to PAST by the sweep"); err != nil {
		return err
	}
	if BookingsFailed, err = counter("booking_failures_total", "Total number of rejected booking attempts by reason"); err != nil {
		return err
	}
	if BookingsReviewed, err = counter("bookings_reviewed_total", "Total number of reviews written"); err != nil {
		return err
	}

	if DaysOffered, err = counter("availability_days_offered_total", "Days created or reactivated as AVAILABLE"); err != nil {
		return err
	}
	if DaysRetracted, err = counter("availability_days_retracted_total", "Days moved to UNAVAILABLE"); err != nil {
		return err
	}
	if DaysRepriced, err = counter("availability_days_repriced_total", "Offered days whose price was updated"); err != nil {
		return err
	}

	if CascadeCancellations, err = counter("cascade_cancellations_total", "Bookings cancelled by listing removal or account deactivation"); err != nil {
		return err
	}

	if OutboxPublished, err = counter("outbox_published_total", "Outbox messages relayed to the broker"); err != nil {
		return err
	}
	if OutboxFailed, err = counter("outbox_failed_total", "Failed outbox publish attempts"); err != nil {
		return err
	}
	if OutboxDeadLettered, err = counter("outbox_dead_lettered_total", "Outbox messages moved to the dead-letter topic"); err != nil {
		return err
	}

	ListingLockWait, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "listing_lock_wait_seconds",
		Description: "Time spent acquiring the listing lock",
		Unit:        "s",
	}, []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}) // 1ms to 5s
	if err != nil {
		return err
	}

	BookingNights, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "booking_length_days",
		Description: "Number of days per created booking",
		Unit:        "1",
	}, []float64{1, 2, 3, 5, 7, 14, 30, 90, 180, 366})
	if err != nil {
		return err
	}

	UpcomingBookings, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "bookings_upcoming",
		Description: "Change in the number of UPCOMING bookings seen by this process",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordBookingCreated records a successful booking
func RecordBookingCreated(ctx context.Context, listingID string, days int) {
	if BookingsCreated != nil {
		BookingsCreated.Inc(ctx, attribute.String("listing_id", listingID))
	}
	if BookingNights != nil {
		BookingNights.Record(ctx, float64(days))
	}
	if UpcomingBookings != nil {
		UpcomingBookings.Inc(ctx)
	}
}

// RecordBookingFailure records a rejected booking attempt
func RecordBookingFailure(ctx context.Context, reason string) {
	if BookingsFailed != nil {
		BookingsFailed.Inc(ctx, attribute.String("reason", reason))
	}
}

// RecordBookingCancelled records cancellations; source is "renter", "listing" or "account"
func RecordBookingCancelled(ctx context.Context, source string, count int) {
	if count <= 0 {
		return
	}
	if BookingsCancelled != nil {
		BookingsCancelled.Add(ctx, int64(count), attribute.String("source", source))
	}
	if source != "renter" && CascadeCancellations != nil {
		CascadeCancellations.Add(ctx, int64(count), attribute.String("source", source))
	}
	if UpcomingBookings != nil {
		UpcomingBookings.Add(ctx, -int64(count))
	}
}

// RecordBookingsCompleted records bookings moved to PAST
func RecordBookingsCompleted(ctx context.Context, count int64) {
	if count <= 0 {
		return
	}
	if BookingsCompleted != nil {
		BookingsCompleted.Add(ctx, count)
	}
	if UpcomingBookings != nil {
		UpcomingBookings.Add(ctx, -count)
	}
}

// RecordReview records a review write; unrated reviews carry rating 0
func RecordReview(ctx context.Context, rating *int) {
	if BookingsReviewed == nil {
		return
	}
	value := 0
	if rating != nil {
		value = *rating
	}
	BookingsReviewed.Inc(ctx, attribute.Int("rating", value))
}

// RecordDaysOffered records days created or reactivated
func RecordDaysOffered(ctx context.Context, count int) {
	if DaysOffered != nil && count > 0 {
		DaysOffered.Add(ctx, int64(count))
	}
}

// RecordDaysRetracted records days moved to UNAVAILABLE
func RecordDaysRetracted(ctx context.Context, count int) {
	if DaysRetracted != nil && count > 0 {
		DaysRetracted.Add(ctx, int64(count))
	}
}

// RecordDaysRepriced records repriced days
func RecordDaysRepriced(ctx context.Context, count int) {
	if DaysRepriced != nil && count > 0 {
		DaysRepriced.Add(ctx, int64(count))
	}
}

// RecordListingLockWait records the time spent acquiring a listing lock
func RecordListingLockWait(ctx context.Context, seconds float64, acquired bool) {
	if ListingLockWait != nil {
		ListingLockWait.Record(ctx, seconds, attribute.Bool("acquired", acquired))
	}
}

// RecordOutboxPublished records a relayed outbox message
func RecordOutboxPublished(ctx context.Context, eventType string) {
	if OutboxPublished != nil {
		OutboxPublished.Inc(ctx, attribute.String("event_type", eventType))
	}
}

// RecordOutboxFailed records a failed publish attempt
func RecordOutboxFailed(ctx context.Context, eventType string) {
	if OutboxFailed != nil {
		OutboxFailed.Inc(ctx, attribute.String("event_type", eventType))
	}
}

// RecordOutboxDeadLettered records a message moved to the DLQ
func RecordOutboxDeadLettered(ctx context.Context, eventType string) {
	if OutboxDeadLettered != nil {
		OutboxDeadLettered.Inc(ctx, attribute.String("event_type", eventType))
	}
}
