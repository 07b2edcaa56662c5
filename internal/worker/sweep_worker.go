package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/pkg/logger"
	"github.com/prohmpiriya/rental-booking/pkg/retry"
)

// Sweeper completes bookings whose last day is before today
type Sweeper interface {
	SweepExpiredBookings(ctx context.Context, today time.Time) (int64, error)
}

// SweepWorkerConfig contains configuration for the sweep worker
type SweepWorkerConfig struct {
	// Interval is the time between sweeps
	Interval time.Duration
	// Retry controls how a failed sweep is retried before waiting for the next tick
	Retry *retry.Config
}

// DefaultSweepWorkerConfig returns default configuration
func DefaultSweepWorkerConfig() *SweepWorkerConfig {
	return &SweepWorkerConfig{
		Interval: 1 * time.Hour,
		Retry: &retry.Config{
			MaxRetries:      3,
			InitialInterval: 1 * time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	}
}

// SweepWorker periodically moves expired UPCOMING bookings to PAST
type SweepWorker struct {
	sweeper Sweeper
	config  *SweepWorkerConfig
	retrier *retry.Retrier
	log     *logger.Logger
	now     func() time.Time
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	// Stats
	totalCompleted     int64
	totalFailures      int64
	lastSweepTime      time.Time
	lastCompletedCount int64
}

// NewSweepWorker creates a new sweep worker
func NewSweepWorker(sweeper Sweeper, config *SweepWorkerConfig) *SweepWorker {
	if config == nil {
		config = DefaultSweepWorkerConfig()
	}
	if config.Retry == nil {
		config.Retry = DefaultSweepWorkerConfig().Retry
	}

	return &SweepWorker{
		sweeper: sweeper,
		config:  config,
		retrier: retry.New(config.Retry),
		log:     logger.Get().With(zap.String("worker", "sweep")),
		now:     func() time.Time { return time.Now().UTC() },
		stopCh:  make(chan struct{}),
	}
}

// Start starts the sweep worker
func (w *SweepWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("sweep worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting sweep worker", zap.Duration("interval", w.config.Interval))

	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop stops the sweep worker
func (w *SweepWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping sweep worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Sweep worker stopped")
}

func (w *SweepWorker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	_, _ = w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			_, _ = w.RunOnce(ctx)
		}
	}
}

// RunOnce sweeps as of today, retrying storage failures with backoff
func (w *SweepWorker) RunOnce(ctx context.Context) (int64, error) {
	today := domain.Date(w.now())

	var completed int64
	result := w.retrier.DoWithCallback(ctx, func(ctx context.Context) error {
		n, err := w.sweeper.SweepExpiredBookings(ctx, today)
		if err != nil {
			return err
		}
		completed = n
		return nil
	}, func(attempt int, err error, next time.Duration) {
		w.log.Warn("Sweep attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("next_retry_in", next),
			zap.Error(err),
		)
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSweepTime = w.now()

	if result.Err != nil {
		w.totalFailures++
		w.log.Error("Sweep failed",
			zap.String("today", today.Format(domain.DateLayout)),
			zap.Int("attempts", result.Attempts),
			zap.NamedError("last_error", result.LastError),
			zap.Error(result.Err),
		)
		cause := result.LastError
		if cause == nil {
			cause = result.Err
		}
		return 0, fmt.Errorf("sweep failed after %d attempts: %w", result.Attempts, cause)
	}

	w.lastCompletedCount = completed
	w.totalCompleted += completed
	if completed > 0 {
		w.log.Info(fmt.Sprintf("Completed %d expired bookings", completed),
			zap.String("today", today.Format(domain.DateLayout)),
			zap.Duration("took", result.TotalDuration),
		)
	}
	return completed, nil
}

// GetStats returns worker statistics
func (w *SweepWorker) GetStats() *SweepWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &SweepWorkerStats{
		IsRunning:          w.running,
		TotalCompleted:     w.totalCompleted,
		TotalFailures:      w.totalFailures,
		LastSweepTime:      w.lastSweepTime,
		LastCompletedCount: w.lastCompletedCount,
	}
}

// SweepWorkerStats contains worker statistics
type SweepWorkerStats struct {
	IsRunning          bool      `json:"is_running"`
	TotalCompleted     int64     `json:"total_completed"`
	TotalFailures      int64     `json:"total_failures"`
	LastSweepTime      time.Time `json:"last_sweep_time"`
	LastCompletedCount int64     `json:"last_completed_count"`
}
