package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/rental-booking/internal/metrics"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/internal/service"
	"github.com/prohmpiriya/rental-booking/internal/worker"
	"github.com/prohmpiriya/rental-booking/pkg/config"
	"github.com/prohmpiriya/rental-booking/pkg/database"
	"github.com/prohmpiriya/rental-booking/pkg/logger"
	"github.com/prohmpiriya/rental-booking/pkg/retry"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

const serviceName = "sweep-worker"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Sweep Worker...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn("Telemetry disabled", zap.Error(err))
	}
	if err := metrics.Init(); err != nil {
		appLog.Warn("Failed to register metrics", zap.Error(err))
	}

	// Initialize database connection
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.DBName,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      4,
		MinConns:      1,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		EnableTracing: cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// The sweep is one UPDATE on rows no listing lock guards, so no locker is needed
	store := repository.NewPostgresStore(db.Pool())
	bookingService := service.NewBookingService(
		store,
		repository.NewPostgresTxManager(db.Pool()),
		repository.NewNoOpListingLocker(),
		&service.BookingServiceConfig{
			MaxRangeDays: cfg.Booking.MaxRangeDays,
			EventsTopic:  cfg.Kafka.EventsTopic,
		},
	)

	sweepWorker := worker.NewSweepWorker(bookingService, &worker.SweepWorkerConfig{
		Interval: cfg.Booking.SweepInterval,
		Retry:    retry.DefaultConfig(),
	})
	if err := sweepWorker.Start(ctx); err != nil {
		appLog.Fatal("Failed to start sweep worker", zap.Error(err))
	}

	appLog.Info("Sweep Worker started successfully")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	sweepWorker.Stop()
	cancel()

	stats := sweepWorker.GetStats()
	appLog.Info("Worker exited gracefully",
		zap.Int64("total_completed", stats.TotalCompleted),
		zap.Int64("total_failures", stats.TotalFailures),
	)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = telemetry.Shutdown(shutdownCtx)
}
