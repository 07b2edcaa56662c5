package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prohmpiriya/rental-booking/internal/di"
	"github.com/prohmpiriya/rental-booking/internal/metrics"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/internal/worker"
	"github.com/prohmpiriya/rental-booking/pkg/config"
	"github.com/prohmpiriya/rental-booking/pkg/database"
	"github.com/prohmpiriya/rental-booking/pkg/logger"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

const serviceName = "outbox-worker"

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
	appLog.Info("Starting Outbox Worker...", zap.String("broker", cfg.Events.Broker))

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
		MaxConns:      10,
		MinConns:      2,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		EnableTracing: cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	publisher, dlq, err := di.NewEventRelay(ctx, cfg, serviceName)
	if err != nil {
		appLog.Fatal("Failed to connect to event broker", zap.Error(err))
	}
	defer publisher.Close()
	appLog.Info("Event broker connected")

	outboxWorker := worker.NewOutboxWorker(
		repository.NewPostgresTxManager(db.Pool()),
		publisher,
		dlq,
		&worker.OutboxWorkerConfig{
			PollInterval:    cfg.Outbox.PollInterval,
			BatchSize:       cfg.Outbox.BatchSize,
			RetryInterval:   cfg.Outbox.RetryInterval,
			CleanupInterval: cfg.Outbox.CleanupInterval,
			Retention:       cfg.Outbox.Retention,
		},
	)
	if err := outboxWorker.Start(ctx); err != nil {
		appLog.Fatal("Failed to start outbox worker", zap.Error(err))
	}

	appLog.Info("Outbox Worker started successfully")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	outboxWorker.Stop()
	cancel()

	stats := outboxWorker.GetStats()
	appLog.Info("Worker exited gracefully",
		zap.Int64("published", stats.Published),
		zap.Int64("failed", stats.Failed),
		zap.Int64("dead_lettered", stats.DeadLettered),
	)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = telemetry.Shutdown(shutdownCtx)
}
