package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prohmpiriya/rental-booking/internal/di"
	"github.com/prohmpiriya/rental-booking/internal/metrics"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/pkg/config"
	"github.com/prohmpiriya/rental-booking/pkg/database"
	"github.com/prohmpiriya/rental-booking/pkg/logger"
	"github.com/prohmpiriya/rental-booking/pkg/middleware"
	pkgredis "github.com/prohmpiriya/rental-booking/pkg/redis"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

const serviceName = "rental-booking-api"

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
	appLog.Info("Starting Rental Booking API...")

	ctx := context.Background()

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
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, repository.Schema); err != nil {
			appLog.Fatal("Schema migration failed", zap.Error(err))
		}
		appLog.Info("Schema migrated")
	}

	// Redis backs listing locks and idempotency keys. Without it writers
	// serialize on the listing share lock and day row locks in Postgres
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, &pkgredis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			PoolTimeout:   4 * time.Second,
			MaxRetries:    3,
			RetryInterval: 100 * time.Millisecond,
			EnableTracing: cfg.OTel.Enabled,
		})
		if err != nil {
			appLog.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisClient.Close()
		appLog.Info("Redis connected")
	} else {
		appLog.Warn("Redis disabled, listing locks and idempotency keys are off")
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:    db,
		Redis: redisClient,
		LockConfig: &repository.RedisListingLockConfig{
			TTL:  cfg.Booking.LockTTL,
			Wait: cfg.Booking.LockWait,
		},
		MaxRangeDays: cfg.Booking.MaxRangeDays,
		EventsTopic:  cfg.Kafka.EventsTopic,
	})

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(telemetry.TracingMiddleware(serviceName)...)
	router.Use(middleware.UserID())
	router.Use(middleware.Logger(appLog, "/health", "/ready"))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Write routes replay on X-Idempotency-Key when Redis is available
	write := []gin.HandlerFunc{}
	if redisClient != nil {
		write = append(write, middleware.Idempotency(middleware.DefaultIdempotencyConfig(redisClient.Client())))
	}
	w := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), h)
	}

	v1 := router.Group("/api/v1")
	{
		v1.PUT("/accounts/:id", w(container.AccountHandler.RegisterAccount)...)

		listings := v1.Group("/listings/:id")
		listings.PUT("", w(container.AccountHandler.RegisterListing)...)
		listings.DELETE("", w(container.AccountHandler.RemoveListing)...)
		listings.GET("/availability", container.AvailabilityHandler.CheckAvailability)
		listings.POST("/availability", w(container.AvailabilityHandler.OfferAvailability)...)
		listings.PATCH("/availability", w(container.AvailabilityHandler.RepriceAvailability)...)
		listings.DELETE("/availability", w(container.AvailabilityHandler.RetractAvailability)...)
		listings.GET("/calendar", container.AvailabilityHandler.GetCalendar)
		listings.GET("/quote", container.AvailabilityHandler.QuoteCost)

		bookings := v1.Group("/bookings")
		bookings.POST("", w(container.BookingHandler.CreateBooking)...)
		bookings.GET("/:id", container.BookingHandler.GetBooking)
		bookings.POST("/:id/cancel", w(container.BookingHandler.CancelBooking)...)
		bookings.POST("/:id/review", w(container.BookingHandler.ReviewBooking)...)

		v1.GET("/renters/:id/bookings", container.BookingHandler.ListRenterBookings)
		v1.DELETE("/renters/:id", w(container.AccountHandler.DeactivateRenter)...)
		v1.GET("/hosts/:id/bookings", container.BookingHandler.ListHostBookings)
		v1.DELETE("/hosts/:id", w(container.AccountHandler.DeleteHost)...)

		v1.POST("/admin/sweep", container.AdminHandler.Sweep)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Rental Booking API listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		appLog.Warn("Telemetry shutdown failed", zap.Error(err))
	}

	appLog.Info("Server exited gracefully")
}
