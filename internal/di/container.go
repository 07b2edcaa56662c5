package di

import (
	"github.com/prohmpiriya/rental-booking/internal/handler"
	"github.com/prohmpiriya/rental-booking/internal/repository"
	"github.com/prohmpiriya/rental-booking/internal/service"
	"github.com/prohmpiriya/rental-booking/pkg/database"
	"github.com/prohmpiriya/rental-booking/pkg/redis"
)

// Container holds all dependencies for the booking engine
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	Store     repository.Store
	TxManager repository.TxManager
	Locker    repository.ListingLocker

	// Services
	AvailabilityService service.AvailabilityService
	BookingService      service.BookingService
	AccountService      service.AccountService

	// Handlers
	HealthHandler       *handler.HealthHandler
	AvailabilityHandler *handler.AvailabilityHandler
	BookingHandler      *handler.BookingHandler
	AccountHandler      *handler.AccountHandler
	AdminHandler        *handler.AdminHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB *database.PostgresDB
	// Redis is optional; without it writers serialize on the listing
	// share lock and the FOR UPDATE day rows inside each transaction
	Redis        *redis.Client
	LockConfig   *repository.RedisListingLockConfig
	MaxRangeDays int
	EventsTopic  string
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:        cfg.DB,
		Redis:     cfg.Redis,
		Store:     repository.NewPostgresStore(cfg.DB.Pool()),
		TxManager: repository.NewPostgresTxManager(cfg.DB.Pool()),
	}

	if cfg.Redis != nil {
		c.Locker = repository.NewRedisListingLock(cfg.Redis, cfg.LockConfig)
	} else {
		c.Locker = repository.NewNoOpListingLocker()
	}

	// Initialize services
	c.AvailabilityService = service.NewAvailabilityService(c.Store, c.TxManager, c.Locker, &service.AvailabilityServiceConfig{
		MaxRangeDays: cfg.MaxRangeDays,
		EventsTopic:  cfg.EventsTopic,
	})
	c.BookingService = service.NewBookingService(c.Store, c.TxManager, c.Locker, &service.BookingServiceConfig{
		MaxRangeDays: cfg.MaxRangeDays,
		EventsTopic:  cfg.EventsTopic,
	})
	c.AccountService = service.NewAccountService(c.Store, c.TxManager, c.Locker, &service.AccountServiceConfig{
		EventsTopic: cfg.EventsTopic,
	})

	// Initialize handlers
	checkers := map[string]handler.HealthChecker{"database": c.DB}
	if c.Redis != nil {
		checkers["redis"] = c.Redis
	} else {
		checkers["redis"] = nil
	}
	c.HealthHandler = handler.NewHealthHandler(checkers)
	c.AvailabilityHandler = handler.NewAvailabilityHandler(c.AvailabilityService)
	c.BookingHandler = handler.NewBookingHandler(c.BookingService)
	c.AccountHandler = handler.NewAccountHandler(c.AccountService)
	c.AdminHandler = handler.NewAdminHandler(c.BookingService)

	return c
}
