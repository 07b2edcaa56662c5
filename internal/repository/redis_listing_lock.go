package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/prohmpiriya/rental-booking/internal/domain"
	"github.com/prohmpiriya/rental-booking/internal/metrics"
	"github.com/prohmpiriya/rental-booking/pkg/retry"
	"github.com/prohmpiriya/rental-booking/pkg/telemetry"
)

const (
	listingLockKeyPrefix = "listing_lock:"
	releaseScriptName    = "release_listing_lock"
)

// releaseListingLockScript deletes the lock only if it still holds our token
const releaseListingLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

var errLockHeld = errors.New("listing lock held")

// LockClient is the subset of the Redis client the listing lock needs
type LockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	EvalWithFallback(ctx context.Context, name, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisListingLockConfig holds the lock timings
type RedisListingLockConfig struct {
	// TTL bounds how long a crashed holder can block the listing
	TTL time.Duration
	// Wait is the longest Acquire blocks before returning ErrListingBusy
	Wait time.Duration
	// PollInterval is the first backoff between attempts
	PollInterval time.Duration
}

// DefaultRedisListingLockConfig returns default lock timings
func DefaultRedisListingLockConfig() *RedisListingLockConfig {
	return &RedisListingLockConfig{
		TTL:          10 * time.Second,
		Wait:         3 * time.Second,
		PollInterval: 20 * time.Millisecond,
	}
}

// RedisListingLock implements ListingLocker with SET NX PX and a compare-and-delete release
type RedisListingLock struct {
	client  LockClient
	config  *RedisListingLockConfig
	retrier *retry.Retrier
}

// NewRedisListingLock creates a new RedisListingLock
func NewRedisListingLock(client LockClient, cfg *RedisListingLockConfig) *RedisListingLock {
	if cfg == nil {
		cfg = DefaultRedisListingLockConfig()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Millisecond
	}

	// The wait deadline ends the loop; MaxRetries only needs to outlast it
	retrier := retry.New(&retry.Config{
		MaxRetries:      1 << 16,
		InitialInterval: cfg.PollInterval,
		MaxInterval:     10 * cfg.PollInterval,
		Multiplier:      1.5,
		JitterFactor:    0.2,
	})

	return &RedisListingLock{client: client, config: cfg, retrier: retrier}
}

// Acquire locks the listing, waiting up to the configured budget
func (l *RedisListingLock) Acquire(ctx context.Context, listingID string) (ReleaseFunc, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.listing_lock.acquire")
	defer span.End()

	key := listingLockKeyPrefix + listingID
	token := uuid.New().String()
	start := time.Now()

	waitCtx, cancel := context.WithTimeout(ctx, l.config.Wait)
	defer cancel()

	result := l.retrier.Do(waitCtx, func(ctx context.Context) error {
		ok, err := l.client.SetNX(ctx, key, token, l.config.TTL).Result()
		if err != nil {
			return retry.Permanent(err)
		}
		if !ok {
			return errLockHeld
		}
		return nil
	})
	metrics.RecordListingLockWait(ctx, time.Since(start).Seconds(), result.Err == nil)

	if result.Err != nil {
		if ctx.Err() != nil {
			failSpan(span, ctx.Err())
			return nil, ctx.Err()
		}
		if errors.Is(result.Err, retry.ErrContextCanceled) || errors.Is(result.Err, retry.ErrMaxRetriesExceeded) {
			failSpan(span, domain.ErrListingBusy)
			return nil, domain.ErrListingBusy
		}
		failSpan(span, result.Err)
		return nil, fmt.Errorf("failed to acquire listing lock: %w", result.Err)
	}

	release := func(ctx context.Context) error {
		err := l.client.EvalWithFallback(ctx, releaseScriptName, releaseListingLockScript, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release listing lock: %w", err)
		}
		return nil
	}

	return release, nil
}

var _ ListingLocker = (*RedisListingLock)(nil)
