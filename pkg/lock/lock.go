// Package lock provides the TTL-bound advisory lock that serializes story
// extraction across all concurrent requests. The lock is released by TTL
// expiry only; there is no explicit unlock, so a crashed holder cannot wedge
// the system.
package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"igdownloader/pkg/errors"
	"igdownloader/pkg/logger"
)

// Store is the conditional-set primitive the lock is built on. Implemented
// by Redis in production and by an in-memory fake in tests.
type Store interface {
	// SetIfAbsent atomically sets key with a TTL when it does not exist.
	// Returns true when the key was set by this call.
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisStore implements Store on a Redis connection
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SetIfAbsent uses SET NX with expiry, collapsing check and set into one
// atomic operation
func (s *RedisStore) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

// Ping verifies the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Lock is a named advisory lock with a TTL. At most one holder per key at a
// time; waiting acquirers poll until the key expires.
type Lock struct {
	store        Store
	key          string
	ttl          time.Duration
	pollInterval time.Duration
	maxWait      time.Duration
	logger       logger.Logger
}

// New creates a Lock for the given key
func New(store Store, key string, ttl, pollInterval, maxWait time.Duration, log logger.Logger) *Lock {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Lock{
		store:        store,
		key:          key,
		ttl:          ttl,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		logger:       log,
	}
}

// Acquire blocks until the lock is acquired, the wait budget is exhausted,
// or ctx is done. An exhausted budget fails closed with a rate-limit error
// rather than hanging: if the lock stays held that long, the upstream is
// saturated anyway.
func (l *Lock) Acquire(ctx context.Context) error {
	deadline := time.Now().Add(l.maxWait)

	for {
		acquired, err := l.store.SetIfAbsent(ctx, l.key, l.ttl)
		if err != nil {
			return errors.Newf(errors.ErrorTypeUnknown, "lock store error: %v", err)
		}
		if acquired {
			l.logger.DebugWithFields("acquired advisory lock", map[string]interface{}{
				"key": l.key,
				"ttl": l.ttl,
			})
			return nil
		}

		if time.Now().After(deadline) {
			l.logger.WarnWithFields("gave up waiting for advisory lock", map[string]interface{}{
				"key":      l.key,
				"max_wait": l.maxWait,
			})
			return errors.New(errors.ErrorTypeRateLimit, "another story extraction is in progress")
		}

		l.logger.Debug("waiting for advisory lock")

		timer := time.NewTimer(l.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Newf(errors.ErrorTypeUnknown, "lock wait canceled: %v", ctx.Err())
		case <-timer.C:
		}
	}
}
