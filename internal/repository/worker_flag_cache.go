package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const suspendedKeyPrefix = "worker:suspended:"

// WorkerFlagCache mirrors the is_suspended projection into Redis so the
// marketplace booking path can check it without touching Postgres.
// Cache failures are reported to the caller, which logs and moves on:
// Postgres remains the source of truth.
type WorkerFlagCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWorkerFlagCache constructs the cache wrapper.
func NewWorkerFlagCache(client *redis.Client) *WorkerFlagCache {
	return &WorkerFlagCache{client: client, ttl: 24 * time.Hour}
}

// SetSuspended writes the booking-block flag for one worker.
func (c *WorkerFlagCache) SetSuspended(ctx context.Context, workerID string, suspended bool) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, suspendedKeyPrefix+workerID, strconv.FormatBool(suspended), c.ttl).Err()
}

// IsSuspended reads the cached flag. The second return reports a cache
// hit; on miss callers fall back to the worker directory.
func (c *WorkerFlagCache) IsSuspended(ctx context.Context, workerID string) (bool, bool, error) {
	if c == nil || c.client == nil {
		return false, false, nil
	}
	val, err := c.client.Get(ctx, suspendedKeyPrefix+workerID).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	suspended, err := strconv.ParseBool(val)
	if err != nil {
		return false, false, err
	}
	return suspended, true, nil
}
