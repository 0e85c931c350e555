package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // Values are stored as JSON
	"errors"        // Miss detection
	"time"          // Expiry

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Cache failures are logged, never returned to callers of Load
)

// Cached is one JSON value of type T kept in Redis under Key for TTL.
// Every method treats a nil client as an always-empty cache.
type Cached[T any] struct {
	Key string
	TTL time.Duration
}

// Get returns the cached value and whether it was present
func (c Cached[T]) Get(ctx context.Context, rdb *redis.Client) (T, bool, error) {
	var v T
	if rdb == nil {
		return v, false, nil
	}
	raw, err := rdb.Get(ctx, c.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	} else if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Set stores v for TTL
func (c Cached[T]) Set(ctx context.Context, rdb *redis.Client, v T) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, c.Key, b, c.TTL).Err()
}

// Invalidate drops the cached value; failures are logged
func (c Cached[T]) Invalidate(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, c.Key).Err(); err != nil {
		logrus.WithFields(logrus.Fields{"key": c.Key, "error": err.Error()}).Warn("Failed to invalidate cache")
	}
}

// Load returns the cached value, or calls fill and caches its result.
// Redis failures only cost a trip to fill.
func (c Cached[T]) Load(ctx context.Context, rdb *redis.Client, fill func(context.Context) (T, error)) (T, error) {
	v, found, err := c.Get(ctx, rdb)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": c.Key, "error": err.Error()}).Warn("Cache read failed")
	} else if found {
		return v, nil
	}
	if v, err = fill(ctx); err != nil {
		return v, err
	}
	if err := c.Set(ctx, rdb, v); err != nil {
		logrus.WithFields(logrus.Fields{"key": c.Key, "error": err.Error()}).Warn("Cache write failed")
	}
	return v, nil
}
