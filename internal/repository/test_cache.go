package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/model"
)

// ErrCacheMiss is returned when a cached value is absent.
var ErrCacheMiss = errors.New("cache miss")

// TestCache keeps full test payloads, answer key included, in Redis so
// attempts start without touching PostgreSQL.
type TestCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTestCache creates a TestCache. A zero ttl keeps entries until refreshed.
func NewTestCache(rdb *redis.Client, ttl time.Duration) *TestCache {
	return &TestCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached test or ErrCacheMiss.
func (c *TestCache) Get(ctx context.Context, testID uuid.UUID) (*model.Test, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.TestPayloadKey(testID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get payload: %w", err)
	}

	var payload model.TestPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload.Test, nil
}

// Set stores test with its questions.
func (c *TestCache) Set(ctx context.Context, test *model.Test) error {
	raw, err := json.Marshal(model.TestPayload{Test: *test, CachedAt: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := c.rdb.Set(ctx, config.CacheKey.TestPayloadKey(test.ID.String()), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}
	return nil
}

// Delete evicts a test.
func (c *TestCache) Delete(ctx context.Context, testID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.TestPayloadKey(testID.String())).Err()
}
