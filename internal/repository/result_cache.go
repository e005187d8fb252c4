package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shams-academy/assessment/internal/assessment"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/model"
)

// ResultCache is the Redis ResultStore read by the results view right after
// an attempt finishes, before the worker has persisted it.
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ assessment.ResultStore = (*ResultCache)(nil)

// NewResultCache creates a ResultCache whose entries expire after ttl.
func NewResultCache(rdb *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{rdb: rdb, ttl: ttl}
}

func (c *ResultCache) Save(ctx context.Context, rec model.ResultRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	key := config.CacheKey.ResultKey(rec.UserID, rec.TestID.String())
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (c *ResultCache) Load(ctx context.Context, userID int, testID uuid.UUID) (*model.ResultRecord, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.ResultKey(userID, testID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, assessment.ErrResultNotFound
		}
		return nil, fmt.Errorf("load result: %w", err)
	}

	var rec model.ResultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &rec, nil
}

// Clear drops the cached result. Retakes call it on start.
func (c *ResultCache) Clear(ctx context.Context, userID int, testID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.ResultKey(userID, testID.String())).Err()
}
