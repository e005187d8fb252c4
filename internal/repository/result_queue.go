package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shams-academy/assessment/internal/assessment"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/model"
)

// ResultQueue is the Redis list between finished attempts and the result
// worker. It is the ResultSink of the attempt service.
type ResultQueue struct {
	rdb *redis.Client
	key string
}

var _ assessment.ResultSink = (*ResultQueue)(nil)

// NewResultQueue creates a ResultQueue on the persist results list.
func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb, key: config.WorkerKey.PersistResultsQueue}
}

// SubmitResult enqueues rec for persistence.
func (q *ResultQueue) SubmitResult(ctx context.Context, rec model.ResultRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return q.Push(ctx, raw)
}

// Push appends a raw payload, used for requeueing.
func (q *ResultQueue) Push(ctx context.Context, raw []byte) error {
	if err := q.rdb.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", q.key, err)
	}
	return nil
}

// Pop blocks up to timeout for the next payload. It returns nil, nil when the
// queue stayed empty.
func (q *ResultQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(item) < 2 {
		return nil, nil
	}
	return []byte(item[1]), nil
}
