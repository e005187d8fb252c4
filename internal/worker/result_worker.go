package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultQueue is the list the worker drains.
type ResultQueue interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	Push(ctx context.Context, raw []byte) error
}

// ResultWriter persists finished results.
type ResultWriter interface {
	InsertBatch(ctx context.Context, batch []model.ResultRecord) error
	Insert(ctx context.Context, rec model.ResultRecord) error
}

// ResultWorker moves finished results from the Redis queue into PostgreSQL in
// batches, falling back to single inserts and requeueing what still fails.
type ResultWorker struct {
	queue  ResultQueue
	writer ResultWriter
	log    zerolog.Logger
}

func NewResultWorker(queue ResultQueue, writer ResultWriter, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		queue:  queue,
		writer: writer,
		log:    logger.Component(log, "result_worker"),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes what it holds. Call in a
// goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]model.ResultRecord, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return
		default:
			raw, err := w.queue.Pop(ctx, ResultPollTimeout)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("queue pop failed")
				}
				continue
			}
			if raw == nil {
				continue
			}

			var rec model.ResultRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			batch = append(batch, rec)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []model.ResultRecord) {
	if len(batch) == 0 {
		return
	}

	err := w.writer.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("results", len(batch)).Msg("batch persisted")
		return
	}
	w.log.Warn().Err(err).Msg("batch insert failed, using fallback")

	for _, rec := range batch {
		if err := w.writer.Insert(ctx, rec); err != nil {
			w.log.Error().Err(err).
				Str("result_id", rec.ID.String()).
				Msg("single insert failed, requeueing")
			raw, _ := json.Marshal(rec)
			if err := w.queue.Push(ctx, raw); err != nil {
				w.log.Error().Err(err).Str("result_id", rec.ID.String()).Msg("requeue failed, result dropped")
			}
		}
	}
}
