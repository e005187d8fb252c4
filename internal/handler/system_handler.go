package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/database"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/response"
	"github.com/shams-academy/assessment/internal/service"
)

const (
	metricsInterval = 7 * time.Second
	healthTimeout   = 2 * time.Second
)

// SystemStats are the live numbers reported by the metrics stream.
type SystemStats struct {
	LiveAttempts func() int
	QueueDepth   func(ctx context.Context) (int64, error)
	DBConns      func() int32
}

// SystemHandler serves liveness and streams runtime metrics via SSE.
type SystemHandler struct {
	checks    []database.Check
	stats     SystemStats
	interval  time.Duration
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler reports on the PostgreSQL pool, the Redis client and the
// attempts in progress.
func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client, attempts *service.AttemptService, log zerolog.Logger) *SystemHandler {
	return newSystemHandler(
		[]database.Check{database.PostgresCheck(pool), database.RedisCheck(rdb)},
		SystemStats{
			LiveAttempts: attempts.Live,
			QueueDepth: func(ctx context.Context) (int64, error) {
				return rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()
			},
			DBConns: func() int32 { return pool.Stat().TotalConns() },
		},
		metricsInterval,
		log,
	)
}

func newSystemHandler(checks []database.Check, stats SystemStats, interval time.Duration, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		checks:    checks,
		stats:     stats,
		interval:  interval,
		startTime: time.Now(),
		log:       logger.Component(log, "system_handler"),
	}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := gin.H{}
	healthy := true
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", check.Name).Msg("Health check failed")
			checks[check.Name] = err.Error()
			healthy = false
			continue
		}
		checks[check.Name] = "ok"
	}

	if !healthy {
		response.FailWithData(c, http.StatusServiceUnavailable, response.ErrInternal, gin.H{"checks": checks})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	LiveAttempts int   `json:"live_attempts"`
	QueueResults int64 `json:"queue_results"`
	DBConns      int32 `json:"db_conns"`
}

// SystemMetricsSSE godoc
// GET /api/v1/admin/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Admin connected to system metrics SSE")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// Send immediately on connect, then every tick
	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Admin disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect(c.Request.Context()))
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := systemMetrics{
		Timestamp:    time.Now().Unix(),
		Uptime:       formatDuration(time.Since(h.startTime)),
		Goroutines:   runtime.NumGoroutine(),
		HeapAlloc:    ms.HeapAlloc,
		HeapSys:      ms.Sys,
		NumGC:        ms.NumGC,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		LiveAttempts: h.stats.LiveAttempts(),
		DBConns:      h.stats.DBConns(),
	}
	depth, err := h.stats.QueueDepth(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("queue depth unavailable")
		depth = -1
	}
	m.QueueResults = depth
	return m
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
