package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/config"
)

const (
	pingTimeout    = 5 * time.Second
	connectRetries = 5
	connectBackoff = 500 * time.Millisecond
)

// Check is a named dependency probe used by the health endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// PostgresCheck probes the pool.
func PostgresCheck(pool *pgxpool.Pool) Check {
	return Check{Name: "postgres", Ping: pool.Ping}
}

// NewPostgresPool opens the pool, retrying the first ping while the database
// is still starting.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MinConns = min(2, cfg.MaxDBConns)
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	check := PostgresCheck(pool)
	if err := waitReady(ctx, check, connectRetries, connectBackoff, log); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("PostgreSQL connected")
	return pool, nil
}

// waitReady pings check up to attempts times, doubling the pause between
// tries. Each ping gets its own timeout.
func waitReady(ctx context.Context, check Check, attempts int, backoff time.Duration, log zerolog.Logger) error {
	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = check.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}

		log.Warn().Err(err).
			Str("dependency", check.Name).
			Int("attempt", i).
			Dur("retry_in", backoff).
			Msg("Dependency not ready")

		select {
		case <-ctx.Done():
			return fmt.Errorf("ping %s: %w", check.Name, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("ping %s after %d attempts: %w", check.Name, attempts, err)
}
