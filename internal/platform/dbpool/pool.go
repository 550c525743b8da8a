package dbpool

import (
	"context"
	"fmt"
	"time"

	"github.com/daybook/server/internal/platform/env"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	defaultMinConns        = 1
	defaultMaxConns        = 10
	defaultMaxConnLifetime = 30 * time.Minute
	defaultMaxConnIdleTime = 5 * time.Minute
	defaultHealthCheck     = 30 * time.Second
)

// Config is the pool sizing resolved from DB_* environment variables.
type Config struct {
	MinConns          int32
	MaxConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

func ConfigFromEnv() Config {
	minConns := env.Int("DB_MIN_CONNS", defaultMinConns)
	maxConns := env.Int("DB_MAX_CONNS", defaultMaxConns)
	if minConns < 0 {
		minConns = defaultMinConns
	}
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	if minConns > maxConns {
		minConns = maxConns
	}
	return Config{
		MinConns:          int32(minConns),
		MaxConns:          int32(maxConns),
		MaxConnLifetime:   env.Duration("DB_MAX_CONN_LIFETIME", defaultMaxConnLifetime),
		MaxConnIdleTime:   env.Duration("DB_MAX_CONN_IDLE_TIME", defaultMaxConnIdleTime),
		HealthCheckPeriod: env.Duration("DB_HEALTH_CHECK_PERIOD", defaultHealthCheck),
	}
}

func New(ctx context.Context, databaseURL string, c Config) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	cfg.MinConns = c.MinConns
	cfg.MaxConns = c.MaxConns
	cfg.MaxConnLifetime = c.MaxConnLifetime
	cfg.MaxConnIdleTime = c.MaxConnIdleTime
	cfg.HealthCheckPeriod = c.HealthCheckPeriod
	return pgxpool.NewWithConfig(ctx, cfg)
}

// WaitReady retries check until it succeeds or timeout elapses.
func WaitReady(ctx context.Context, timeout time.Duration, log logrus.FieldLogger, check func(context.Context) error) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		attemptCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		lastErr = check(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		log.WithError(lastErr).Info("waiting for store readiness")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return lastErr
}
