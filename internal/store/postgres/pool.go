package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig tunes the shared pgx connection pool. All stores in this
// package ride the same pool. Durations are expressed in seconds so the
// fields map directly onto CLI flags.
type PoolConfig struct {
	// ConnString is a postgres:// connection URL.
	ConnString string

	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   int32
	MaxConnIdleTime   int32
	HealthCheckPeriod int32
	ConnectTimeout    int32
}

// Validate checks the required fields.
func (c *PoolConfig) Validate() error {
	if c.ConnString == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ApplyDefaults fills unset fields with production defaults.
func (c *PoolConfig) ApplyDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 20
	}
	if c.MinConns == 0 {
		c.MinConns = 5
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 3600
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 1800
	}
	if c.HealthCheckPeriod == 0 {
		c.HealthCheckPeriod = 60
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10
	}
}

// NewPool builds a connection pool from cfg and pings it once so a bad
// connection string fails at startup rather than on the first request.
func NewPool(ctx context.Context, cfg *PoolConfig) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pool config is required")
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Second
	poolConfig.HealthCheckPeriod = time.Duration(cfg.HealthCheckPeriod) * time.Second
	poolConfig.ConnConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
