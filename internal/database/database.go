package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig sizes the PostgreSQL connection pool. Zero fields use the
// DefaultPoolConfig values.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPoolConfig suits one server process with a handful of live games.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        25,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
	}
}

func (pc PoolConfig) withDefaults() PoolConfig {
	d := DefaultPoolConfig()
	if pc.MaxConns <= 0 {
		pc.MaxConns = d.MaxConns
	}
	if pc.MinConns <= 0 {
		pc.MinConns = d.MinConns
	}
	if pc.MinConns > pc.MaxConns {
		pc.MinConns = pc.MaxConns
	}
	if pc.MaxConnLifetime <= 0 {
		pc.MaxConnLifetime = d.MaxConnLifetime
	}
	if pc.MaxConnIdleTime <= 0 {
		pc.MaxConnIdleTime = d.MaxConnIdleTime
	}
	return pc
}

// ParsePoolConfig parses dsn and applies pc to the resulting pool config.
func ParsePoolConfig(dsn string, pc PoolConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	pc = pc.withDefaults()
	cfg.MaxConns = pc.MaxConns
	cfg.MinConns = pc.MinConns
	cfg.MaxConnLifetime = pc.MaxConnLifetime
	cfg.MaxConnIdleTime = pc.MaxConnIdleTime
	return cfg, nil
}

// Connect creates a connection pool to PostgreSQL and pings it before returning.
func Connect(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	cfg, err := ParsePoolConfig(dsn, pc)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
