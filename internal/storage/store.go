package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"rank-drop-alerts/internal/config"
)

// ErrCorrupt marks a history log that exists but cannot be decoded. A corrupt
// log is a hard failure; it is never silently treated as a first run.
var ErrCorrupt = errors.New("storage: history log corrupt")

// HistoryStore is the durable append-only home of the position history.
type HistoryStore interface {
	// Load returns the full log in insertion order. found is false when no
	// log has ever been persisted; an unreadable or undecodable log is an
	// error, not an absence.
	Load(ctx context.Context) (log []Observation, found bool, err error)
	// Append durably adds a batch while preserving every prior entry. A
	// failure partway must not lose previously committed observations.
	Append(ctx context.Context, batch []Observation) error
}

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}
