package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ensureSchemaSQL = `CREATE TABLE IF NOT EXISTS observations (
        id            BIGSERIAL PRIMARY KEY,
        position      INTEGER NOT NULL,
        promo_position INTEGER NOT NULL DEFAULT 0,
        observed_at   TIMESTAMPTZ NOT NULL,
        phrase        TEXT NOT NULL,
        sku           TEXT NOT NULL,
        created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	insertObservationSQL = `INSERT INTO observations (
        position,
        promo_position,
        observed_at,
        phrase,
        sku
    ) VALUES ($1,$2,$3,$4,$5);`

	listObservationsSQL = `SELECT
        position,
        promo_position,
        observed_at,
        phrase,
        sku
    FROM observations
    ORDER BY id;`

	countObservationsSQL = `SELECT COUNT(*) FROM observations;`
)

// PostgresStore keeps the history log in an append-only observations table.
// Rows are only ever inserted; insertion order is preserved by the serial key.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires a pgx pool into a store and ensures the schema.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, ensureSchemaSQL); err != nil {
		return nil, fmt.Errorf("ensure observations schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Load returns every observation in insertion order. An empty table is the
// first-run sentinel.
func (s *PostgresStore) Load(ctx context.Context) ([]Observation, bool, error) {
	rows, err := s.pool.Query(ctx, listObservationsSQL)
	if err != nil {
		return nil, false, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	log := make([]Observation, 0)
	for rows.Next() {
		var obs Observation
		if err := rows.Scan(
			&obs.Position,
			&obs.PromoPosition,
			&obs.ObservedAt,
			&obs.Phrase,
			&obs.SKU,
		); err != nil {
			return nil, false, fmt.Errorf("scan observation: %w", err)
		}
		obs.ObservedAt = obs.ObservedAt.UTC()
		log = append(log, obs)
	}
	if rows.Err() != nil {
		return nil, false, rows.Err()
	}
	if len(log) == 0 {
		return nil, false, nil
	}
	return log, true, nil
}

// Append inserts the batch inside one transaction so a partial failure
// commits nothing and prior rows stay untouched.
func (s *PostgresStore) Append(ctx context.Context, batch []Observation) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, obs := range batch {
		if _, err := tx.Exec(ctx, insertObservationSQL,
			obs.Position,
			obs.PromoPosition,
			obs.ObservedAt,
			obs.Phrase,
			obs.SKU,
		); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// Count reports the stored observation total.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, countObservationsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return count, nil
}

var _ HistoryStore = (*PostgresStore)(nil)
