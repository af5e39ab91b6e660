package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmylchreest/propcrawl/internal/logger"
	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// schemaSQL is safe to run repeatedly.
const schemaSQL = `CREATE TABLE IF NOT EXISTS crawl_batches (
    key TEXT PRIMARY KEY,
    run_id UUID NOT NULL,
    source_url TEXT NOT NULL,
    rows INT NOT NULL,
    stop_reason TEXT NOT NULL,
    pages INT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS crawl_rows (
    batch_key TEXT NOT NULL REFERENCES crawl_batches(key) ON DELETE CASCADE,
    position INT NOT NULL,
    "row" JSONB NOT NULL,
    PRIMARY KEY (batch_key, position)
);`

// PostgresStore keeps batches in Postgres, one crawl_batches row per key and
// one crawl_rows row per listing.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to dsn and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string, log *slog.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run schema: %w", err)
	}
	return &PostgresStore{pool: pool, log: logger.OrDiscard(log)}, nil
}

// Exists reports whether a batch row exists for key.
func (s *PostgresStore) Exists(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM crawl_batches WHERE key = $1)`, key).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check batch %s: %w", key, err)
	}
	return ok, nil
}

// Save replaces the batch for key in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, key string, run *listing.Run) error {
	rows := run.Rows()
	encoded := make([][]byte, len(rows))
	for i, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
		encoded[i] = b
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM crawl_batches WHERE key = $1`, key); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO crawl_batches (key, run_id, source_url, rows, stop_reason, pages)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			key, run.ID.String(), run.Source, len(rows), string(run.Stop), run.Pages); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, b := range encoded {
			batch.Queue(`INSERT INTO crawl_rows (batch_key, position, "row") VALUES ($1, $2, $3)`, key, i, string(b))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to save batch %s: %w", key, err)
	}

	s.log.Info("batch stored", "key", key, "rows", len(rows))
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
