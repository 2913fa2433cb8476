package manifest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS build_manifest (
	dest        TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	source_hash TEXT NOT NULL,
	episode_id  TEXT NOT NULL,
	built_at    TIMESTAMPTZ NOT NULL
)`

// PostgresStore keeps the manifest in a PostgreSQL table shared between
// build machines.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to PostgreSQL and ensures the manifest table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure manifest table: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL manifest")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT dest, source, source_hash, episode_id, built_at FROM build_manifest`)
	if err != nil {
		return nil, fmt.Errorf("query manifest: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Dest, &r.Source, &r.SourceHash, &r.EpisodeID, &r.BuiltAt); err != nil {
			return nil, fmt.Errorf("scan manifest row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifest rows: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, r Record) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO build_manifest (dest, source, source_hash, episode_id, built_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (dest) DO UPDATE SET
	source = EXCLUDED.source,
	source_hash = EXCLUDED.source_hash,
	episode_id = EXCLUDED.episode_id,
	built_at = EXCLUDED.built_at`,
		r.Dest, r.Source, r.SourceHash, r.EpisodeID, r.BuiltAt)
	if err != nil {
		return fmt.Errorf("upsert manifest row: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
