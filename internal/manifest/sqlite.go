package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS build_manifest (
	dest        TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	source_hash TEXT NOT NULL,
	episode_id  TEXT NOT NULL,
	built_at    INTEGER NOT NULL
);
`

// SQLiteStore keeps the manifest in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a manifest database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create manifest directory: %w", err)
		}
	}

	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open manifest db: %w", err)
	}
	// Serialize writers; the pool records from several workers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize manifest schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dest, source, source_hash, episode_id, built_at FROM build_manifest`)
	if err != nil {
		return nil, fmt.Errorf("query manifest: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var builtAt int64
		if err := rows.Scan(&r.Dest, &r.Source, &r.SourceHash, &r.EpisodeID, &builtAt); err != nil {
			return nil, fmt.Errorf("scan manifest row: %w", err)
		}
		r.BuiltAt = time.Unix(builtAt, 0).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifest rows: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO build_manifest (dest, source, source_hash, episode_id, built_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(dest) DO UPDATE SET
	source = excluded.source,
	source_hash = excluded.source_hash,
	episode_id = excluded.episode_id,
	built_at = excluded.built_at`,
		r.Dest, r.Source, r.SourceHash, r.EpisodeID, r.BuiltAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert manifest row: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
