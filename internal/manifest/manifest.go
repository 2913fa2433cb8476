package manifest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Record describes the last successful build of one destination fragment.
type Record struct {
	Dest       string
	Source     string
	SourceHash string
	EpisodeID  string
	BuiltAt    time.Time
}

// Store persists build records.
type Store interface {
	List(ctx context.Context) ([]Record, error)
	Upsert(ctx context.Context, r Record) error
	Close() error
}

// Manifest provides in-memory + persistent tracking of built fragments.
type Manifest struct {
	store  Store
	mu     sync.RWMutex
	memory map[string]Record // dest → record
}

// New creates a manifest in front of store. A nil store keeps records in
// memory only.
func New(store Store) *Manifest {
	return &Manifest{
		store:  store,
		memory: make(map[string]Record),
	}
}

// Open selects a backend from dsn: empty for memory only, a postgres://
// URL for a shared PostgreSQL table, anything else as a SQLite file path.
func Open(ctx context.Context, dsn string) (*Manifest, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return New(nil), nil
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		store, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return New(store), nil
	default:
		store, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return New(store), nil
	}
}

// Get returns the record for a destination.
func (m *Manifest) Get(dest string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.memory[dest]
	return r, ok
}

// Unchanged reports whether dest was last built from content with the given hash.
func (m *Manifest) Unchanged(dest, hash string) bool {
	r, ok := m.Get(dest)
	return ok && r.SourceHash == hash
}

// Record stores a successful build in memory and in the backing store.
func (m *Manifest) Record(ctx context.Context, r Record) error {
	if r.BuiltAt.IsZero() {
		r.BuiltAt = time.Now().UTC()
	}

	m.mu.Lock()
	m.memory[r.Dest] = r
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.Upsert(ctx, r); err != nil {
		return fmt.Errorf("manifest record: %w", err)
	}
	return nil
}

// Preload loads all persisted records into memory.
func (m *Manifest) Preload(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	records, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("preload manifest: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		m.memory[r.Dest] = r
	}

	log.Debug().Int("count", len(records)).Msg("Preloaded build manifest")
	return nil
}

// Len returns the number of known records.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.memory)
}

// Close releases the backing store.
func (m *Manifest) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}
