package metacache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/hrentities/pkg/manager"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteFile is the database file created in the data directory.
const SQLiteFile = "metacache.db"

var _ manager.Store = (*SQLiteStore)(nil)

// SQLiteStore keeps metadata documents in a local SQLite file.
type SQLiteStore struct {
	db        *sql.DB
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

// OpenSQLite opens or creates the cache database in dataDir. Entries are
// scoped to namespace and expire after ttl; a zero ttl keeps them forever.
func OpenSQLite(dataDir, namespace string, ttl time.Duration) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, SQLiteFile))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create metadata cache schema: %w", err)
	}
	return &SQLiteStore{db: db, namespace: namespace, ttl: ttl, now: time.Now}, nil
}

// Get returns the stored document for name. Expired entries are removed and
// reported as misses.
func (s *SQLiteStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var doc, storedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT document, stored_at FROM entity_metadata WHERE namespace = ? AND entity_name = ?`,
		s.namespace, name,
	).Scan(&doc, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s metadata: %w", name, err)
	}

	at, err := time.Parse(time.RFC3339Nano, storedAt)
	if err != nil || s.expired(at) {
		if err := s.Delete(ctx, name); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return []byte(doc), true, nil
}

// Put stores data as the document for name, replacing any earlier one.
func (s *SQLiteStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entity_metadata (namespace, entity_name, document, stored_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, entity_name) DO UPDATE SET
		   document = excluded.document,
		   stored_at = excluded.stored_at`,
		s.namespace, name, string(data), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write %s metadata: %w", name, err)
	}
	return nil
}

// Delete removes the document for name. Deleting a missing entry succeeds.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM entity_metadata WHERE namespace = ? AND entity_name = ?`,
		s.namespace, name,
	)
	if err != nil {
		return fmt.Errorf("delete %s metadata: %w", name, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) expired(storedAt time.Time) bool {
	return s.ttl > 0 && s.now().Sub(storedAt) > s.ttl
}
