package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/metrics"
)

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL,
		document TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)
`

// SQLiteStore keeps the snapshot document in a single-row table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(snapshotSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads the stored document.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	defer metrics.Timer(metrics.SnapshotLoad)()
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM snapshots WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return Decode([]byte(doc))
}

// Save replaces the stored document.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	defer metrics.Timer(metrics.SnapshotSave)()
	snap = snap.Stamped()
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, version, document, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			document = excluded.document,
			saved_at = excluded.saved_at
	`, Version, string(data), snap.SavedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	debug.Log("snapshot saved to %s (%d bytes, %d cards)", s.path, len(data), len(snap.Cards))
	return nil
}
