package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/storyweb/pkg/config"
	"github.com/vanderheijden86/storyweb/pkg/debug"
	"github.com/vanderheijden86/storyweb/pkg/metrics"
)

// Store loads and saves snapshots.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
	Path() string
	Close() error
}

// OpenStore opens the store for the given backend name.
func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case config.BackendJSON, "":
		return NewFileStore(path), nil
	case config.BackendSQLite:
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// FileStore keeps the snapshot as a single JSON document.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path. Nothing is touched on disk
// until the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }
func (f *FileStore) Close() error { return nil }

// Load reads and decodes the snapshot file.
func (f *FileStore) Load(ctx context.Context) (Snapshot, error) {
	defer metrics.Timer(metrics.SnapshotLoad)()
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return Decode(data)
}

// Save writes the snapshot atomically (temp file + rename) so the file
// watcher never sees a half-written document.
func (f *FileStore) Save(ctx context.Context, s Snapshot) error {
	defer metrics.Timer(metrics.SnapshotSave)()
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(s.Stamped())
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	debug.Log("snapshot saved to %s (%d bytes, %d cards)", f.path, len(data), len(s.Cards))
	return nil
}
