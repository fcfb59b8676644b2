package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBlobs stores each blob as <dir>/<key>.json.
type FileBlobs struct {
	mu  sync.RWMutex
	dir string
}

// NewFileBlobs creates a file backend rooted at dir, creating it if needed.
// An empty dir defaults to ~/.config/flowsankey/state.
func NewFileBlobs(dir string) (*FileBlobs, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileBlobs{dir: dir}, nil
}

// DefaultDir returns the default state directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("get home dir: %w", herr)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "flowsankey", "state"), nil
}

func (b *FileBlobs) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes through a temporary file and renames it into place so a
// crash never leaves a half-written blob.
func (b *FileBlobs) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), b.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (b *FileBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (b *FileBlobs) Close() error { return nil }

// Dir returns the directory blobs are stored in.
func (b *FileBlobs) Dir() string { return b.dir }

var _ Blobs = (*FileBlobs)(nil)
