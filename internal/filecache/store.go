// Package filecache persists JSON documents as files next to the data they
// describe, and schedules pruning of stale entries.
package filecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store reads and writes JSON cache files. Writes are atomic: a document
// is written to a temp file in the target directory and renamed into place.
type Store struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{locks: make(map[string]*keyLock)}
}

// Lock serialises work on one cache path and returns its unlock function.
// Callers hold it across load, compute and store so concurrent requests for
// the same key do the expensive work once.
func (s *Store) Lock(path string) (unlock func()) {
	key := filepath.Clean(path)

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Load decodes the document at path into v. ok is false when no document
// exists.
func (s *Store) Load(path string, v any) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("filecache: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("filecache: decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// Save encodes v as indented JSON and atomically replaces the file at path.
func (s *Store) Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("filecache: encode: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filecache: temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("filecache: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("filecache: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("filecache: rename: %w", err)
	}
	return nil
}

// Exists reports whether a document exists at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
