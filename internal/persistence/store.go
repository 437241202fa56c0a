// Package persistence implements durable JSON snapshot storage for the
// registry's Document: single-writer atomic writes, and a tolerant-of-absence
// load used on first boot.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

// Permission modes for the snapshot directory and file, matching the
// teacher's database package convention of owner-only access for local
// state.
const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// Store persists a registry.Document to a single JSON file on disk. All
// writes go through a temp-file-then-rename sequence so a crash mid-write
// never leaves a torn snapshot behind.
//
// Store serializes its own writers with an internal mutex; it does not
// serialize against the registry.Store's mutations, which is fine since the
// registry always calls Save with a private deep copy taken under its own
// lock.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a Store backed by path. It does not read or create the file;
// call Load to do that.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("persistence: creating snapshot directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Load reads the Document from disk. A missing file is not an error: it
// returns registry.EmptyDocument's shape via the caller, signaled by
// (nil, nil), so that first-boot startup can seed a fresh registry instead
// of failing.
func (s *Store) Load() (*registry.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: reading snapshot %q: %w", s.path, err)
	}

	var doc registry.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("persistence: parsing snapshot %q: %w", s.path, err)
	}
	return &doc, nil
}

// Save writes doc to disk atomically: marshal, write to a sibling temp
// file, fsync, then rename over the real path. Rename is atomic on the
// same filesystem, so readers never observe a partial file.
func (s *Store) Save(doc *registry.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshaling snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: creating temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op once rename succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: writing temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: syncing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: closing temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpPath, filePermissions); err != nil {
		return fmt.Errorf("persistence: setting snapshot permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("persistence: renaming snapshot into place: %w", err)
	}
	return nil
}

// Path returns the filesystem path backing the Store.
func (s *Store) Path() string {
	return s.path
}
