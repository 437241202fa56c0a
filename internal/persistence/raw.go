package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RawStore is a generic single-writer JSON snapshot store for documents
// that, unlike the registry's Document, don't need a dedicated type in this
// package — the per-service control settings files in particular.
//
// It shares persistence.Store's atomic temp-file-then-rename write
// discipline.
type RawStore struct {
	mu   sync.Mutex
	path string
}

// OpenRaw returns a RawStore backed by path, creating its directory if
// needed.
func OpenRaw(path string) (*RawStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("persistence: creating settings directory: %w", err)
	}
	return &RawStore{path: path}, nil
}

// Load decodes the file at path into dst. It returns (false, nil) when the
// file does not exist yet, so callers can fall back to a default document.
func (s *RawStore) Load(dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("persistence: reading %q: %w", s.path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("persistence: parsing %q: %w", s.path, err)
	}
	return true, nil
}

// Save atomically writes doc to path.
func (s *RawStore) Save(doc any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshaling %q: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: creating temp file for %q: %w", s.path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op once rename succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: writing %q: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: syncing %q: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: closing temp file for %q: %w", s.path, err)
	}
	if err := os.Chmod(tmpPath, filePermissions); err != nil {
		return fmt.Errorf("persistence: setting permissions on %q: %w", s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("persistence: renaming into place %q: %w", s.path, err)
	}
	return nil
}
