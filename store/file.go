package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists one collection as a single JSON document on disk, the
// same layout the original deployment used (users.json, lecturers.json, ...).
//
// Writes go through a temp file in the same directory followed by a rename,
// so a crash mid-save leaves either the old document or the new one, never a
// truncated mix.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by the JSON document at path. The
// file does not need to exist yet; the first LoadAll of a missing file yields
// an empty collection.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// FileStores opens the standard directory layout under dir: one JSON file per
// collection, named after the collection.
func FileStores(dir string) map[Collection]*FileStore {
	out := make(map[Collection]*FileStore, 4)
	for _, c := range []Collection{CollectionUsers, CollectionLecturers, CollectionExamPersonnel, CollectionExamPapers} {
		out[c] = NewFileStore(filepath.Join(dir, string(c)+".json"))
	}
	return out
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// LoadAll reads the whole collection. Missing files and corrupt documents both
// fall back to an empty collection; only the write path is allowed to fail.
func (s *FileStore) LoadAll(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]json.RawMessage{}, nil
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return map[string]json.RawMessage{}, nil
	}
	if records == nil {
		records = map[string]json.RawMessage{}
	}
	return records, nil
}

// SaveAll atomically replaces the collection document on disk.
func (s *FileStore) SaveAll(ctx context.Context, records map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrUnavailable, s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: temp file for %s: %v", ErrUnavailable, s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", ErrUnavailable, s.path, err)
	}
	return nil
}
