package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-process RecordStore used by tests and throwaway
// environments. It honors the same contract as the durable backends,
// including the write-failure path via FailWrites.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]json.RawMessage

	// FailWrites makes every SaveAll return ErrUnavailable. Read before each
	// save under the store lock, so tests may flip it between operations.
	FailWrites bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]json.RawMessage{}}
}

// LoadAll returns a deep copy of the collection.
func (s *MemoryStore) LoadAll(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records), nil
}

// SaveAll replaces the collection with a deep copy of records.
func (s *MemoryStore) SaveAll(ctx context.Context, records map[string]json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return fmt.Errorf("%w: memory store write disabled", ErrUnavailable)
	}
	s.records = cloneRecords(records)
	return nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
