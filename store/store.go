package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names the role-scoped record collections used by the directory.
// The values double as file stems and table keys, so they must stay stable
// across releases.
type Collection string

const (
	// CollectionUsers is the primary directory holding the security mirror for
	// every account.
	CollectionUsers Collection = "users"
	// CollectionLecturers holds lecturer profile records.
	CollectionLecturers Collection = "lecturers"
	// CollectionExamPersonnel holds exam-personnel profile records.
	CollectionExamPersonnel Collection = "exam_personnel"
	// CollectionExamPapers holds assembled exam paper sets.
	CollectionExamPapers Collection = "exam_papers"
)

// ErrUnavailable is returned when the backing medium rejects a write. Callers
// must treat it as fatal for the operation in progress; records in memory and
// records on disk may disagree until the next successful save.
var ErrUnavailable = errors.New("record store unavailable")

// RecordStore is a durable mapping from username (or set name) to an opaque
// JSON document, covering exactly one collection.
//
// Both operations act on the entire collection. There is no per-record update;
// every mutation is load-all, mutate in memory, save-all. Serializing those
// read-modify-write cycles is the caller's job, not the store's.
type RecordStore interface {
	// LoadAll returns every record in the collection. A missing or unreadable
	// backing medium yields an empty map and a nil error.
	LoadAll(ctx context.Context) (map[string]json.RawMessage, error)

	// SaveAll replaces the entire collection. Failures wrap ErrUnavailable.
	SaveAll(ctx context.Context, records map[string]json.RawMessage) error
}

func cloneRecords(records map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(records))
	for k, v := range records {
		doc := make(json.RawMessage, len(v))
		copy(doc, v)
		out[k] = doc
	}
	return out
}
