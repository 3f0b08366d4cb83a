// Package exampaper manages assembled exam paper sets: per-set question
// lists split into two sections with fixed capacity caps.
//
// # Architecture boundaries
//
// The package owns the capacity invariant (Section A holds at most 5
// questions, Section B at most 3) and nothing else about question content.
// Papers persist through the same record-store layer as the account
// collections, one document per set.
//
// # What this package must NOT do
//
//   - Validate or interpret question text.
//   - Know about accounts, roles, or sessions.
package exampaper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/exametric/examauth/internal/locks"
	"github.com/exametric/examauth/store"
)

// Section identifies one of the two fixed sections of a paper.
type Section string

const (
	SectionA Section = "Section A"
	SectionB Section = "Section B"
)

const (
	sectionACap = 5
	sectionBCap = 3
)

var (
	// ErrUnknownSet is returned for a set name outside the managed sets.
	ErrUnknownSet = errors.New("unknown exam set")
	// ErrUnknownSection is returned for a section other than A or B.
	ErrUnknownSection = errors.New("unknown section")
	// ErrSectionFull is returned when an addition would exceed the section's
	// capacity cap.
	ErrSectionFull = errors.New("section is at capacity")
	// ErrIndexOutOfRange rejects update/remove positions past the question list.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrEmptyQuestion rejects blank question text.
	ErrEmptyQuestion = errors.New("question text must not be empty")
	// ErrBusy is returned when the collection's critical section stayed
	// occupied past the configured wait bound.
	ErrBusy = errors.New("exam papers busy, retry the operation")
)

// Cap returns the section's question capacity, or 0 for an unknown section.
func (s Section) Cap() int {
	switch s {
	case SectionA:
		return sectionACap
	case SectionB:
		return sectionBCap
	}
	return 0
}

// Paper is one exam set's question lists, keyed by section.
type Paper map[Section][]string

// paperDoc is the persisted shape, matching the legacy exam_papers.json
// layout.
type paperDoc struct {
	SectionA []string `json:"Section A"`
	SectionB []string `json:"Section B"`
}

func encodePaper(p Paper) json.RawMessage {
	doc := paperDoc{SectionA: p[SectionA], SectionB: p[SectionB]}
	if doc.SectionA == nil {
		doc.SectionA = []string{}
	}
	if doc.SectionB == nil {
		doc.SectionB = []string{}
	}
	data, _ := json.Marshal(doc)
	return data
}

func decodePaper(raw json.RawMessage) (Paper, error) {
	var doc paperDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return Paper{SectionA: doc.SectionA, SectionB: doc.SectionB}, nil
}

// DefaultSets are the sets materialized into an empty collection.
var DefaultSets = []string{"Set 1", "Set 2"}

// Manager owns the exam-papers collection. Safe for concurrent use; every
// mutation runs as one read-modify-write critical section against the
// backing store.
type Manager struct {
	store    store.RecordStore
	locks    *locks.Keyed
	lockWait time.Duration
}

const collectionKey = string(store.CollectionExamPapers)

// NewManager creates a Manager over the given store. lockWait bounds how
// long a mutation waits for the collection's critical section.
func NewManager(s store.RecordStore, lockWait time.Duration) *Manager {
	return &Manager{
		store:    s,
		locks:    locks.NewKeyed(collectionKey),
		lockWait: lockWait,
	}
}

// Sets lists the managed set names in sorted order, materializing the
// default sets into an empty collection.
func (m *Manager) Sets(ctx context.Context) ([]string, error) {
	release, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	recs, err := m.loadSeeded(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for name := range recs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Paper returns a copy of one set's question lists.
func (m *Manager) Paper(ctx context.Context, set string) (Paper, error) {
	release, err := m.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	recs, err := m.loadSeeded(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := recs[set]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSet, set)
	}
	paper, err := decodePaper(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", set, err)
	}
	return paper, nil
}

// AddQuestion appends question text to a section, enforcing the capacity cap.
func (m *Manager) AddQuestion(ctx context.Context, set string, section Section, text string) error {
	if text == "" {
		return ErrEmptyQuestion
	}
	return m.mutate(ctx, set, section, func(questions []string) ([]string, error) {
		if len(questions) >= section.Cap() {
			return nil, fmt.Errorf("%w: %s holds at most %d questions", ErrSectionFull, section, section.Cap())
		}
		return append(questions, text), nil
	})
}

// UpdateQuestion replaces the question at index with new text.
func (m *Manager) UpdateQuestion(ctx context.Context, set string, section Section, index int, text string) error {
	if text == "" {
		return ErrEmptyQuestion
	}
	return m.mutate(ctx, set, section, func(questions []string) ([]string, error) {
		if index < 0 || index >= len(questions) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		questions[index] = text
		return questions, nil
	})
}

// RemoveQuestion deletes the question at index, shifting later questions up.
func (m *Manager) RemoveQuestion(ctx context.Context, set string, section Section, index int) error {
	return m.mutate(ctx, set, section, func(questions []string) ([]string, error) {
		if index < 0 || index >= len(questions) {
			return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		return append(questions[:index], questions[index+1:]...), nil
	})
}

func (m *Manager) mutate(ctx context.Context, set string, section Section, fn func([]string) ([]string, error)) error {
	if section.Cap() == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}

	release, err := m.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	recs, err := m.loadSeeded(ctx)
	if err != nil {
		return err
	}
	raw, ok := recs[set]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSet, set)
	}
	paper, err := decodePaper(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", set, err)
	}

	questions, err := fn(paper[section])
	if err != nil {
		return err
	}
	paper[section] = questions
	recs[set] = encodePaper(paper)
	return m.store.SaveAll(ctx, recs)
}

// loadSeeded loads the collection, seeding the default empty sets when the
// collection is empty. The seed is in-memory only; the first mutation
// persists it.
func (m *Manager) loadSeeded(ctx context.Context) (map[string]json.RawMessage, error) {
	recs, err := m.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		for _, name := range DefaultSets {
			recs[name] = encodePaper(Paper{})
		}
	}
	return recs, nil
}

func (m *Manager) lock(ctx context.Context) (func(), error) {
	release, err := m.locks.Acquire(ctx, collectionKey, m.lockWait)
	if err != nil {
		if errors.Is(err, locks.ErrWaitTimeout) {
			return nil, ErrBusy
		}
		return nil, err
	}
	return release, nil
}
