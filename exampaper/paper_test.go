package exampaper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/exametric/examauth/store"
)

func newTestManager() *Manager {
	return NewManager(store.NewMemoryStore(), time.Second)
}

func TestDefaultSetsMaterialized(t *testing.T) {
	m := newTestManager()

	sets, err := m.Sets(context.Background())
	if err != nil {
		t.Fatalf("Sets failed: %v", err)
	}
	if len(sets) != 2 || sets[0] != "Set 1" || sets[1] != "Set 2" {
		t.Fatalf("expected default sets, got %v", sets)
	}
}

func TestAddQuestionAppends(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if err := m.AddQuestion(ctx, "Set 1", SectionA, "Define normalization."); err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}

	paper, err := m.Paper(ctx, "Set 1")
	if err != nil {
		t.Fatalf("Paper failed: %v", err)
	}
	if len(paper[SectionA]) != 1 || paper[SectionA][0] != "Define normalization." {
		t.Fatalf("unexpected section A contents: %v", paper[SectionA])
	}
}

func TestSectionCapacityCaps(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	for i := 0; i < SectionA.Cap(); i++ {
		if err := m.AddQuestion(ctx, "Set 1", SectionA, fmt.Sprintf("A question %d", i)); err != nil {
			t.Fatalf("add %d to section A failed: %v", i, err)
		}
	}
	if err := m.AddQuestion(ctx, "Set 1", SectionA, "one too many"); !errors.Is(err, ErrSectionFull) {
		t.Fatalf("expected ErrSectionFull for section A, got %v", err)
	}

	for i := 0; i < SectionB.Cap(); i++ {
		if err := m.AddQuestion(ctx, "Set 1", SectionB, fmt.Sprintf("B question %d", i)); err != nil {
			t.Fatalf("add %d to section B failed: %v", i, err)
		}
	}
	if err := m.AddQuestion(ctx, "Set 1", SectionB, "one too many"); !errors.Is(err, ErrSectionFull) {
		t.Fatalf("expected ErrSectionFull for section B, got %v", err)
	}
}

func TestCapacityIsPerSetAndSection(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	for i := 0; i < SectionA.Cap(); i++ {
		if err := m.AddQuestion(ctx, "Set 1", SectionA, fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("fill set 1 section A failed: %v", err)
		}
	}

	// A full Set 1 Section A must not affect Set 2 or Section B.
	if err := m.AddQuestion(ctx, "Set 2", SectionA, "other set"); err != nil {
		t.Fatalf("add to set 2 failed: %v", err)
	}
	if err := m.AddQuestion(ctx, "Set 1", SectionB, "other section"); err != nil {
		t.Fatalf("add to section B failed: %v", err)
	}
}

func TestUpdateQuestionReplacesInPlace(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if err := m.AddQuestion(ctx, "Set 1", SectionB, "old text"); err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}
	if err := m.UpdateQuestion(ctx, "Set 1", SectionB, 0, "new text"); err != nil {
		t.Fatalf("UpdateQuestion failed: %v", err)
	}

	paper, err := m.Paper(ctx, "Set 1")
	if err != nil {
		t.Fatalf("Paper failed: %v", err)
	}
	if paper[SectionB][0] != "new text" {
		t.Fatalf("expected updated text, got %q", paper[SectionB][0])
	}
}

func TestRemoveQuestionShiftsAndFreesCapacity(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	for i := 0; i < SectionB.Cap(); i++ {
		if err := m.AddQuestion(ctx, "Set 1", SectionB, fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("fill section B failed: %v", err)
		}
	}
	if err := m.RemoveQuestion(ctx, "Set 1", SectionB, 0); err != nil {
		t.Fatalf("RemoveQuestion failed: %v", err)
	}

	paper, err := m.Paper(ctx, "Set 1")
	if err != nil {
		t.Fatalf("Paper failed: %v", err)
	}
	if len(paper[SectionB]) != SectionB.Cap()-1 || paper[SectionB][0] != "q1" {
		t.Fatalf("unexpected section B after remove: %v", paper[SectionB])
	}

	if err := m.AddQuestion(ctx, "Set 1", SectionB, "refill"); err != nil {
		t.Fatalf("expected capacity freed after remove, got %v", err)
	}
}

func TestMutationErrors(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	if err := m.AddQuestion(ctx, "Set 9", SectionA, "q"); !errors.Is(err, ErrUnknownSet) {
		t.Fatalf("expected ErrUnknownSet, got %v", err)
	}
	if err := m.AddQuestion(ctx, "Set 1", Section("Section C"), "q"); !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
	if err := m.AddQuestion(ctx, "Set 1", SectionA, ""); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if err := m.UpdateQuestion(ctx, "Set 1", SectionA, 0, "q"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := m.RemoveQuestion(ctx, "Set 1", SectionA, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestPapersPersistAcrossManagers(t *testing.T) {
	backing := store.NewMemoryStore()
	ctx := context.Background()

	m1 := NewManager(backing, time.Second)
	if err := m1.AddQuestion(ctx, "Set 2", SectionA, "survives"); err != nil {
		t.Fatalf("AddQuestion failed: %v", err)
	}

	m2 := NewManager(backing, time.Second)
	paper, err := m2.Paper(ctx, "Set 2")
	if err != nil {
		t.Fatalf("Paper failed: %v", err)
	}
	if len(paper[SectionA]) != 1 || paper[SectionA][0] != "survives" {
		t.Fatalf("expected persisted question, got %v", paper[SectionA])
	}
}
