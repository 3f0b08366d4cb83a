package examauth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/exametric/examauth/store"
)

// fastTestConfig lowers Argon2id cost so suites stay quick. Semantics under
// test are unaffected by the cost parameters.
func fastTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16
	cfg.Session.TokenSecret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

type testStores struct {
	users         *store.MemoryStore
	lecturers     *store.MemoryStore
	examPersonnel *store.MemoryStore
}

func newTestStores() *testStores {
	return &testStores{
		users:         store.NewMemoryStore(),
		lecturers:     store.NewMemoryStore(),
		examPersonnel: store.NewMemoryStore(),
	}
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *testStores) {
	t.Helper()
	stores := newTestStores()
	engine, err := New().
		WithConfig(cfg).
		WithStores(stores.users, stores.lecturers, stores.examPersonnel).
		Build(context.Background())
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, stores
}

func mustCreate(t *testing.T, engine *Engine, req CreateAccountRequest) {
	t.Helper()
	if err := engine.CreateAccount(context.Background(), req); err != nil {
		t.Fatalf("create %s: %v", req.Username, err)
	}
}

// seedRawPrimary writes a raw record straight into the primary directory,
// bypassing the engine, the way a legacy data file would arrive on disk.
func seedRawPrimary(t *testing.T, s *store.MemoryStore, username string, entry map[string]any) {
	t.Helper()
	ctx := context.Background()
	recs, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load primary: %v", err)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	recs[username] = raw
	if err := s.SaveAll(ctx, recs); err != nil {
		t.Fatalf("save primary: %v", err)
	}
}

func loadPrimaryEntry(t *testing.T, s *store.MemoryStore, username string) (mirrorEntry, bool) {
	t.Helper()
	recs, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load primary: %v", err)
	}
	raw, ok := recs[username]
	if !ok {
		return mirrorEntry{}, false
	}
	entry, err := decodeMirror(raw)
	if err != nil {
		t.Fatalf("decode mirror for %s: %v", username, err)
	}
	return entry, true
}
