package examauth

import (
	"context"
	"testing"
	"time"

	"github.com/exametric/examauth/store"
)

func newAuditedEngine(t *testing.T) (*Engine, *ChannelSink) {
	t.Helper()
	sink := NewChannelSink(64)
	stores := newTestStores()
	engine, err := New().
		WithConfig(fastTestConfig()).
		WithStores(stores.users, stores.lecturers, stores.examPersonnel).
		WithAuditSink(sink).
		Build(context.Background())
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, sink
}

func collectEvents(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	events := make([]AuditEvent, 0, n)
	deadline := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case e := <-sink.Events():
			events = append(events, e)
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d: %v", n, len(events), events)
		}
	}
	return events
}

func TestAuditLoginLifecycle(t *testing.T) {
	engine, sink := newAuditedEngine(t)
	ctx := context.Background()

	_, _ = engine.Login(ctx, "admin", "wrong-pass")
	result, err := engine.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := engine.Logout(ctx, result.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	events := collectEvents(t, sink, 3)

	if events[0].EventType != "login_failure" || events[0].Success {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[0].Error != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials code, got %q", events[0].Error)
	}
	if events[0].Metadata["attempts_remaining"] != "2" {
		t.Fatalf("expected attempts_remaining metadata, got %v", events[0].Metadata)
	}

	if events[1].EventType != "login_success" || !events[1].Success {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if events[1].SessionID == "" {
		t.Fatal("login_success must carry the session ID")
	}

	if events[2].EventType != "logout_session" || events[2].SessionID != events[1].SessionID {
		t.Fatalf("unexpected third event: %+v", events[2])
	}
}

func TestAuditBlockedLogin(t *testing.T) {
	engine, sink := newAuditedEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = engine.Login(ctx, "admin", "wrong-pass")
	}

	events := collectEvents(t, sink, 3)
	last := events[2]
	if last.EventType != "login_blocked" || last.Error != "account_blocked" {
		t.Fatalf("expected login_blocked event, got %+v", last)
	}
}

func TestAuditMirrorHealed(t *testing.T) {
	engine, sink := newAuditedEngine(t)
	ctx := context.Background()

	mustCreate(t, engine, CreateAccountRequest{
		Username: "lect1",
		Password: "lecturer-pass",
		Role:     RoleLecturer,
	})
	// Consume the creation event.
	_ = collectEvents(t, sink, 1)

	// Remove the mirror entry so the next login has to heal it.
	recs, err := engine.users.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load primary: %v", err)
	}
	delete(recs, "lect1")
	if err := engine.users.SaveAll(ctx, recs); err != nil {
		t.Fatalf("save primary: %v", err)
	}

	if _, err := engine.Login(ctx, "lect1", "lecturer-pass"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	events := collectEvents(t, sink, 2)
	if events[0].EventType != "mirror_healed" {
		t.Fatalf("expected mirror_healed before login_success, got %+v", events[0])
	}
	if events[0].Metadata["source"] != string(store.CollectionLecturers) {
		t.Fatalf("expected source metadata, got %v", events[0].Metadata)
	}
	if events[1].EventType != "login_success" {
		t.Fatalf("expected login_success, got %+v", events[1])
	}
}

func TestAuditDroppedCounter(t *testing.T) {
	engine, _ := newTestEngine(t, fastTestConfig())

	// Audit disabled: nothing is ever dropped.
	if engine.AuditDropped() != 0 {
		t.Fatal("expected zero drops with auditing disabled")
	}
}
