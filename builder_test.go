package examauth

import (
	"context"
	"strings"
	"testing"
)

func TestBuildRequiresStores(t *testing.T) {
	_, err := New().WithConfig(fastTestConfig()).Build(context.Background())
	if err == nil || !strings.Contains(err.Error(), "record stores required") {
		t.Fatalf("expected missing-stores error, got %v", err)
	}
}

func TestBuildRejectsReuse(t *testing.T) {
	stores := newTestStores()
	b := New().
		WithConfig(fastTestConfig()).
		WithStores(stores.users, stores.lecturers, stores.examPersonnel)

	engine, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(context.Background()); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := fastTestConfig()
	cfg.Lockout.Threshold = 0
	stores := newTestStores()

	_, err := New().
		WithConfig(cfg).
		WithStores(stores.users, stores.lecturers, stores.examPersonnel).
		Build(context.Background())
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildSeedsBootstrapAdmin(t *testing.T) {
	_, stores := newTestEngine(t, fastTestConfig())

	entry, ok := loadPrimaryEntry(t, stores.users, "admin")
	if !ok {
		t.Fatal("expected bootstrap admin seeded")
	}
	if entry.Role != RoleAdmin || entry.Attempts != 0 || entry.Blocked {
		t.Fatalf("unexpected bootstrap entry: %+v", entry)
	}
	if entry.Password == "admin123" {
		t.Fatal("bootstrap password must be stored hashed")
	}
	if entry.Name != "Administrator" {
		t.Fatalf("unexpected display name %q", entry.Name)
	}
}

func TestBuildLeavesExistingAdminAlone(t *testing.T) {
	stores := newTestStores()
	ctx := context.Background()

	first, err := New().
		WithConfig(fastTestConfig()).
		WithStores(stores.users, stores.lecturers, stores.examPersonnel).
		Build(ctx)
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	if err := first.ChangePassword(ctx, "admin", "rotated-pass"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	first.Close()

	second, err := New().
		WithConfig(fastTestConfig()).
		WithStores(stores.users, stores.lecturers, stores.examPersonnel).
		Build(ctx)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	defer second.Close()

	if _, err := second.Login(ctx, "admin", "rotated-pass"); err != nil {
		t.Fatalf("expected rotated password to survive rebuild, got %v", err)
	}
}

func TestBuildGeneratesTokenSecretWhenEmpty(t *testing.T) {
	cfg := fastTestConfig()
	cfg.Session.TokenSecret = nil
	engine, _ := newTestEngine(t, cfg)
	ctx := context.Background()

	result, err := engine.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := engine.ValidateSession(ctx, result.Token); err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
}

func TestEngineZeroValueNotReady(t *testing.T) {
	var engine Engine

	if _, err := engine.Login(context.Background(), "admin", "admin123"); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := engine.ResetAttempts(context.Background(), "admin"); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
