package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestSession(username string, ttl time.Duration) Session {
	return New(username, "lecturer", "Display Name", ttl)
}

func TestNewPopulatesSession(t *testing.T) {
	before := time.Now()
	s := newTestSession("lect1", time.Hour)

	if s.ID == "" {
		t.Fatal("expected a session ID")
	}
	if s.Username != "lect1" || s.Role != "lecturer" || s.DisplayName != "Display Name" {
		t.Fatalf("unexpected session fields: %+v", s)
	}
	if s.IssuedAt.Before(before.Add(-time.Second)) {
		t.Fatalf("issued-at in the past: %v", s.IssuedAt)
	}
	if !s.ExpiresAt.After(s.IssuedAt) {
		t.Fatalf("expiry not after issuance: %+v", s)
	}
	if s.Expired() {
		t.Fatal("fresh session reports expired")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := newTestSession("u", time.Hour)
	b := newTestSession("u", time.Hour)
	if a.ID == b.ID {
		t.Fatal("expected unique session IDs")
	}
}

func registries(t *testing.T) map[string]Registry {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return map[string]Registry{
		"memory": NewMemoryRegistry(),
		"redis":  NewRedisRegistry(client, "test"),
	}
}

func TestRegistryPutGetDelete(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestSession("lect1", time.Hour)

			if err := reg.Put(ctx, s); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			got, err := reg.Get(ctx, s.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.ID != s.ID || got.Username != s.Username {
				t.Fatalf("unexpected session: %+v", got)
			}

			if err := reg.Delete(ctx, s.ID); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := reg.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := reg.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestRegistryDeleteUserDropsAllSessions(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := newTestSession("lect1", time.Hour)
			second := newTestSession("lect1", time.Hour)
			other := newTestSession("staff1", time.Hour)

			for _, s := range []Session{first, second, other} {
				if err := reg.Put(ctx, s); err != nil {
					t.Fatalf("Put failed: %v", err)
				}
			}

			dropped, err := reg.DeleteUser(ctx, "lect1")
			if err != nil {
				t.Fatalf("DeleteUser failed: %v", err)
			}
			if dropped != 2 {
				t.Fatalf("expected 2 dropped sessions, got %d", dropped)
			}
			for _, id := range []string{first.ID, second.ID} {
				if _, err := reg.Get(ctx, id); !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected lect1 session %s gone, got %v", id, err)
				}
			}
			if _, err := reg.Get(ctx, other.ID); err != nil {
				t.Fatalf("unrelated session must survive, got %v", err)
			}
		})
	}
}

func TestMemoryRegistryReapsExpired(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()
	s := newTestSession("lect1", time.Millisecond)

	if err := reg.Put(ctx, s); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := reg.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session reaped, got %v", err)
	}
}

func TestRedisRegistryHonorsTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	reg := NewRedisRegistry(client, "test")
	ctx := context.Background()

	s := newTestSession("lect1", time.Minute)
	if err := reg.Put(ctx, s); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := reg.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected session expired in redis, got %v", err)
	}
}
