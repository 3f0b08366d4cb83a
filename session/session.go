package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session ID does not resolve to a live
// session. Expired and explicitly invalidated sessions are indistinguishable
// to callers.
var ErrNotFound = errors.New("session not found")

// ErrRegistryUnavailable is returned when the backing registry cannot be
// reached.
var ErrRegistryUnavailable = errors.New("session registry unavailable")

// Session is one authenticated client connection.
type Session struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// New mints a Session with a fresh random ID and the given lifetime.
func New(username, role, displayName string, ttl time.Duration) Session {
	now := time.Now().UTC()
	return Session{
		ID:          uuid.NewString(),
		Username:    username,
		Role:        role,
		DisplayName: displayName,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}
}

// Expired reports whether the session's server-side lifetime has passed.
func (s Session) Expired() bool {
	return !s.ExpiresAt.After(time.Now())
}

// Registry stores live sessions keyed by session ID, with a secondary
// username index so every session of an identity can be invalidated at once
// (rename, delete, administrative reset).
type Registry interface {
	Put(ctx context.Context, s Session) error
	// Get resolves id to a live session; expired sessions yield ErrNotFound.
	Get(ctx context.Context, id string) (Session, error)
	// Delete removes a session. Deleting an absent session is a no-op.
	Delete(ctx context.Context, id string) error
	// DeleteUser removes every session belonging to username and reports how
	// many were dropped.
	DeleteUser(ctx context.Context, username string) (int, error)
}
