package session

import (
	"context"
	"sync"
)

// MemoryRegistry is the default process-local Registry. Expired sessions are
// reaped lazily on access; the population is bounded by the number of active
// users, so there is no background sweeper.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]Session
	byUser   map[string]map[string]struct{}
}

// NewMemoryRegistry returns an empty MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: map[string]Session{},
		byUser:   map[string]map[string]struct{}{},
	}
}

// Put stores s, replacing any session with the same ID.
func (r *MemoryRegistry) Put(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[s.ID]; ok {
		r.unindex(prev)
	}
	r.sessions[s.ID] = s
	ids, ok := r.byUser[s.Username]
	if !ok {
		ids = map[string]struct{}{}
		r.byUser[s.Username] = ids
	}
	ids[s.ID] = struct{}{}
	return nil
}

// Get resolves id, dropping it when expired.
func (r *MemoryRegistry) Get(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Expired() {
		delete(r.sessions, id)
		r.unindex(s)
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Delete removes a session; absent IDs are a no-op.
func (r *MemoryRegistry) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		r.unindex(s)
	}
	return nil
}

// DeleteUser removes every session of username.
func (r *MemoryRegistry) DeleteUser(ctx context.Context, username string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byUser[username]
	for id := range ids {
		delete(r.sessions, id)
	}
	delete(r.byUser, username)
	return len(ids), nil
}

// unindex must be called with r.mu held.
func (r *MemoryRegistry) unindex(s Session) {
	if ids, ok := r.byUser[s.Username]; ok {
		delete(ids, s.ID)
		if len(ids) == 0 {
			delete(r.byUser, s.Username)
		}
	}
}
