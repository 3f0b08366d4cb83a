// Package locks provides keyed mutual exclusion with a bounded wait.
//
// The directory serializes every read-modify-write cycle against a collection
// behind one of these locks. Waiters that exceed their bound get an error back
// instead of blocking the caller indefinitely.
package locks

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrWaitTimeout is returned when a lock could not be acquired within the
// caller's wait bound.
var ErrWaitTimeout = errors.New("lock wait timeout")

// Keyed hands out one mutex per pre-registered key. The key space is a
// handful of collection names fixed at construction, so slots are never
// created or reaped afterwards.
type Keyed struct {
	slots map[string]chan struct{}
}

// NewKeyed creates a Keyed with pre-registered keys. Acquire panics on an
// unregistered key: the set of collections is fixed at build time and a miss
// is a programming error, not a runtime condition.
func NewKeyed(keys ...string) *Keyed {
	slots := make(map[string]chan struct{}, len(keys))
	for _, k := range keys {
		slots[k] = make(chan struct{}, 1)
	}
	return &Keyed{slots: slots}
}

// Acquire takes the lock for key, waiting at most wait. On success it returns
// a release func that must be called exactly once. On timeout it returns
// ErrWaitTimeout; on context cancellation, the context error.
func (k *Keyed) Acquire(ctx context.Context, key string, wait time.Duration) (func(), error) {
	slot, ok := k.slots[key]
	if !ok {
		panic("locks: unregistered key " + key)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-timer.C:
		return nil, ErrWaitTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AcquireAll takes the locks for every key in deterministic order, so two
// operations touching overlapping key sets cannot deadlock. Either all locks
// are held on return, or none are.
func (k *Keyed) AcquireAll(ctx context.Context, wait time.Duration, keys ...string) (func(), error) {
	ordered := append([]string(nil), keys...)
	sort.Strings(ordered)

	releases := make([]func(), 0, len(ordered))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	deadline := time.Now().Add(wait)
	for _, key := range ordered {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			releaseAll()
			return nil, ErrWaitTimeout
		}
		release, err := k.Acquire(ctx, key, remaining)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
