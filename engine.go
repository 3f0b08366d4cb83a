package examauth

import (
	"context"
	"fmt"

	"github.com/exametric/examauth/internal/locks"
	"github.com/exametric/examauth/password"
	"github.com/exametric/examauth/session"
	"github.com/exametric/examauth/store"
)

// Engine is the account directory and authentication engine. Build one with
// [Builder]; a built Engine is safe for concurrent use and treated as
// immutable.
type Engine struct {
	config        Config
	users         store.RecordStore
	lecturers     store.RecordStore
	examPersonnel store.RecordStore
	locks         *locks.Keyed
	sessions      session.Registry
	tokens        *session.TokenCodec
	hasher        *password.Hasher
	audit         *auditDispatcher
	metrics       *Metrics
}

// Close flushes and stops the audit dispatcher. The Engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n int) {
	if e == nil || e.metrics == nil || n <= 0 {
		return
	}
	e.metrics.Add(id, uint64(n))
}

// roleCollections lists the role-specific stores in resolver search order.
var roleCollections = []store.Collection{
	store.CollectionLecturers,
	store.CollectionExamPersonnel,
}

func (e *Engine) roleStore(c store.Collection) store.RecordStore {
	switch c {
	case store.CollectionLecturers:
		return e.lecturers
	case store.CollectionExamPersonnel:
		return e.examPersonnel
	}
	return nil
}

// lockPrimary enters the primary directory's critical section. Login only
// ever mutates the mirror, so the hot path serializes on one store.
func (e *Engine) lockPrimary(ctx context.Context) (func(), error) {
	return e.lock(ctx, string(store.CollectionUsers))
}

// lockAll enters every account collection's critical section in
// deterministic order. Cross-store mutations (create, delete, rename,
// password change, reset-to-defaults) use this to keep the mirror and the
// role stores moving together.
func (e *Engine) lockAll(ctx context.Context) (func(), error) {
	release, err := e.locks.AcquireAll(ctx, e.config.Lockout.LockWait,
		string(store.CollectionUsers),
		string(store.CollectionLecturers),
		string(store.CollectionExamPersonnel),
	)
	if err != nil {
		return nil, e.lockErr(ctx, err)
	}
	return release, nil
}

func (e *Engine) lock(ctx context.Context, key string) (func(), error) {
	release, err := e.locks.Acquire(ctx, key, e.config.Lockout.LockWait)
	if err != nil {
		return nil, e.lockErr(ctx, err)
	}
	return release, nil
}

func (e *Engine) lockErr(ctx context.Context, err error) error {
	if err == locks.ErrWaitTimeout {
		e.metricInc(MetricStoreConflict)
		e.emitAudit(ctx, auditEventStoreConflict, false, "", "", ErrConflict, nil)
		return fmt.Errorf("%w: store busy", ErrConflict)
	}
	return err
}

func (e *Engine) ready() error {
	if e == nil || e.hasher == nil || e.users == nil || e.locks == nil {
		return ErrEngineNotReady
	}
	return nil
}
