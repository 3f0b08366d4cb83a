package examauth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/exametric/examauth/store"
)

// accountView is the resolver's merged picture of one account: the mirror
// entry that drives authentication, the loaded primary collection (so the
// caller can mutate and persist it without a second load), and the canonical
// role store when one holds the profile.
type accountView struct {
	username string
	mirror   mirrorEntry

	// primary is the full primary collection as loaded; mutations write back
	// through it inside the same critical section.
	primary map[string]json.RawMessage

	// canonical is "" for accounts living in the primary directory only.
	canonical  store.Collection
	roleRecord roleRecord
	roleAll    map[string]json.RawMessage
}

// resolve merges the primary directory with the role stores to locate
// username. When the account exists only in a role store, resolve materializes
// the missing mirror entry (attempts=0, unblocked) and persists it before
// returning — role-store records can be created by paths that never touched
// the primary directory, and authentication must not trust a half-present
// account. Callers must hold at least the primary critical section.
func (e *Engine) resolve(ctx context.Context, username string) (*accountView, error) {
	primary, err := e.users.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	view := &accountView{username: username, primary: primary}

	for _, c := range roleCollections {
		recs, err := e.roleStore(c).LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		raw, ok := recs[username]
		if !ok {
			continue
		}
		rec, err := decodeRoleRecord(raw)
		if err != nil {
			continue
		}
		view.canonical = c
		view.roleRecord = rec
		view.roleAll = recs
		break
	}

	raw, inMirror := primary[username]
	if inMirror {
		mirror, err := decodeMirror(raw)
		if err == nil {
			view.mirror = mirror
			return view, nil
		}
		// Corrupt mirror entry: fall through and rebuild it from the role
		// record when one exists.
	}

	if view.canonical == "" {
		return nil, ErrUnknownUser
	}

	view.mirror = mirrorEntry{
		Password: view.roleRecord.Password,
		Role:     view.roleRecord.Role,
		Attempts: 0,
		Blocked:  false,
		Name:     displayName(view.roleRecord.Profile["name"], username),
	}
	primary[username] = encodeMirror(view.mirror)
	if err := e.savePrimary(ctx, primary); err != nil {
		return nil, err
	}

	e.metricInc(MetricMirrorHealed)
	e.emitAudit(ctx, auditEventMirrorHealed, true, username, "", nil, func() map[string]string {
		return map[string]string{"source": string(view.canonical)}
	})
	return view, nil
}

// savePrimary persists the primary collection, counting write failures.
func (e *Engine) savePrimary(ctx context.Context, primary map[string]json.RawMessage) error {
	if err := e.users.SaveAll(ctx, primary); err != nil {
		e.metricInc(MetricStoreWriteFailure)
		return fmt.Errorf("persist primary directory: %w", err)
	}
	return nil
}

// saveRoleStore persists a role collection, counting write failures.
func (e *Engine) saveRoleStore(ctx context.Context, c store.Collection, recs map[string]json.RawMessage) error {
	if err := e.roleStore(c).SaveAll(ctx, recs); err != nil {
		e.metricInc(MetricStoreWriteFailure)
		return fmt.Errorf("persist %s: %w", c, err)
	}
	return nil
}
