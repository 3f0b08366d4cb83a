package examauth

import (
	"context"
	"fmt"
	"strings"
)

// ChangePassword replaces an account's credential. The new value is hashed
// and written to the mirror first, then to the role store when the account
// has one, so a later login always sees the new credential even if the
// second write is lost. The change takes effect immediately; existing
// sessions stay valid.
func (e *Engine) ChangePassword(ctx context.Context, username, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}

	encoded, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, username, "", err, nil)
		return err
	}

	release, err := e.lockAll(ctx)
	if err != nil {
		return err
	}
	defer release()

	view, err := e.resolve(ctx, username)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, username, "", err, nil)
		return err
	}

	view.mirror.Password = encoded
	view.primary[username] = encodeMirror(view.mirror)
	if err := e.savePrimary(ctx, view.primary); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, username, "", err, nil)
		return err
	}

	if view.canonical != "" {
		view.roleRecord.Password = encoded
		view.roleAll[username] = encodeRoleRecord(view.roleRecord)
		if err := e.saveRoleStore(ctx, view.canonical, view.roleAll); err != nil {
			e.emitAudit(ctx, auditEventPasswordChangeFailure, false, username, "", err, nil)
			return err
		}
	}

	e.metricInc(MetricPasswordChanged)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, username, "", nil, nil)
	return nil
}

// RenameAccount moves an account to a new username across every store it
// appears in and revokes the account's sessions, forcing a fresh login under
// the new name. A rename onto an existing username fails with
// ErrDuplicateUsername rather than silently absorbing the other account.
func (e *Engine) RenameAccount(ctx context.Context, oldName, newName string) error {
	if err := e.ready(); err != nil {
		return err
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		e.emitAudit(ctx, auditEventRenameRejected, false, oldName, "", ErrInvalidUsername, nil)
		return ErrInvalidUsername
	}
	if newName == oldName {
		return nil
	}
	// The built-in admin must stay resolvable under its configured name;
	// renaming it would also strip the deletion guard keyed on that name.
	if oldName == e.config.Bootstrap.AdminUsername {
		e.emitAudit(ctx, auditEventRenameRejected, false, oldName, "", ErrProtectedAccount, nil)
		return fmt.Errorf("%w: %s", ErrProtectedAccount, oldName)
	}

	release, err := e.lockAll(ctx)
	if err != nil {
		return err
	}
	defer release()

	view, err := e.resolve(ctx, oldName)
	if err != nil {
		e.emitAudit(ctx, auditEventRenameRejected, false, oldName, "", err, nil)
		return err
	}

	taken, err := e.usernameTaken(ctx, view, newName)
	if err != nil {
		return err
	}
	if taken {
		e.emitAudit(ctx, auditEventRenameRejected, false, oldName, "", ErrDuplicateUsername, func() map[string]string {
			return map[string]string{"new_username": newName}
		})
		return fmt.Errorf("%w: %s", ErrDuplicateUsername, newName)
	}

	// Role store first; an interruption between the two writes leaves the
	// new name resolvable through mirror materialization.
	if view.canonical != "" {
		delete(view.roleAll, oldName)
		view.roleAll[newName] = encodeRoleRecord(view.roleRecord)
		if err := e.saveRoleStore(ctx, view.canonical, view.roleAll); err != nil {
			return err
		}
	}

	delete(view.primary, oldName)
	view.primary[newName] = encodeMirror(view.mirror)
	if err := e.savePrimary(ctx, view.primary); err != nil {
		return err
	}

	dropped, err := e.sessions.DeleteUser(ctx, oldName)
	if err != nil {
		return fmt.Errorf("revoke sessions for %s: %w", oldName, err)
	}
	e.metricAdd(MetricSessionInvalidated, dropped)

	e.metricInc(MetricAccountRenamed)
	e.emitAudit(ctx, auditEventAccountRenamed, true, oldName, "", nil, func() map[string]string {
		return map[string]string{"new_username": newName}
	})
	return nil
}

// ResetAttempts is the administrative unlock: it zeroes the failure counter
// and clears the blocked flag. Resetting an account that was never blocked is
// a harmless no-op.
func (e *Engine) ResetAttempts(ctx context.Context, username string) error {
	if err := e.ready(); err != nil {
		return err
	}

	release, err := e.lockPrimary(ctx)
	if err != nil {
		return err
	}
	defer release()

	view, err := e.resolve(ctx, username)
	if err != nil {
		return err
	}

	if view.mirror.Attempts == 0 && !view.mirror.Blocked {
		return nil
	}

	view.mirror.Attempts = 0
	view.mirror.Blocked = false
	view.primary[username] = encodeMirror(view.mirror)
	if err := e.savePrimary(ctx, view.primary); err != nil {
		return err
	}

	e.metricInc(MetricAttemptsReset)
	e.emitAudit(ctx, auditEventAttemptsReset, true, username, "", nil, nil)
	return nil
}

// usernameTaken reports whether name exists in any account collection. The
// caller must hold every collection's critical section.
func (e *Engine) usernameTaken(ctx context.Context, view *accountView, name string) (bool, error) {
	if _, ok := view.primary[name]; ok {
		return true, nil
	}
	for _, c := range roleCollections {
		recs := view.roleAll
		if c != view.canonical {
			loaded, err := e.roleStore(c).LoadAll(ctx)
			if err != nil {
				return false, err
			}
			recs = loaded
		}
		if recs == nil {
			continue
		}
		if _, ok := recs[name]; ok {
			return true, nil
		}
	}
	return false, nil
}
