package examauth

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CreateAccount registers a new account. Lecturer and exam-personnel
// accounts are written to their role store first and then mirrored into the
// primary directory; admin accounts live in the primary directory only. The
// username must be unique across every collection.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) error {
	if err := e.ready(); err != nil {
		return err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return ErrInvalidUsername
	}
	if !req.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}

	encoded, err := e.hasher.Hash(req.Password)
	if err != nil {
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, username, "", err, nil)
		return err
	}

	release, err := e.lockAll(ctx)
	if err != nil {
		return err
	}
	defer release()

	primary, err := e.users.LoadAll(ctx)
	if err != nil {
		return err
	}
	view := &accountView{primary: primary}
	taken, err := e.usernameTaken(ctx, view, username)
	if err != nil {
		return err
	}
	if taken {
		e.metricInc(MetricAccountCreationDuplicate)
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, username, "", ErrDuplicateUsername, nil)
		return fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	}

	if c := req.Role.collection(); c != "" {
		recs, err := e.roleStore(c).LoadAll(ctx)
		if err != nil {
			return err
		}
		profile := req.Profile
		if profile == nil {
			profile = Profile{}
		}
		if req.DisplayName != "" {
			profile["name"] = req.DisplayName
		}
		recs[username] = encodeRoleRecord(roleRecord{
			Password: encoded,
			Role:     req.Role,
			Profile:  profile,
		})
		if err := e.saveRoleStore(ctx, c, recs); err != nil {
			return err
		}
	}

	primary[username] = encodeMirror(mirrorEntry{
		Password: encoded,
		Role:     req.Role,
		Attempts: 0,
		Blocked:  false,
		Name:     req.DisplayName,
	})
	if err := e.savePrimary(ctx, primary); err != nil {
		return err
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, username, "", nil, func() map[string]string {
		return map[string]string{"role": string(req.Role)}
	})
	return nil
}

// DeleteAccount removes an account from every store it appears in and
// revokes its sessions. The bootstrap administrator cannot be deleted.
func (e *Engine) DeleteAccount(ctx context.Context, username string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if username == e.config.Bootstrap.AdminUsername {
		e.emitAudit(ctx, auditEventAccountDeleted, false, username, "", ErrProtectedAccount, nil)
		return fmt.Errorf("%w: %s", ErrProtectedAccount, username)
	}

	release, err := e.lockAll(ctx)
	if err != nil {
		return err
	}
	defer release()

	view, err := e.resolve(ctx, username)
	if err != nil {
		return err
	}

	if view.canonical != "" {
		delete(view.roleAll, username)
		if err := e.saveRoleStore(ctx, view.canonical, view.roleAll); err != nil {
			return err
		}
	}

	delete(view.primary, username)
	if err := e.savePrimary(ctx, view.primary); err != nil {
		return err
	}

	dropped, err := e.sessions.DeleteUser(ctx, username)
	if err != nil {
		return fmt.Errorf("revoke sessions for %s: %w", username, err)
	}
	e.metricAdd(MetricSessionInvalidated, dropped)

	e.metricInc(MetricAccountDeleted)
	e.emitAudit(ctx, auditEventAccountDeleted, true, username, "", nil, func() map[string]string {
		return map[string]string{"role": string(view.mirror.Role)}
	})
	return nil
}

// ListAccounts returns a summary row per account in the primary directory,
// sorted by username. A zero-value role lists everything; a concrete role
// filters to accounts holding it.
func (e *Engine) ListAccounts(ctx context.Context, role Role) ([]AccountSummary, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	release, err := e.lockPrimary(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	primary, err := e.users.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]AccountSummary, 0, len(primary))
	for username, raw := range primary {
		mirror, err := decodeMirror(raw)
		if err != nil {
			continue
		}
		if role != "" && mirror.Role != role {
			continue
		}
		out = append(out, AccountSummary{
			Username:    username,
			Role:        mirror.Role,
			DisplayName: displayName(mirror.Name, username),
			Attempts:    mirror.Attempts,
			Blocked:     mirror.Blocked,
			Canonical:   mirror.Role.collection(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ResetToDefaults wipes every account collection back to a fresh install:
// role stores are emptied and the primary directory keeps only the bootstrap
// administrator. The administrator's current mirror entry survives as-is
// when present, so a changed admin password is not silently reverted. All
// sessions for removed accounts are revoked.
func (e *Engine) ResetToDefaults(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}

	release, err := e.lockAll(ctx)
	if err != nil {
		return err
	}
	defer release()

	primary, err := e.users.LoadAll(ctx)
	if err != nil {
		return err
	}

	adminName := e.config.Bootstrap.AdminUsername
	var removed []string
	for username := range primary {
		if username != adminName {
			removed = append(removed, username)
		}
	}

	for _, c := range roleCollections {
		if err := e.saveRoleStore(ctx, c, map[string]json.RawMessage{}); err != nil {
			return err
		}
	}

	fresh := map[string]json.RawMessage{}
	if raw, ok := primary[adminName]; ok {
		fresh[adminName] = raw
	} else {
		entry, err := e.bootstrapAdminEntry()
		if err != nil {
			return err
		}
		fresh[adminName] = encodeMirror(entry)
	}
	if err := e.savePrimary(ctx, fresh); err != nil {
		return err
	}

	for _, username := range removed {
		dropped, err := e.sessions.DeleteUser(ctx, username)
		if err != nil {
			return fmt.Errorf("revoke sessions for %s: %w", username, err)
		}
		e.metricAdd(MetricSessionInvalidated, dropped)
	}

	e.metricInc(MetricResetToDefaults)
	e.emitAudit(ctx, auditEventResetToDefaults, true, adminName, "", nil, func() map[string]string {
		return map[string]string{"accounts_removed": fmt.Sprint(len(removed))}
	})
	return nil
}

func (e *Engine) bootstrapAdminEntry() (mirrorEntry, error) {
	encoded, err := e.hasher.Hash(e.config.Bootstrap.AdminPassword)
	if err != nil {
		return mirrorEntry{}, fmt.Errorf("hash bootstrap admin password: %w", err)
	}
	return mirrorEntry{
		Password: encoded,
		Role:     RoleAdmin,
		Attempts: 0,
		Blocked:  false,
		Name:     e.config.Bootstrap.AdminDisplayName,
	}, nil
}

// seedBootstrapAdmin materializes the built-in administrator into an empty
// primary directory. Called once from Build.
func (e *Engine) seedBootstrapAdmin(ctx context.Context) error {
	release, err := e.lockPrimary(ctx)
	if err != nil {
		return err
	}
	defer release()

	primary, err := e.users.LoadAll(ctx)
	if err != nil {
		return err
	}
	if _, ok := primary[e.config.Bootstrap.AdminUsername]; ok {
		return nil
	}

	entry, err := e.bootstrapAdminEntry()
	if err != nil {
		return err
	}
	primary[e.config.Bootstrap.AdminUsername] = encodeMirror(entry)
	return e.savePrimary(ctx, primary)
}
