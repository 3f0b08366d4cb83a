package examauth

import (
	"context"
	"fmt"

	"github.com/exametric/examauth/session"
)

// ValidateSession verifies a signed session token and returns the live
// server-side session it points at. A token that parses but whose session
// has been revoked or has expired fails with ErrSessionNotFound; revocation
// always wins over the token's own expiry claim.
func (e *Engine) ValidateSession(ctx context.Context, token string) (Session, error) {
	if err := e.ready(); err != nil {
		return Session{}, err
	}

	id, err := e.tokens.Parse(token)
	if err != nil {
		return Session{}, err
	}

	sess, err := e.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.Expired() {
		// Reap lazily; registries with native TTL never reach this branch.
		_ = e.sessions.Delete(ctx, sess.ID)
		return Session{}, session.ErrNotFound
	}
	return sess, nil
}

// RequireRole resolves token like [Engine.ValidateSession] and additionally
// checks the session's role. A live session carrying any other role fails
// with ErrNotAuthorized.
func (e *Engine) RequireRole(ctx context.Context, token string, role Role) (Session, error) {
	sess, err := e.ValidateSession(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if sess.Role != string(role) {
		return Session{}, fmt.Errorf("%w: %s role required", ErrNotAuthorized, role)
	}
	return sess, nil
}

// Logout revokes the session behind the given token. Revoking an already
// dead session is a no-op; a malformed token is still an error.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if err := e.ready(); err != nil {
		return err
	}

	id, err := e.tokens.Parse(token)
	if err != nil {
		return err
	}

	sess, err := e.sessions.Get(ctx, id)
	if err != nil {
		if err == session.ErrNotFound {
			return nil
		}
		return err
	}

	if err := e.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutSession, true, sess.Username, id, nil, nil)
	return nil
}

// RevokeUserSessions drops every live session for username. Administrative
// surfaces use it after out-of-band account changes.
func (e *Engine) RevokeUserSessions(ctx context.Context, username string) error {
	if err := e.ready(); err != nil {
		return err
	}
	dropped, err := e.sessions.DeleteUser(ctx, username)
	if err != nil {
		return fmt.Errorf("revoke sessions for %s: %w", username, err)
	}
	e.metricAdd(MetricSessionInvalidated, dropped)
	return nil
}
