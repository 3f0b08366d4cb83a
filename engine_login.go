package examauth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/exametric/examauth/password"
	"github.com/exametric/examauth/session"
)

// Login authenticates username/candidate and, on success, opens a session and
// returns its signed token handle.
//
// The failure ladder is strict: an unknown user is reported before the
// password is examined; a blocked account rejects every attempt, correct
// password included, until an administrative reset; a wrong password on a
// live account increments the failure counter and blocks the account once
// the threshold is reached. The counter mutation is persisted before the
// error is returned, so a crash between the two cannot forget a failure.
func (e *Engine) Login(ctx context.Context, username, candidate string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}
	start := time.Now()

	username = strings.TrimSpace(username)
	if username == "" {
		e.metricInc(MetricLoginUnknownUser)
		return LoginResult{}, ErrUnknownUser
	}

	release, err := e.lockPrimary(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	defer release()

	view, err := e.resolve(ctx, username)
	if err != nil {
		if err == ErrUnknownUser {
			e.metricInc(MetricLoginUnknownUser)
			e.emitAudit(ctx, auditEventLoginFailure, false, username, "", err, nil)
		}
		return LoginResult{}, err
	}

	if view.mirror.Blocked {
		e.metricInc(MetricLoginBlocked)
		e.emitAudit(ctx, auditEventLoginBlocked, false, username, "", ErrAccountBlocked, nil)
		return LoginResult{}, ErrAccountBlocked
	}

	ok, legacy, err := e.verifyCredential(candidate, view.mirror.Password)
	if err != nil {
		return LoginResult{}, err
	}

	if !ok {
		return LoginResult{}, e.recordFailure(ctx, view)
	}

	if view.mirror.Attempts != 0 || view.mirror.Blocked {
		view.mirror.Attempts = 0
		view.mirror.Blocked = false
		view.primary[username] = encodeMirror(view.mirror)
		if err := e.savePrimary(ctx, view.primary); err != nil {
			return LoginResult{}, err
		}
	}

	if e.config.Password.UpgradeOnLogin {
		if err := e.maybeUpgradeCredential(ctx, view, candidate, legacy); err != nil {
			return LoginResult{}, err
		}
	}

	result, err := e.grantSession(ctx, view)
	if err != nil {
		return LoginResult{}, err
	}

	e.metricInc(MetricLoginSuccess)
	if e.metrics != nil {
		e.metrics.Observe(MetricLoginLatency, time.Since(start))
	}
	e.emitAudit(ctx, auditEventLoginSuccess, true, username, result.Session.ID, nil, func() map[string]string {
		return map[string]string{"role": string(view.mirror.Role)}
	})
	return result, nil
}

// verifyCredential checks candidate against the stored value. Stored values
// are Argon2id PHC strings except for legacy plaintext imported from old data
// files, which compare in constant time and report legacy=true so the caller
// can upgrade them.
func (e *Engine) verifyCredential(candidate, stored string) (ok, legacy bool, err error) {
	if !password.IsEncoded(stored) {
		match := subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
		return match, true, nil
	}
	match, err := e.hasher.Verify(candidate, stored)
	if err != nil {
		return false, false, fmt.Errorf("verify credential: %w", err)
	}
	return match, false, nil
}

// recordFailure advances the lockout state machine for a wrong password and
// persists the new counter before returning the caller-visible error.
func (e *Engine) recordFailure(ctx context.Context, view *accountView) error {
	view.mirror.Attempts++
	blocked := view.mirror.Attempts >= e.config.Lockout.Threshold
	if blocked {
		view.mirror.Blocked = true
	}
	view.primary[view.username] = encodeMirror(view.mirror)
	if err := e.savePrimary(ctx, view.primary); err != nil {
		return err
	}

	if blocked {
		e.metricInc(MetricLoginBlocked)
		e.emitAudit(ctx, auditEventLoginBlocked, false, view.username, "", ErrAccountBlocked, func() map[string]string {
			return map[string]string{"attempts": fmt.Sprint(view.mirror.Attempts)}
		})
		return ErrAccountBlocked
	}

	remaining := e.config.Lockout.Threshold - view.mirror.Attempts
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, view.username, "", ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"attempts_remaining": fmt.Sprint(remaining)}
	})
	return &InvalidCredentialsError{AttemptsRemaining: remaining}
}

// maybeUpgradeCredential rehashes the verified candidate when the stored
// value is legacy plaintext or was produced with weaker Argon2id parameters.
// Only the mirror is rewritten here; the role store's copy catches up on the
// next password change rather than widening Login's critical section.
func (e *Engine) maybeUpgradeCredential(ctx context.Context, view *accountView, candidate string, legacy bool) error {
	if !legacy {
		needs, err := e.hasher.NeedsUpgrade(view.mirror.Password)
		if err != nil || !needs {
			return nil
		}
	}

	encoded, err := e.hasher.Hash(candidate)
	if err != nil {
		// A pre-policy legacy password can be shorter than the current
		// minimum; keep letting it in rather than locking the account out.
		return nil
	}
	view.mirror.Password = encoded
	view.primary[view.username] = encodeMirror(view.mirror)
	if err := e.savePrimary(ctx, view.primary); err != nil {
		return err
	}

	e.metricInc(MetricPasswordUpgraded)
	e.emitAudit(ctx, auditEventPasswordUpgraded, true, view.username, "", nil, func() map[string]string {
		return map[string]string{"legacy_plaintext": fmt.Sprint(legacy)}
	})
	return nil
}

func (e *Engine) grantSession(ctx context.Context, view *accountView) (LoginResult, error) {
	sess := session.New(
		view.username,
		string(view.mirror.Role),
		displayName(view.mirror.Name, view.username),
		e.config.Session.TTL,
	)
	if err := e.sessions.Put(ctx, sess); err != nil {
		return LoginResult{}, fmt.Errorf("register session: %w", err)
	}
	token, err := e.tokens.Sign(sess)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign session token: %w", err)
	}
	e.metricInc(MetricSessionCreated)
	return LoginResult{Session: sess, Token: token}, nil
}
