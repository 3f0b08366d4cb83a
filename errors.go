package examauth

import (
	"errors"
	"fmt"

	"github.com/exametric/examauth/password"
	"github.com/exametric/examauth/session"
	"github.com/exametric/examauth/store"
)

var (
	// ErrUnknownUser is returned when a username resolves to no account in any
	// store. Login reports it before the password is examined; this mirrors
	// the original application's existence-then-password check order.
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidCredentials is returned for a wrong password on an unblocked
	// account. The concrete value is an [InvalidCredentialsError] carrying the
	// attempts remaining before lockout.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBlocked is returned once the lockout threshold is reached and
	// on every attempt after it, correct password included, until an
	// administrative reset.
	ErrAccountBlocked = errors.New("account blocked, contact an administrator")
	// ErrInvalidUsername rejects blank or whitespace-only usernames.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrDuplicateUsername rejects creates and renames targeting a username
	// that already exists in any store.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidRole rejects account creation with a role outside the fixed set.
	ErrInvalidRole = errors.New("invalid account role")
	// ErrProtectedAccount rejects deletion of the built-in admin account.
	ErrProtectedAccount = errors.New("account is protected")
	// ErrNotAuthorized is returned when a session's role does not permit an
	// administrative operation.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrConflict is returned when a store's critical section could not be
	// entered within the configured wait bound.
	ErrConflict = errors.New("transient conflict, retry the operation")
	// ErrEngineNotReady is returned by methods on a zero or half-built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrStoreUnavailable surfaces write failures from the record stores.
	ErrStoreUnavailable = store.ErrUnavailable
	// ErrPasswordPolicy rejects passwords below the configured minimum length.
	ErrPasswordPolicy = password.ErrPolicy
	// ErrSessionNotFound is returned when a session ID no longer resolves.
	ErrSessionNotFound = session.ErrNotFound
	// ErrTokenInvalid is returned for session tokens that fail verification.
	ErrTokenInvalid = session.ErrTokenInvalid
)

// InvalidCredentialsError is the concrete error behind ErrInvalidCredentials.
// AttemptsRemaining counts down to lockout; the UI layer surfaces it verbatim
// ("Login failed. 2 attempt(s) left.").
type InvalidCredentialsError struct {
	AttemptsRemaining int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials: %d attempt(s) left", e.AttemptsRemaining)
}

// Is makes errors.Is(err, ErrInvalidCredentials) hold for every
// InvalidCredentialsError regardless of the counter value.
func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}
