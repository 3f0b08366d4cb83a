package examauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventLoginBlocked           = "login_blocked"
	auditEventMirrorHealed           = "mirror_healed"
	auditEventPasswordChangeSuccess  = "password_change_success"
	auditEventPasswordChangeFailure  = "password_change_failure"
	auditEventPasswordUpgraded       = "password_upgraded"
	auditEventAccountRenamed         = "account_renamed"
	auditEventRenameRejected         = "rename_rejected"
	auditEventAttemptsReset          = "attempts_reset"
	auditEventAccountCreated         = "account_created"
	auditEventAccountCreationFailure = "account_creation_failure"
	auditEventAccountDeleted         = "account_deleted"
	auditEventResetToDefaults        = "reset_to_defaults"
	auditEventLogoutSession          = "logout_session"
	auditEventStoreConflict          = "store_conflict"
)

// AuditErrorCode is the stable error vocabulary recorded on audit events.
type AuditErrorCode string

const (
	auditErrUnknownUser        AuditErrorCode = "unknown_user"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrAccountBlocked     AuditErrorCode = "account_blocked"
	auditErrInvalidUsername    AuditErrorCode = "invalid_username"
	auditErrDuplicateUsername  AuditErrorCode = "duplicate_username"
	auditErrInvalidRole        AuditErrorCode = "invalid_role"
	auditErrProtectedAccount   AuditErrorCode = "protected_account"
	auditErrNotAuthorized      AuditErrorCode = "not_authorized"
	auditErrConflict           AuditErrorCode = "conflict"
	auditErrStoreUnavailable   AuditErrorCode = "store_unavailable"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrTokenInvalid       AuditErrorCode = "token_invalid"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	username string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Username:  username,
		SessionID: sessionID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnknownUser):
		return auditErrUnknownUser
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountBlocked):
		return auditErrAccountBlocked
	case errors.Is(err, ErrInvalidUsername):
		return auditErrInvalidUsername
	case errors.Is(err, ErrDuplicateUsername):
		return auditErrDuplicateUsername
	case errors.Is(err, ErrInvalidRole):
		return auditErrInvalidRole
	case errors.Is(err, ErrProtectedAccount):
		return auditErrProtectedAccount
	case errors.Is(err, ErrNotAuthorized):
		return auditErrNotAuthorized
	case errors.Is(err, ErrConflict):
		return auditErrConflict
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	default:
		return auditErrInternal
	}
}
