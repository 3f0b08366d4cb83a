package examauth

import (
	"io"

	internalaudit "github.com/exametric/examauth/internal/audit"
	"github.com/exametric/examauth/session"
	"github.com/exametric/examauth/store"
)

// Role is the fixed role set of the directory. Roles are immutable after
// account creation.
type Role string

const (
	// RoleAdmin accounts live in the primary directory only.
	RoleAdmin Role = "admin"
	// RoleLecturer accounts keep their profile in the lecturer store.
	RoleLecturer Role = "lecturer"
	// RoleExamPersonnel accounts keep their profile in the exam-personnel store.
	RoleExamPersonnel Role = "exam_personnel"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLecturer, RoleExamPersonnel:
		return true
	}
	return false
}

// collection returns the role-specific store owning profiles for r, or ""
// for admin accounts, which exist in the primary directory only.
func (r Role) collection() store.Collection {
	switch r {
	case RoleLecturer:
		return store.CollectionLecturers
	case RoleExamPersonnel:
		return store.CollectionExamPersonnel
	}
	return ""
}

// Profile is the role-specific payload (address, contact number, ...). The
// engine treats it as opaque beyond the optional "name" key used to default
// the display name.
type Profile map[string]string

// CreateAccountRequest is the input for [Engine.CreateAccount].
type CreateAccountRequest struct {
	Username    string
	Password    string
	Role        Role
	DisplayName string
	Profile     Profile
}

// LoginResult is returned by [Engine.Login] on a granted authentication. The
// Token wraps the session ID in a signed handle for the UI layer; Session is
// the live server-side record.
type LoginResult struct {
	Session session.Session
	Token   string
}

// AccountSummary is one row of [Engine.ListAccounts].
type AccountSummary struct {
	Username    string
	Role        Role
	DisplayName string
	Attempts    int
	Blocked     bool
	// Canonical names the store owning the account's profile fields;
	// the primary directory for admin accounts.
	Canonical store.Collection
}

// Session is the short-lived record of a successful authentication.
type Session = session.Session

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
