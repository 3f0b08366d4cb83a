// Package examauth is the account directory and authentication engine behind
// an exam-content administration tool: credential verification, failed-attempt
// tracking, lockout, unlock, and rename/credential-change propagation across
// role-scoped record stores.
//
// Identity records are split across stores — a primary directory plus
// per-role collections for lecturers and exam personnel — yet every account
// presents one consistent security state. The primary directory holds the
// security mirror (password hash, attempts, blocked flag, role, display name)
// for every account and is the single source of truth for "can this
// credential log in right now"; role stores own the profile payload.
//
// # Architecture boundaries
//
// examauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (LoginResult, AccountSummary, AuditEvent, MetricsSnapshot).
// Persistence lives in store/, hashing in password/, session tracking in
// session/; internal coordination (audit dispatch, keyed locking) lives under
// internal/ and is never exported.
//
// # Concurrency contract
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
// Every read-modify-write against a collection runs inside a per-store critical
// section with a bounded wait; callers that cannot acquire the section within
// the configured bound get ErrConflict instead of blocking indefinitely.
package examauth
