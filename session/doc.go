// Package session tracks who is logged in right now.
//
// A [Session] is the short-lived record of a successful authentication,
// carrying username, role, and display name with a server-side expiry. The
// original application kept this in ambient UI state; here it is an explicit
// object handed back to the caller and resolvable through a [Registry].
//
// Two registries are provided: [MemoryRegistry], the default for the
// single-process deployments this system targets, and [RedisRegistry] for
// hosts that already run Redis and want sessions to survive a process restart.
//
// # What this package must NOT do
//
//   - Import examauth or inspect directory records.
//   - Grant sessions. Only the engine creates them.
package session
