// Package store provides the durable record collections behind the account
// directory: a load-all / save-all mapping from username to an opaque JSON
// document, scoped to one role category.
//
// # Architecture boundaries
//
// This package owns persistence only. It never inspects record contents beyond
// treating them as raw JSON; field semantics (passwords, lockout counters,
// profiles) belong to the engine.
//
// # What this package must NOT do
//
//   - Import examauth or any sibling package.
//   - Swallow write failures. A failed SaveAll is always surfaced to the caller.
//
// Read failures are the one deliberate exception: LoadAll falls back to an empty
// collection when the backing file or table is missing or unreadable, so a fresh
// deployment starts usable and bootstrap seeding can run.
package store
