// Package internal groups helpers that are intentionally private to the
// engine.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - locks — keyed mutual exclusion with a bounded wait
package internal
