// Package session provides the session registry for the MultiSnake Arena.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Delegation of game operations to the owning session
//   - Idle session reaping
//
// Core Types:
//
// Registry is the sole owner of the session map. Every game operation
// goes through it: the registry locates the session under a read lock,
// releases the map lock, and delegates to the session's own mutex. The
// two locks are never held together except when a leave empties a
// session and it is removed from the map.
//
// Session Identifiers:
//
// Sessions use 6-character IDs drawn from an alphabet with the easily
// confused characters (0/O, 1/I) removed, generated with cryptographic
// randomness and retried on collision.
//
// Outcome Reporting:
//
// Registry methods report outcomes with booleans and (value, ok) pairs
// rather than errors; callers that need typed errors (HTTP, MCP) wrap
// these outcomes one layer up.
//
// Usage:
//
//	reg := session.NewRegistry()
//	snap := reg.Create(engine.DefaultSettings(), connID, playerID, "alice")
//
//	snap, ok := reg.Join(snap.ID, conn2, player2, "bob")
//	snap, ok = reg.Start(snap.ID, connID, time.Now())
//	snap, ok = reg.Tick(snap.ID, time.Now())
package session
