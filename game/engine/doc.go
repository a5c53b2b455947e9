// Package engine provides the core game logic for the MultiSnake Arena.
//
// The engine package implements the game mechanics including:
//   - Fixed-tick snake movement on a toroidal grid
//   - Food spawning, scoring, and snake growth
//   - Collision detection against a per-tick body snapshot
//   - Quadrant-based respawn after collisions
//   - Session lifecycle (lobby, active round, round end)
//
// Core Types:
//
// Session represents one game room with its players, food, and settings.
// Settings holds the immutable per-session parameters fixed at creation.
// Snapshot is the read-only wire view handed to transports after every
// mutation.
//
// Usage:
//
//	settings := engine.DefaultSettings()
//	sess := engine.NewSession("AB23CD", settings, connID, playerID, "alice")
//
//	// Seat another player
//	snap, ok := sess.Join(conn2, player2, "bob")
//
//	// Start and advance the round
//	sess.Start(connID, time.Now())
//	snap, ok = sess.Tick(time.Now())
//
// Game Rules:
//
// Each tick every snake advances one cell in its facing direction,
// wrapping at board edges. Eating food grows the snake by one segment
// and awards points; colliding with any snake body costs points
// (clamped at zero) and respawns the snake at its quadrant anchor. A
// round ends when the configured duration elapses.
//
// Concurrency:
//
// All exported Session methods lock an internal mutex and return
// immutable snapshots, so a Session is safe for concurrent use. Callers
// must never retain references into a Session's internal state.
package engine
