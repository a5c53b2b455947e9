// Package api provides the HTTP surface of the MultiSnake Arena.
//
// It exposes REST endpoints for session management and player
// operations, mounts the WebSocket endpoint and the Prometheus
// /metrics handler, and applies per-IP rate limiting plus request
// metrics to the /api subtree.
//
// Endpoints:
//
//	POST   /api/sessions                create a session (inline settings or preset)
//	GET    /api/sessions                lobby listing
//	GET    /api/sessions/{id}           full session state
//	DELETE /api/sessions/{id}           remove a session
//	POST   /api/sessions/{id}/join      seat a player
//	POST   /api/sessions/{id}/leave     remove a player
//	POST   /api/sessions/{id}/direction change a snake's heading
//	POST   /api/sessions/{id}/start     host-only round start
//	GET    /api/presets                 list available presets
//	GET    /healthz                     liveness probe
//	GET    /metrics                     Prometheus metrics
//	GET    /ws                          WebSocket upgrade (when wired)
//
// Starting a round also starts its tick loop via the Scheduler; all
// lifecycle events reach WebSocket clients through the scheduler's
// broadcast path, so REST and WebSocket clients see the same stream.
package api
