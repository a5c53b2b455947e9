// Package websocket provides real-time transport for game sessions.
//
// The Hub owns the fan-out state: which clients watch which session.
// Clients connect to /ws, receive a connection ID, and drive the game
// with JSON commands:
//
//	{"action": "create", "player_name": "alice", "preset": "default"}
//	{"action": "join", "session_id": "AB23CD", "player_name": "bob"}
//	{"action": "direction", "direction": "up"}
//	{"action": "start"}
//	{"action": "leave"}
//
// The server pushes Message frames with events: connected, created,
// player_joined, player_left, game_started, state (one per tick),
// game_ended, and error. Tick loops feed the hub through
// BroadcastEvent, which matches the scheduler's broadcast signature.
//
// Concurrency:
//
// All session-map access happens on the Run goroutine. Each client has
// a read pump (commands in) and a write pump (events out, with
// ping/pong keepalive); a dropped connection leaves its player from
// the session automatically. Inbound commands are rate limited per
// client.
package websocket
