package service

import (
	"github.com/gridgames/multisnake/game/engine"
)

// CreateSessionRequest creates a session and seats the creator as host.
// When Preset is set it names a preset file; otherwise Settings (which
// may be partial) is used, with zero fields falling back to defaults.
type CreateSessionRequest struct {
	Preset       string           `json:"preset,omitempty"`
	Settings     *engine.Settings `json:"settings,omitempty"`
	ConnectionID string           `json:"connection_id"`
	PlayerID     string           `json:"player_id,omitempty"`
	PlayerName   string           `json:"player_name"`
}

// JoinRequest seats a player in an existing session. PlayerID is
// minted server-side when empty.
type JoinRequest struct {
	ConnectionID string `json:"connection_id"`
	PlayerID     string `json:"player_id,omitempty"`
	PlayerName   string `json:"player_name"`
}

// SessionInfo is the full wire view of one session.
type SessionInfo struct {
	engine.Snapshot
	TickIntervalMS int `json:"tick_interval_ms"`
}

// SessionSummary is the lobby view of one session.
type SessionSummary struct {
	ID          string `json:"id"`
	Active      bool   `json:"active"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	BoardWidth  int    `json:"board_width"`
	BoardHeight int    `json:"board_height"`
	Joinable    bool   `json:"joinable"`
}

// LeaveResult reports a leave. Session is nil when the departing
// player was the last one and the session was removed.
type LeaveResult struct {
	Session *SessionInfo `json:"session,omitempty"`
	Removed bool         `json:"removed"`
}
