package api

// Wire event names shared by every transport that pushes session
// updates to clients.
const (
	EventConnected    = "connected"
	EventCreated      = "created"
	EventState        = "state"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventGameStarted  = "game_started"
	EventGameEnded    = "game_ended"
	EventError        = "error"
)
