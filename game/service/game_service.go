package service

import (
	"context"
	"errors"

	"github.com/gridgames/multisnake/game/config"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPlayerNotFound   = errors.New("player not found in session")
	ErrJoinRejected     = errors.New("join rejected")
	ErrNotHost          = errors.New("only the host may start the game")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNotStarted       = errors.New("game not running")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidSettings  = errors.New("invalid settings")
	ErrInvalidMove      = errors.New("move rejected")
)

// GameService defines all game-related operations.
type GameService interface {
	// Session management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionSummary, error)
	RemoveSession(ctx context.Context, sessionID string) error

	// Player operations
	JoinSession(ctx context.Context, sessionID string, req JoinRequest) (*SessionInfo, error)
	LeaveSession(ctx context.Context, sessionID, connectionID string) (*LeaveResult, error)
	SetDirection(ctx context.Context, sessionID, connectionID, direction string) error
	StartSession(ctx context.Context, sessionID, connectionID string) (*SessionInfo, error)

	// Simulation
	Tick(ctx context.Context, sessionID string) (*SessionInfo, error)
	ReapIdle(ctx context.Context) ([]string, error)

	// Presets
	ListPresets(ctx context.Context) ([]config.PresetInfo, error)
}
