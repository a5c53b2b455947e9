package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gridgames/multisnake/game/config"
	"github.com/gridgames/multisnake/game/engine"
	"github.com/gridgames/multisnake/game/session"
)

// DefaultIdleTimeout is how long a session may sit untouched before
// ReapIdle removes it.
const DefaultIdleTimeout = 10 * time.Minute

// gameServiceImpl implements the GameService interface on top of the
// session registry and the preset manager.
type gameServiceImpl struct {
	registry *session.Registry
	presets  *config.Manager
	idle     time.Duration
}

// NewGameService creates a new game service instance.
func NewGameService(registry *session.Registry, presets *config.Manager) GameService {
	return &gameServiceImpl{
		registry: registry,
		presets:  presets,
		idle:     DefaultIdleTimeout,
	}
}

// CreateSession resolves the requested settings, creates the session,
// and seats the creator as host.
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	var settings engine.Settings
	switch {
	case req.Preset != "":
		loaded, err := s.presets.Load(req.Preset)
		if err != nil {
			return nil, fmt.Errorf("failed to load preset %q: %w", req.Preset, err)
		}
		settings = loaded
	case req.Settings != nil:
		settings = req.Settings.WithDefaults()
		if err := engine.ValidateSettings(settings); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	default:
		settings = engine.DefaultSettings()
	}

	playerID := req.PlayerID
	if playerID == "" {
		playerID = uuid.NewString()
	}

	snap := s.registry.Create(settings, req.ConnectionID, playerID, req.PlayerName)
	return s.info(snap), nil
}

// GetSession returns the current state of one session.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	snap, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return s.info(snap), nil
}

// ListSessions returns the lobby view of every session.
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionSummary, error) {
	snaps := s.registry.List()
	summaries := make([]*SessionSummary, 0, len(snaps))
	for _, snap := range snaps {
		summaries = append(summaries, &SessionSummary{
			ID:          snap.ID,
			Active:      snap.Active,
			PlayerCount: len(snap.Players),
			MaxPlayers:  snap.MaxPlayers,
			BoardWidth:  snap.BoardWidth,
			BoardHeight: snap.BoardHeight,
			Joinable:    !snap.Active && len(snap.Players) < snap.MaxPlayers,
		})
	}
	return summaries, nil
}

// RemoveSession deletes a session outright.
func (s *gameServiceImpl) RemoveSession(ctx context.Context, sessionID string) error {
	if !s.registry.Remove(sessionID) {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

// JoinSession seats a player, minting a player ID when none is given.
func (s *gameServiceImpl) JoinSession(ctx context.Context, sessionID string, req JoinRequest) (*SessionInfo, error) {
	playerID := req.PlayerID
	if playerID == "" {
		playerID = uuid.NewString()
	}

	snap, ok := s.registry.Join(sessionID, req.ConnectionID, playerID, req.PlayerName)
	if !ok {
		if _, exists := s.registry.Get(sessionID); !exists {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrJoinRejected)
	}
	return s.info(snap), nil
}

// LeaveSession removes a player. The session itself is removed when
// the last player leaves.
func (s *gameServiceImpl) LeaveSession(ctx context.Context, sessionID, connectionID string) (*LeaveResult, error) {
	snap, left, removed := s.registry.Leave(sessionID, connectionID)
	if !left {
		if _, exists := s.registry.Get(sessionID); !exists {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("connection %s: %w", connectionID, ErrPlayerNotFound)
	}
	if removed {
		return &LeaveResult{Removed: true}, nil
	}
	return &LeaveResult{Session: s.info(snap)}, nil
}

// SetDirection updates a player's heading for the next tick.
func (s *gameServiceImpl) SetDirection(ctx context.Context, sessionID, connectionID, direction string) error {
	dir, ok := engine.ParseDirection(direction)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	if s.registry.SetDirection(sessionID, connectionID, dir) {
		return nil
	}

	snap, exists := s.registry.Get(sessionID)
	if !exists {
		return fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	for _, p := range snap.Players {
		if p.ConnectionID == connectionID {
			// Player exists, so the rejection was a 180-degree reversal.
			return fmt.Errorf("%w: cannot reverse into own body", ErrInvalidMove)
		}
	}
	return fmt.Errorf("connection %s: %w", connectionID, ErrPlayerNotFound)
}

// StartSession begins the round. Only the host may start.
func (s *gameServiceImpl) StartSession(ctx context.Context, sessionID, connectionID string) (*SessionInfo, error) {
	snap, ok := s.registry.Start(sessionID, connectionID, time.Now())
	if ok {
		return s.info(snap), nil
	}

	current, exists := s.registry.Get(sessionID)
	if !exists {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if current.Active {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrAlreadyStarted)
	}
	return nil, fmt.Errorf("connection %s: %w", connectionID, ErrNotHost)
}

// Tick advances a session one step. ErrNotStarted distinguishes a
// session that exists but is not running; ErrSessionNotFound covers
// sessions that are gone. The tick that ends the round still returns
// its terminal state.
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string) (*SessionInfo, error) {
	snap, ok := s.registry.Tick(sessionID, time.Now())
	if ok {
		return s.info(snap), nil
	}
	if _, exists := s.registry.Get(sessionID); !exists {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotStarted)
}

// ReapIdle removes sessions idle past the configured timeout.
func (s *gameServiceImpl) ReapIdle(ctx context.Context) ([]string, error) {
	return s.registry.ReapIdle(time.Now(), s.idle), nil
}

// ListPresets returns the available session presets.
func (s *gameServiceImpl) ListPresets(ctx context.Context) ([]config.PresetInfo, error) {
	return s.presets.List(), nil
}

func (s *gameServiceImpl) info(snap engine.Snapshot) *SessionInfo {
	info := &SessionInfo{Snapshot: snap}
	if settings, ok := s.registry.Settings(snap.ID); ok {
		info.TickIntervalMS = settings.TickIntervalMS
	}
	return info
}
