package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Session is one game room. All exported methods are safe for
// concurrent use; every accessor returns copies, never internal state.
type Session struct {
	mu       sync.Mutex
	id       string
	settings Settings

	players map[string]*Player // keyed by connection ID
	order   []string           // connection IDs in join order
	food    []Cell

	hostID     string
	active     bool
	startedAt  time.Time
	lastTickAt time.Time

	createdAt    time.Time
	lastActivity time.Time

	rng *rand.Rand
}

// NewSession creates a session with the host already seated and the
// food supply populated. Zero-valued settings fields fall back to
// defaults.
func NewSession(id string, settings Settings, hostConnID, hostPlayerID, hostName string) *Session {
	now := time.Now()
	s := &Session{
		id:           id,
		settings:     settings.WithDefaults(),
		players:      make(map[string]*Player),
		hostID:       hostConnID,
		createdAt:    now,
		lastActivity: now,
		rng:          rand.New(rand.NewSource(now.UnixNano())),
	}
	s.seat(hostConnID, hostPlayerID, hostName)
	for i := 0; i < s.settings.FoodCount; i++ {
		s.food = append(s.food, s.freeCell())
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Settings returns a copy of the session's parameters.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Join seats a new player. It fails when the round is already running,
// the room is full, or the connection ID is already seated.
func (s *Session) Join(connID, playerID, name string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()

	if s.active {
		return Snapshot{}, false
	}
	if len(s.players) >= s.settings.MaxPlayers {
		return Snapshot{}, false
	}
	if _, taken := s.players[connID]; taken {
		return Snapshot{}, false
	}

	s.seat(connID, playerID, name)
	return s.snapshot(), true
}

// Leave removes a player. When the departing player was the host, the
// earliest remaining joiner is promoted. empty reports whether the
// session has no players left and should be discarded by the caller.
func (s *Session) Leave(connID string) (snap Snapshot, left bool, empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()

	if _, ok := s.players[connID]; !ok {
		return Snapshot{}, false, false
	}

	delete(s.players, connID)
	for i, id := range s.order {
		if id == connID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if len(s.players) == 0 {
		return Snapshot{}, true, true
	}
	if s.hostID == connID {
		s.hostID = s.order[0]
	}
	return s.snapshot(), true, false
}

// SetDirection updates a player's facing for the next tick. A
// 180-degree reversal of the current facing is rejected.
func (s *Session) SetDirection(connID string, dir Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()

	p, ok := s.players[connID]
	if !ok {
		return false
	}
	if dir == p.Facing.Opposite() {
		return false
	}
	p.Facing = dir
	return true
}

// Start begins the round. Only the host may start, and only once.
func (s *Session) Start(connID string, now time.Time) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = now

	if s.active || connID != s.hostID {
		return Snapshot{}, false
	}
	s.active = true
	s.startedAt = now
	s.lastTickAt = now
	return s.snapshot(), true
}

// Tick advances the simulation by one step. It reports false when the
// session is not running. The tick that crosses the round deadline
// flips the session inactive without moving anyone and still returns
// the terminal snapshot; the next call reports false.
func (s *Session) Tick(now time.Time) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return Snapshot{}, false
	}
	s.lastActivity = now
	s.lastTickAt = now

	if now.Sub(s.startedAt) >= s.settings.Duration() {
		s.active = false
		return s.snapshot(), true
	}

	// Collision checks for this tick all run against the body layout
	// as it stood when the tick began, so the outcome does not depend
	// on player iteration order.
	occupied := make(map[Cell]bool)
	for _, id := range s.order {
		for _, c := range s.players[id].Body {
			occupied[c] = true
		}
	}

	for _, id := range s.order {
		p := s.players[id]
		if len(p.Body) == 0 {
			continue
		}
		head := s.step(p.Body[0], p.Facing)

		// Food is consumed before the collision check: a move onto a
		// cell holding both food and a body still scores and relocates
		// the food.
		ate := false
		for i, f := range s.food {
			if f == head {
				p.Score += s.settings.FoodReward
				s.food[i] = s.freeCell()
				ate = true
				break
			}
		}

		if occupied[head] {
			p.Score -= s.settings.CollisionPenalty
			if p.Score < 0 {
				p.Score = 0
			}
			s.respawn(p)
			continue
		}

		p.Body = append([]Cell{head}, p.Body...)
		if !ate {
			p.Body = p.Body[:len(p.Body)-1]
		}
	}

	return s.snapshot(), true
}

// Snapshot returns the current state without mutating it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Active reports whether a round is currently running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// IdleFor reports whether the session has seen no activity for at
// least the given duration.
func (s *Session) IdleFor(now time.Time, idle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivity) >= idle
}

// step advances a cell one unit in a direction with toroidal wrap.
func (s *Session) step(c Cell, d Direction) Cell {
	switch d {
	case Up:
		c.Y--
	case Down:
		c.Y++
	case Left:
		c.X--
	case Right:
		c.X++
	}
	c.X = (c.X + s.settings.BoardWidth) % s.settings.BoardWidth
	c.Y = (c.Y + s.settings.BoardHeight) % s.settings.BoardHeight
	return c
}

// snapshot builds the wire view. Caller must hold s.mu.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:              s.id,
		HostID:          s.hostID,
		Active:          s.active,
		BoardWidth:      s.settings.BoardWidth,
		BoardHeight:     s.settings.BoardHeight,
		MaxPlayers:      s.settings.MaxPlayers,
		DurationSeconds: s.settings.GameDurationSeconds,
		Food:            append([]Cell(nil), s.food...),
		StartedAt:       s.startedAt,
		LastTickAt:      s.lastTickAt,
	}
	for _, id := range s.order {
		p := s.players[id]
		snap.Players = append(snap.Players, PlayerSnapshot{
			ConnectionID: p.ConnectionID,
			PlayerID:     p.PlayerID,
			Name:         p.Name,
			Color:        p.Color,
			Score:        p.Score,
			Facing:       p.Facing,
			Body:         append([]Cell(nil), p.Body...),
		})
	}
	return snap
}
