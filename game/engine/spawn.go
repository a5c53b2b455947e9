package engine

// Quadrant anchors keep simultaneous spawns far apart. Slots cycle
// through the four board quadrants in join order; odd quadrants face
// left so snakes initially move away from each other.

const (
	spawnJitter = 3
	edgeMargin  = 3

	// foodPlaceAttempts bounds the search for a free food cell on
	// crowded boards before giving up and placing on an occupied one.
	foodPlaceAttempts = 100
)

// seat adds a player at the next join-order slot. Caller must hold
// s.mu (or own the session exclusively, as in NewSession).
func (s *Session) seat(connID, playerID, name string) {
	slot := len(s.order)
	p := &Player{
		ConnectionID: connID,
		PlayerID:     playerID,
		Name:         name,
		Color:        ColorForSlot(slot),
	}
	s.players[connID] = p
	s.order = append(s.order, connID)
	s.respawn(p)
}

// respawn resets a player's snake to its quadrant anchor with a small
// random jitter, at initial length and zero growth. Caller must hold
// s.mu.
func (s *Session) respawn(p *Player) {
	slot := 0
	for i, id := range s.order {
		if id == p.ConnectionID {
			slot = i
			break
		}
	}

	w, h := s.settings.BoardWidth, s.settings.BoardHeight
	var anchor Cell
	var facing Direction
	switch slot % 4 {
	case 0:
		anchor, facing = Cell{X: w / 4, Y: h / 4}, Right
	case 1:
		anchor, facing = Cell{X: 3 * w / 4, Y: h / 4}, Left
	case 2:
		anchor, facing = Cell{X: w / 4, Y: 3 * h / 4}, Right
	case 3:
		anchor, facing = Cell{X: 3 * w / 4, Y: 3 * h / 4}, Left
	}

	anchor.X = clamp(anchor.X+s.jitter(), edgeMargin, w-1-edgeMargin)
	anchor.Y = clamp(anchor.Y+s.jitter(), edgeMargin, h-1-edgeMargin)

	// Lay the body out behind the head, opposite the facing, so the
	// first tick moves into clear space.
	body := make([]Cell, s.settings.InitialSnakeLength)
	cur := anchor
	for i := range body {
		body[i] = cur
		cur = s.step(cur, facing.Opposite())
	}

	p.Body = body
	p.Facing = facing
}

// freeCell picks a random cell not covered by any snake or existing
// food. On a crowded board it gives up after a bounded number of
// attempts and returns the last candidate regardless. Caller must hold
// s.mu (or own the session exclusively).
func (s *Session) freeCell() Cell {
	var c Cell
	for attempt := 0; attempt < foodPlaceAttempts; attempt++ {
		c = Cell{X: s.rng.Intn(s.settings.BoardWidth), Y: s.rng.Intn(s.settings.BoardHeight)}
		if !s.cellOccupied(c) {
			return c
		}
	}
	return c
}

func (s *Session) cellOccupied(c Cell) bool {
	for _, p := range s.players {
		for _, b := range p.Body {
			if b == c {
				return true
			}
		}
	}
	for _, f := range s.food {
		if f == c {
			return true
		}
	}
	return false
}

// jitter returns a uniform offset in [-spawnJitter, spawnJitter].
func (s *Session) jitter() int {
	return s.rng.Intn(2*spawnJitter+1) - spawnJitter
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
