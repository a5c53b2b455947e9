package engine

import "time"

// Direction is one of the four grid headings a snake can face.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Validation constants
	MinBoardSize    = 8
	MaxBoardSize    = 200
	MinPlayers      = 1
	MaxPlayersLimit = 8
	MinDuration     = 5
	MaxDuration     = 600
	MaxFoodCount    = 64
	MaxNameLength   = 32
)

// ParseDirection maps a wire string to a Direction. ok is false for
// anything that is not one of up/down/left/right.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Up, Down, Left, Right:
		return Direction(s), true
	}
	return "", false
}

// Opposite returns the 180-degree reverse of a direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return d
}

// Cell is a board coordinate. Coordinates are normalized to
// [0,width) x [0,height) after wraparound.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// playerColors is the palette cycled by join order.
var playerColors = []string{
	"#00FF00", // green
	"#FF0000", // red
	"#0000FF", // blue
	"#FFFF00", // yellow
	"#FF00FF", // magenta
	"#00FFFF", // cyan
	"#FF8800", // orange
	"#8800FF", // purple
}

// ColorForSlot returns the palette color for a join-order slot.
func ColorForSlot(slot int) string {
	return playerColors[slot%len(playerColors)]
}

// Player is one snake in a session. Body is head-first; Facing is the
// heading applied on the next tick.
type Player struct {
	ConnectionID string
	PlayerID     string
	Name         string
	Color        string
	Score        int
	Body         []Cell
	Facing       Direction
}

// Settings are the immutable per-session parameters, fixed at creation.
// Zero-valued fields are replaced by defaults (see WithDefaults).
type Settings struct {
	Name                string `json:"name,omitempty"`
	Description         string `json:"description,omitempty"`
	BoardWidth          int    `json:"board_width"`
	BoardHeight         int    `json:"board_height"`
	MaxPlayers          int    `json:"max_players"`
	GameDurationSeconds int    `json:"game_duration_seconds"`
	InitialSnakeLength  int    `json:"initial_snake_length"`
	FoodCount           int    `json:"food_count"`
	FoodReward          int    `json:"food_reward"`
	CollisionPenalty    int    `json:"collision_penalty"`
	TickIntervalMS      int    `json:"tick_interval_ms"`
}

// DefaultSettings returns the stock session parameters.
func DefaultSettings() Settings {
	return Settings{
		Name:                "default",
		BoardWidth:          40,
		BoardHeight:         30,
		MaxPlayers:          4,
		GameDurationSeconds: 30,
		InitialSnakeLength:  3,
		FoodCount:           5,
		FoodReward:          10,
		CollisionPenalty:    5,
		TickIntervalMS:      100,
	}
}

// WithDefaults fills zero-valued fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if s.BoardWidth == 0 {
		s.BoardWidth = def.BoardWidth
	}
	if s.BoardHeight == 0 {
		s.BoardHeight = def.BoardHeight
	}
	if s.MaxPlayers == 0 {
		s.MaxPlayers = def.MaxPlayers
	}
	if s.GameDurationSeconds == 0 {
		s.GameDurationSeconds = def.GameDurationSeconds
	}
	if s.InitialSnakeLength == 0 {
		s.InitialSnakeLength = def.InitialSnakeLength
	}
	if s.FoodCount == 0 {
		s.FoodCount = def.FoodCount
	}
	if s.FoodReward == 0 {
		s.FoodReward = def.FoodReward
	}
	if s.CollisionPenalty == 0 {
		s.CollisionPenalty = def.CollisionPenalty
	}
	if s.TickIntervalMS == 0 {
		s.TickIntervalMS = def.TickIntervalMS
	}
	return s
}

// TickInterval returns the configured tick cadence as a duration.
func (s Settings) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalMS) * time.Millisecond
}

// Duration returns the configured round length as a duration.
func (s Settings) Duration() time.Duration {
	return time.Duration(s.GameDurationSeconds) * time.Second
}

// PlayerSnapshot is the wire view of a Player.
type PlayerSnapshot struct {
	ConnectionID string    `json:"connection_id"`
	PlayerID     string    `json:"player_id"`
	Name         string    `json:"name"`
	Color        string    `json:"color"`
	Score        int       `json:"score"`
	Facing       Direction `json:"facing"`
	Body         []Cell    `json:"body"`
}

// Snapshot is an immutable copy of a session's state, safe to hand to
// transport code after the session lock is released.
type Snapshot struct {
	ID              string           `json:"id"`
	HostID          string           `json:"host_id"`
	Active          bool             `json:"active"`
	BoardWidth      int              `json:"board_width"`
	BoardHeight     int              `json:"board_height"`
	MaxPlayers      int              `json:"max_players"`
	DurationSeconds int              `json:"duration_seconds"`
	Players         []PlayerSnapshot `json:"players"`
	Food            []Cell           `json:"food"`
	StartedAt       time.Time        `json:"started_at"`
	LastTickAt      time.Time        `json:"last_tick_at"`
}
