package engine

import "fmt"

// ValidateSettings bounds-checks session parameters after defaults
// have been applied. It is used both for inline settings on session
// creation and for preset files loaded from disk.
func ValidateSettings(s Settings) error {
	s = s.WithDefaults()

	if len(s.Name) > MaxNameLength {
		return fmt.Errorf("name exceeds %d characters", MaxNameLength)
	}
	if s.BoardWidth < MinBoardSize || s.BoardWidth > MaxBoardSize {
		return fmt.Errorf("board_width %d outside [%d, %d]", s.BoardWidth, MinBoardSize, MaxBoardSize)
	}
	if s.BoardHeight < MinBoardSize || s.BoardHeight > MaxBoardSize {
		return fmt.Errorf("board_height %d outside [%d, %d]", s.BoardHeight, MinBoardSize, MaxBoardSize)
	}
	if s.MaxPlayers < MinPlayers || s.MaxPlayers > MaxPlayersLimit {
		return fmt.Errorf("max_players %d outside [%d, %d]", s.MaxPlayers, MinPlayers, MaxPlayersLimit)
	}
	if s.GameDurationSeconds < MinDuration || s.GameDurationSeconds > MaxDuration {
		return fmt.Errorf("game_duration_seconds %d outside [%d, %d]", s.GameDurationSeconds, MinDuration, MaxDuration)
	}
	if s.FoodCount < 1 || s.FoodCount > MaxFoodCount {
		return fmt.Errorf("food_count %d outside [1, %d]", s.FoodCount, MaxFoodCount)
	}
	if s.InitialSnakeLength < 1 || s.InitialSnakeLength > s.BoardWidth {
		return fmt.Errorf("initial_snake_length %d outside [1, board_width]", s.InitialSnakeLength)
	}
	if s.FoodReward < 0 {
		return fmt.Errorf("food_reward must not be negative")
	}
	if s.CollisionPenalty < 0 {
		return fmt.Errorf("collision_penalty must not be negative")
	}
	if s.TickIntervalMS < 20 || s.TickIntervalMS > 2000 {
		return fmt.Errorf("tick_interval_ms %d outside [20, 2000]", s.TickIntervalMS)
	}
	return nil
}
