// Command analyze prints quick, human-readable balance heuristics for
// the preset files in a presets directory: board occupancy at spawn,
// food density, round pacing, and the theoretical score ceiling for a
// snake that eats on every possible tick.
//
// Usage: analyze [presets-dir]   (default "presets")
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridgames/multisnake/game/engine"
)

func main() {
	dir := "presets"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", dir, err)
		os.Exit(1)
	}

	found := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		found = true
		fmt.Printf("\n=== Analyzing %s ===\n", entry.Name())
		analyzePreset(filepath.Join(dir, entry.Name()))
	}

	if !found {
		fmt.Println("No preset files found; showing built-in defaults")
		printAnalysis(engine.DefaultSettings())
	}
}

func analyzePreset(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		return
	}

	var settings engine.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		fmt.Printf("Error parsing JSON: %v\n", err)
		return
	}
	printAnalysis(settings.WithDefaults())
}

func printAnalysis(s engine.Settings) {
	area := s.BoardWidth * s.BoardHeight
	spawnCells := s.MaxPlayers * s.InitialSnakeLength
	ticks := totalTicks(s)

	fmt.Printf("Name: %s\n", s.Name)
	fmt.Printf("Board: %d x %d (%d cells)\n", s.BoardWidth, s.BoardHeight, area)
	fmt.Printf("Players: up to %d, snakes start at length %d\n", s.MaxPlayers, s.InitialSnakeLength)
	fmt.Printf("Round: %ds at %dms per tick (%d ticks)\n",
		s.GameDurationSeconds, s.TickIntervalMS, ticks)
	fmt.Printf("Food: %d items (%.1f%% of board)\n",
		s.FoodCount, 100*float64(s.FoodCount)/float64(area))
	fmt.Printf("Spawn occupancy: %.1f%% of board\n",
		100*float64(spawnCells)/float64(area))
	fmt.Printf("Scoring: +%d per food, -%d per collision\n", s.FoodReward, s.CollisionPenalty)
	fmt.Printf("Score ceiling: %d (eating every tick)\n", ticks*s.FoodReward)

	if maxLength := s.InitialSnakeLength + ticks; maxLength >= area/s.MaxPlayers {
		fmt.Printf("⚠ A snake eating every tick could reach length %d, crowding its share of the board\n", maxLength)
	}
	if float64(s.FoodCount)/float64(area) < 0.002 {
		fmt.Printf("⚠ Food density is very low; rounds may be starved\n")
	}
}

// totalTicks is the number of simulation steps in one round.
func totalTicks(s engine.Settings) int {
	return s.GameDurationSeconds * 1000 / s.TickIntervalMS
}
