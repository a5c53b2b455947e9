// Command validate checks the session preset JSON files in a presets
// directory. It checks:
//   - JSON structure and field types
//   - Bounds on board size, player count, duration, food, and tick rate
//   - That the four spawn quadrants fit the board with their edge margin
//   - That the configured snakes and food physically fit on the board
//
// Usage: validate [presets-dir]   (default "presets")
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridgames/multisnake/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validatePreset loads and validates a single preset JSON file.
func validatePreset(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}
	fail := func(format string, args ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		fail("Failed to read file: %v", err)
		return result
	}

	var settings engine.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		fail("Invalid JSON: %v", err)
		return result
	}
	settings = settings.WithDefaults()

	if err := engine.ValidateSettings(settings); err != nil {
		fail("Bounds: %v", err)
	}

	// Quadrant spawns need room: anchors are at quarter points with a
	// 3-cell edge margin, so a board under 2*(margin+1) per axis cannot
	// seat four snakes apart.
	if settings.BoardWidth < 8 || settings.BoardHeight < 8 {
		fail("Board %dx%d too small for quadrant spawns", settings.BoardWidth, settings.BoardHeight)
	}

	// Occupancy: all snakes at initial length plus food must leave free
	// cells, or food placement degenerates on tick one.
	area := settings.BoardWidth * settings.BoardHeight
	occupied := settings.MaxPlayers*settings.InitialSnakeLength + settings.FoodCount
	if occupied*2 > area {
		fail("Board area %d too crowded: %d cells occupied at start", area, occupied)
	}

	return result
}

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

	anyInvalid := false
	checked := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		checked++

		result := validatePreset(filepath.Join(dir, entry.Name()))
		if result.Valid {
			fmt.Printf("✓ %s\n", result.File)
			continue
		}
		anyInvalid = true
		fmt.Printf("✗ %s\n", result.File)
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\nChecked %d preset file(s)\n", checked)
	if anyInvalid {
		os.Exit(1)
	}
}
