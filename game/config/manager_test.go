package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gridgames/multisnake/game/engine"
)

func writePreset(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadBuiltinDefault(t *testing.T) {
	mgr := NewManager(t.TempDir())
	settings, err := mgr.Load(DefaultPresetName)
	if err != nil {
		t.Fatalf("Load(default) error: %v", err)
	}
	if settings != engine.DefaultSettings() {
		t.Errorf("default preset = %+v, want built-in defaults", settings)
	}
}

func TestLoadMissingDirStillServesDefault(t *testing.T) {
	mgr := NewManager("/nonexistent/presets")
	if _, err := mgr.Load(DefaultPresetName); err != nil {
		t.Fatalf("Load(default) with missing dir: %v", err)
	}
	if _, err := mgr.Load("duel"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("Load(duel) error = %v, want ErrPresetNotFound", err)
	}
}

func TestLoadPresetFile(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "duel.json", `{
		"description": "head to head",
		"board_width": 20,
		"board_height": 20,
		"max_players": 2,
		"game_duration_seconds": 60
	}`)

	mgr := NewManager(dir)
	settings, err := mgr.Load("duel")
	if err != nil {
		t.Fatalf("Load(duel) error: %v", err)
	}
	if settings.Name != "duel" {
		t.Errorf("name = %s, want duel (filled from filename)", settings.Name)
	}
	if settings.BoardWidth != 20 || settings.MaxPlayers != 2 {
		t.Errorf("explicit fields not honored: %+v", settings)
	}
	if settings.FoodCount != engine.DefaultSettings().FoodCount {
		t.Errorf("omitted fields should fall back to defaults, got %+v", settings)
	}
}

func TestLoadCachesParsedPreset(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "duel.json", `{"board_width": 20, "board_height": 20}`)

	mgr := NewManager(dir)
	if _, err := mgr.Load("duel"); err != nil {
		t.Fatal(err)
	}

	// Remove the file; the cached copy must keep serving.
	if err := os.Remove(filepath.Join(dir, "duel.json")); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Load("duel"); err != nil {
		t.Errorf("cached preset not served after file removal: %v", err)
	}
}

func TestLoadInvalidPreset(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"board_width": `},
		{"out of bounds", `{"board_width": 4}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writePreset(t, dir, "bad.json", tt.content)

			mgr := NewManager(dir)
			if _, err := mgr.Load("bad"); !errors.Is(err, ErrInvalidPreset) {
				t.Errorf("Load(bad) error = %v, want ErrInvalidPreset", err)
			}
		})
	}
}

func TestListIncludesDefaultAndSkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "duel.json", `{"board_width": 20, "board_height": 20, "max_players": 2}`)
	writePreset(t, dir, "broken.json", `not json`)
	writePreset(t, dir, "notes.txt", `ignore me`)

	mgr := NewManager(dir)
	infos := mgr.List()

	names := make(map[string]PresetInfo)
	for _, info := range infos {
		names[info.Name] = info
	}
	if len(names) != 2 {
		t.Fatalf("List() returned %d presets, want 2 (default + duel): %v", len(names), names)
	}
	if _, ok := names[DefaultPresetName]; !ok {
		t.Error("built-in default missing from List()")
	}
	if duel, ok := names["duel"]; !ok || duel.MaxPlayers != 2 {
		t.Errorf("duel preset missing or wrong: %+v", duel)
	}
}
