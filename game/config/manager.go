package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gridgames/multisnake/game/engine"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// DefaultPresetName is always available, even with no preset directory.
const DefaultPresetName = "default"

// PresetInfo summarizes one preset for listing endpoints.
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BoardWidth  int    `json:"board_width"`
	BoardHeight int    `json:"board_height"`
	MaxPlayers  int    `json:"max_players"`
}

// Manager handles preset loading and caching.
type Manager struct {
	presetDir string
	presets   map[string]engine.Settings
	mu        sync.RWMutex
}

// NewManager creates a preset manager rooted at presetDir. The
// directory may be empty or missing; the built-in default still works.
func NewManager(presetDir string) *Manager {
	return &Manager{
		presetDir: presetDir,
		presets:   make(map[string]engine.Settings),
	}
}

// Load returns the preset by name, reading and validating its file on
// first use. The name "default" resolves to a file if one exists, and
// to the built-in defaults otherwise.
func (m *Manager) Load(name string) (engine.Settings, error) {
	m.mu.RLock()
	if settings, ok := m.presets[name]; ok {
		m.mu.RUnlock()
		return settings, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock.
	if settings, ok := m.presets[name]; ok {
		return settings, nil
	}

	settings, err := m.readPreset(name)
	if err != nil {
		if errors.Is(err, ErrPresetNotFound) && name == DefaultPresetName {
			settings = engine.DefaultSettings()
		} else {
			return engine.Settings{}, err
		}
	}

	m.presets[name] = settings
	return settings, nil
}

// List returns summaries of every valid preset file plus the built-in
// default. Invalid files are skipped.
func (m *Manager) List() []PresetInfo {
	names := map[string]bool{DefaultPresetName: true}

	if entries, err := os.ReadDir(m.presetDir); err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			names[strings.TrimSuffix(entry.Name(), ".json")] = true
		}
	}

	var infos []PresetInfo
	for name := range names {
		settings, err := m.Load(name)
		if err != nil {
			continue
		}
		infos = append(infos, PresetInfo{
			Name:        name,
			Description: settings.Description,
			BoardWidth:  settings.BoardWidth,
			BoardHeight: settings.BoardHeight,
			MaxPlayers:  settings.MaxPlayers,
		})
	}
	return infos
}

// readPreset loads and validates one preset file. Caller must hold
// m.mu for writing (to keep the cache consistent with double-checks).
func (m *Manager) readPreset(name string) (engine.Settings, error) {
	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename += ".json"
	}

	data, err := os.ReadFile(filepath.Join(m.presetDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return engine.Settings{}, ErrPresetNotFound
		}
		return engine.Settings{}, fmt.Errorf("failed to read preset file: %w", err)
	}

	var settings engine.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return engine.Settings{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	settings = settings.WithDefaults()
	if settings.Name == "" {
		settings.Name = name
	}
	if err := engine.ValidateSettings(settings); err != nil {
		return engine.Settings{}, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return settings, nil
}
