// Package config loads named session presets from JSON files.
//
// A preset is an engine.Settings document stored as <name>.json in the
// preset directory. The manager caches parsed presets behind an RWMutex
// and always exposes a built-in "default" preset, so a server can run
// with an empty (or absent) preset directory.
//
// Usage:
//
//	mgr := config.NewManager("presets")
//	settings, err := mgr.Load("duel")
//	infos, err := mgr.List()
package config
