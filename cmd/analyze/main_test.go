package main

import (
	"testing"

	"github.com/gridgames/multisnake/game/engine"
)

func TestTotalTicks(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		interval int
		want     int
	}{
		{"defaults", 30, 100, 300},
		{"slow tick", 60, 500, 120},
		{"fast tick", 10, 50, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := engine.Settings{GameDurationSeconds: tt.duration, TickIntervalMS: tt.interval}
			if got := totalTicks(s); got != tt.want {
				t.Errorf("totalTicks() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPrintAnalysisDoesNotPanic(t *testing.T) {
	// Heuristics are formatting only; this guards against division by
	// zero when defaults change.
	printAnalysis(engine.DefaultSettings())
}
