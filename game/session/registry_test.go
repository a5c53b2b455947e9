package session

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gridgames/multisnake/game/engine"
)

func testSettings() engine.Settings {
	s := engine.DefaultSettings()
	s.MaxPlayers = 2
	s.GameDurationSeconds = 5
	return s
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		snap := reg.Create(testSettings(), "conn-1", "p-1", "alice")
		if len(snap.ID) != idLength {
			t.Fatalf("ID length = %d, want %d", len(snap.ID), idLength)
		}
		for _, c := range snap.ID {
			if !strings.ContainsRune(idAlphabet, c) {
				t.Fatalf("ID %s contains %q outside the alphabet", snap.ID, c)
			}
		}
		if seen[snap.ID] {
			t.Fatalf("duplicate ID %s", snap.ID)
		}
		seen[snap.ID] = true
	}
	if reg.Len() != 20 {
		t.Errorf("Len() = %d, want 20", reg.Len())
	}
}

func TestCreateSeatsHost(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(testSettings(), "conn-1", "p-1", "alice")

	if snap.HostID != "conn-1" {
		t.Errorf("host = %s, want conn-1", snap.HostID)
	}
	if len(snap.Players) != 1 {
		t.Fatalf("players = %d, want 1", len(snap.Players))
	}
	if snap.Players[0].Name != "alice" {
		t.Errorf("player name = %s, want alice", snap.Players[0].Name)
	}
	if len(snap.Food) != testSettings().FoodCount {
		t.Errorf("food = %d, want %d", len(snap.Food), testSettings().FoodCount)
	}
}

func TestUnknownSessionOperations(t *testing.T) {
	reg := NewRegistry()

	if _, ok := reg.Get("NOPE42"); ok {
		t.Error("Get on unknown ID should report false")
	}
	if _, ok := reg.Join("NOPE42", "c", "p", "n"); ok {
		t.Error("Join on unknown ID should report false")
	}
	if _, left, _ := reg.Leave("NOPE42", "c"); left {
		t.Error("Leave on unknown ID should report false")
	}
	if reg.SetDirection("NOPE42", "c", engine.Up) {
		t.Error("SetDirection on unknown ID should report false")
	}
	if _, ok := reg.Start("NOPE42", "c", time.Now()); ok {
		t.Error("Start on unknown ID should report false")
	}
	if _, ok := reg.Tick("NOPE42", time.Now()); ok {
		t.Error("Tick on unknown ID should report false")
	}
	if reg.Remove("NOPE42") {
		t.Error("Remove on unknown ID should report false")
	}
}

func TestLeaveRemovesEmptySession(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(testSettings(), "conn-1", "p-1", "alice")

	_, left, removed := reg.Leave(snap.ID, "conn-1")
	if !left || !removed {
		t.Fatalf("Leave(last player) = left %v removed %v, want true true", left, removed)
	}
	if _, ok := reg.Get(snap.ID); ok {
		t.Error("emptied session should be gone from the registry")
	}
}

func TestTickLifecycle(t *testing.T) {
	reg := NewRegistry()
	created := reg.Create(testSettings(), "conn-1", "p-1", "alice")
	start := time.Now()

	// Not started yet: tick reports absent.
	if _, ok := reg.Tick(created.ID, start); ok {
		t.Error("tick before start should report false")
	}

	if _, ok := reg.Start(created.ID, "conn-1", start); !ok {
		t.Fatal("host start failed")
	}

	snap, ok := reg.Tick(created.ID, start.Add(100*time.Millisecond))
	if !ok || !snap.Active {
		t.Fatal("tick on a running session should return an active snapshot")
	}

	// Terminal tick: snapshot returned once, absent afterwards.
	snap, ok = reg.Tick(created.ID, start.Add(6*time.Second))
	if !ok {
		t.Fatal("terminal tick should still return a snapshot")
	}
	if snap.Active {
		t.Error("terminal snapshot should report inactive")
	}
	if _, ok := reg.Tick(created.ID, start.Add(7*time.Second)); ok {
		t.Error("tick after round end should report false")
	}
}

func TestReapIdle(t *testing.T) {
	reg := NewRegistry()
	stale := reg.Create(testSettings(), "conn-1", "p-1", "alice")
	reg.Create(testSettings(), "conn-2", "p-2", "bob")

	if got := reg.ReapIdle(time.Now(), 10*time.Minute); len(got) != 0 {
		t.Fatalf("fresh sessions reaped: %v", got)
	}

	reaped := reg.ReapIdle(time.Now().Add(11*time.Minute), 10*time.Minute)
	if len(reaped) != 2 {
		t.Fatalf("reaped %d sessions, want 2", len(reaped))
	}
	if _, ok := reg.Get(stale.ID); ok {
		t.Error("stale session should be reaped")
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d after reap, want 0", reg.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	snap := reg.Create(testSettings(), "host", "p-host", "host")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reg.Create(testSettings(), "c", "p", "n")
			reg.Join(snap.ID, "conn-x", "p-x", "x")
			reg.List()
			reg.Get(snap.ID)
			reg.SetDirection(snap.ID, "host", engine.Up)
		}(i)
	}
	wg.Wait()

	// Exactly one concurrent Join can win the single free seat.
	got, ok := reg.Get(snap.ID)
	if !ok {
		t.Fatal("session disappeared")
	}
	if len(got.Players) != 2 {
		t.Errorf("players = %d, want 2", len(got.Players))
	}
	if reg.Len() != 9 {
		t.Errorf("Len() = %d, want 9", reg.Len())
	}
}
