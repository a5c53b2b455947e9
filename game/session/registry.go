package session

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/gridgames/multisnake/game/engine"
)

// idAlphabet omits 0/O and 1/I so IDs survive being read aloud.
const (
	idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	idLength   = 6
)

// Registry is the thread-safe owner of all live sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*engine.Session),
	}
}

// Create builds a new session with a fresh ID, seats the creator as
// host, and returns the initial snapshot.
func (r *Registry) Create(settings engine.Settings, hostConnID, hostPlayerID, hostName string) engine.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.generateID()
	sess := engine.NewSession(id, settings, hostConnID, hostPlayerID, hostName)
	r.sessions[id] = sess
	return sess.Snapshot()
}

// Get returns a snapshot of the session, if it exists.
func (r *Registry) Get(id string) (engine.Snapshot, bool) {
	sess, ok := r.lookup(id)
	if !ok {
		return engine.Snapshot{}, false
	}
	return sess.Snapshot(), true
}

// Settings returns the session's parameters, if it exists.
func (r *Registry) Settings(id string) (engine.Settings, bool) {
	sess, ok := r.lookup(id)
	if !ok {
		return engine.Settings{}, false
	}
	return sess.Settings(), true
}

// List returns snapshots of every live session.
func (r *Registry) List() []engine.Snapshot {
	r.mu.RLock()
	sessions := make([]*engine.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()

	snaps := make([]engine.Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		snaps = append(snaps, sess.Snapshot())
	}
	return snaps
}

// Join seats a player in an existing session.
func (r *Registry) Join(id, connID, playerID, name string) (engine.Snapshot, bool) {
	sess, ok := r.lookup(id)
	if !ok {
		return engine.Snapshot{}, false
	}
	return sess.Join(connID, playerID, name)
}

// Leave removes a player. A session left with no players is removed
// from the registry; removed reports that case so callers can stop
// any tick loop for the ID.
func (r *Registry) Leave(id, connID string) (snap engine.Snapshot, left bool, removed bool) {
	sess, ok := r.lookup(id)
	if !ok {
		return engine.Snapshot{}, false, false
	}

	snap, left, empty := sess.Leave(connID)
	if !empty {
		return snap, left, false
	}

	r.mu.Lock()
	// Re-check under the write lock; a concurrent Leave may already
	// have removed it.
	if r.sessions[id] == sess {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	return snap, left, true
}

// SetDirection forwards a direction change to the session.
func (r *Registry) SetDirection(id, connID string, dir engine.Direction) bool {
	sess, ok := r.lookup(id)
	if !ok {
		return false
	}
	return sess.SetDirection(connID, dir)
}

// Start begins a session's round. Only the host may start.
func (r *Registry) Start(id, connID string, now time.Time) (engine.Snapshot, bool) {
	sess, ok := r.lookup(id)
	if !ok {
		return engine.Snapshot{}, false
	}
	return sess.Start(connID, now)
}

// Tick advances a session by one simulation step. ok is false for
// unknown or already-ended sessions; the tick that ends a round still
// returns its terminal snapshot.
func (r *Registry) Tick(id string, now time.Time) (engine.Snapshot, bool) {
	sess, ok := r.lookup(id)
	if !ok {
		return engine.Snapshot{}, false
	}
	return sess.Tick(now)
}

// Remove deletes a session outright.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// ReapIdle removes sessions with no activity for at least maxIdle and
// returns their IDs.
func (r *Registry) ReapIdle(now time.Time, maxIdle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string
	for id, sess := range r.sessions {
		if sess.IdleFor(now, maxIdle) {
			delete(r.sessions, id)
			reaped = append(reaped, id)
		}
	}
	return reaped
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) lookup(id string) (*engine.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// generateID draws random IDs until one misses the session map.
// Caller must hold r.mu.
func (r *Registry) generateID() string {
	for {
		id := randomID()
		if _, taken := r.sessions[id]; !taken {
			return id
		}
	}
}

func randomID() string {
	max := big.NewInt(int64(len(idAlphabet)))
	b := make([]byte, idLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; there is no reasonable recovery.
			panic(err)
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b)
}
