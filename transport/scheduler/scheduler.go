// Package scheduler drives the per-session tick loops. The simulation
// itself never owns a timer; this package starts one cancellable loop
// per running session and stops it when the session reports that the
// round is over. A slower background loop reaps idle sessions.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gridgames/multisnake/api"
	"github.com/gridgames/multisnake/game/service"
)

// BroadcastFunc delivers a session event to whatever transport fans it
// out to clients.
type BroadcastFunc func(sessionID, event string, payload interface{})

// Runner owns one tick loop per running session.
type Runner struct {
	service   service.GameService
	broadcast BroadcastFunc

	mu    sync.Mutex
	loops map[string]context.CancelFunc
}

// NewRunner creates a runner. SetBroadcast must be called before any
// loop is started.
func NewRunner(svc service.GameService) *Runner {
	return &Runner{
		service: svc,
		loops:   make(map[string]context.CancelFunc),
	}
}

// SetBroadcast wires the event sink. It exists because the runner and
// the WebSocket hub reference each other and one of them has to be
// constructed first.
func (r *Runner) SetBroadcast(fn BroadcastFunc) {
	r.broadcast = fn
}

// Broadcast forwards an event to the sink, if one is wired. It lets
// other transports announce lifecycle events through the same fan-out
// path the tick loops use.
func (r *Runner) Broadcast(sessionID, event string, payload interface{}) {
	if r.broadcast != nil {
		r.broadcast(sessionID, event, payload)
	}
}

// StartLoop begins ticking a session at the given interval. Starting
// an already-running loop is a no-op.
func (r *Runner) StartLoop(sessionID string, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, running := r.loops[sessionID]; running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.loops[sessionID] = cancel
	go r.run(ctx, sessionID, interval)
}

// StopLoop cancels a session's tick loop, if one is running.
func (r *Runner) StopLoop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.loops[sessionID]; ok {
		cancel()
		delete(r.loops, sessionID)
	}
}

// StopAll cancels every loop. Used on shutdown.
func (r *Runner) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cancel := range r.loops {
		cancel()
		delete(r.loops, id)
	}
}

// Running reports whether a loop exists for the session.
func (r *Runner) Running(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.loops[sessionID]
	return ok
}

func (r *Runner) run(ctx context.Context, sessionID string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer r.StopLoop(sessionID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickStart := time.Now()
			info, err := r.service.Tick(ctx, sessionID)
			api.RecordTick(time.Since(tickStart))
			if err != nil {
				// The session is gone or already over; nothing left to
				// broadcast.
				if !errors.Is(err, service.ErrSessionNotFound) && !errors.Is(err, service.ErrNotStarted) {
					log.Printf("tick %s: %v", sessionID, err)
				}
				return
			}

			if !info.Active {
				// Terminal tick: push final scores, then stop.
				r.Broadcast(sessionID, api.EventGameEnded, info)
				return
			}
			r.Broadcast(sessionID, api.EventState, info)
		}
	}
}

// RunReaper periodically removes idle sessions and stops their loops.
// It blocks until ctx is cancelled.
func (r *Runner) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reaped, err := r.service.ReapIdle(ctx)
			if err != nil {
				log.Printf("reap idle sessions: %v", err)
				continue
			}
			for _, id := range reaped {
				log.Printf("reaped idle session %s", id)
				r.StopLoop(id)
			}
			if summaries, err := r.service.ListSessions(ctx); err == nil {
				api.UpdateActiveSessions(len(summaries))
			}
		}
	}
}
