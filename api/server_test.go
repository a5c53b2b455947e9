package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gridgames/multisnake/game/config"
	"github.com/gridgames/multisnake/game/service"
	"github.com/gridgames/multisnake/game/session"
)

// recordingScheduler captures loop starts and broadcasts.
type recordingScheduler struct {
	mu      sync.Mutex
	started []string
	stopped []string
	events  []string
}

func (r *recordingScheduler) StartLoop(sessionID string, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, sessionID)
}

func (r *recordingScheduler) StopLoop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, sessionID)
}

func (r *recordingScheduler) Broadcast(sessionID, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func newTestServer(t *testing.T) (*Server, *recordingScheduler) {
	t.Helper()
	svc := service.NewGameService(session.NewRegistry(), config.NewManager(t.TempDir()))
	sched := &recordingScheduler{}
	srv := NewServer(svc, sched, nil)
	t.Cleanup(srv.Close)
	return srv, sched
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func createSession(t *testing.T, srv *Server) *service.SessionInfo {
	t.Helper()
	rec := doJSON(t, srv, "POST", "/api/sessions", map[string]interface{}{
		"connection_id": "host-conn",
		"player_name":   "alice",
		"settings":      map[string]int{"max_players": 2, "board_width": 20, "board_height": 20},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", rec.Code, rec.Body.String())
	}
	var info service.SessionInfo
	decode(t, rec, &info)
	return &info
}

func TestCreateSessionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("created with settings", func(t *testing.T) {
		info := createSession(t, srv)
		if info.ID == "" || info.HostID != "host-conn" {
			t.Errorf("unexpected session info: %+v", info)
		}
		if info.MaxPlayers != 2 {
			t.Errorf("max players = %d, want 2", info.MaxPlayers)
		}
	})

	t.Run("invalid settings rejected", func(t *testing.T) {
		rec := doJSON(t, srv, "POST", "/api/sessions", map[string]interface{}{
			"settings": map[string]int{"board_width": 2},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		rec := doJSON(t, srv, "POST", "/api/sessions", nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		var info service.SessionInfo
		decode(t, rec, &info)
		if info.HostID == "" {
			t.Error("connection ID should be minted for bodyless creates")
		}
	})
}

func TestGetAndListSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	info := createSession(t, srv)

	rec := doJSON(t, srv, "GET", "/api/sessions/"+info.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get session status = %d", rec.Code)
	}

	rec = doJSON(t, srv, "GET", "/api/sessions/NOPE42", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get unknown session status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, "GET", "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list sessions status = %d", rec.Code)
	}
	var listing struct {
		Sessions []*service.SessionSummary `json:"sessions"`
		Count    int                       `json:"count"`
	}
	decode(t, rec, &listing)
	if listing.Count != 1 || len(listing.Sessions) != 1 {
		t.Errorf("listing = %+v", listing)
	}
}

func TestJoinLeaveEndpoints(t *testing.T) {
	srv, sched := newTestServer(t)
	info := createSession(t, srv)

	rec := doJSON(t, srv, "POST", "/api/sessions/"+info.ID+"/join", map[string]string{
		"connection_id": "c2", "player_name": "bob",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d body %s", rec.Code, rec.Body.String())
	}

	// Room is full now (max_players 2).
	rec = doJSON(t, srv, "POST", "/api/sessions/"+info.ID+"/join", map[string]string{
		"connection_id": "c3", "player_name": "carol",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("join full status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, "POST", "/api/sessions/"+info.ID+"/leave", map[string]string{
		"connection_id": "ghost",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("leave unknown player status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, "POST", "/api/sessions/"+info.ID+"/leave", map[string]string{
		"connection_id": "c2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("leave status = %d", rec.Code)
	}

	sched.mu.Lock()
	defer sched.mu.Unlock()
	if len(sched.events) != 2 || sched.events[0] != EventPlayerJoined || sched.events[1] != EventPlayerLeft {
		t.Errorf("broadcast events = %v", sched.events)
	}
}

func TestStartEndpoint(t *testing.T) {
	srv, sched := newTestServer(t)
	info := createSession(t, srv)

	rec := doJSON(t, srv, "POST", "/api/sessions/"+info.ID+"/start", map[string]string{
		"connection_id": "someone-else",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-host start status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, srv, "POST", "/api/sessions/"+info.ID+"/start", map[string]string{
		"connection_id": "host-conn",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, "POST", "/api/sessions/"+info.ID+"/start", map[string]string{
		"connection_id": "host-conn",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("double start status = %d, want 409", rec.Code)
	}

	sched.mu.Lock()
	defer sched.mu.Unlock()
	if len(sched.started) != 1 || sched.started[0] != info.ID {
		t.Errorf("started loops = %v, want [%s]", sched.started, info.ID)
	}
	if len(sched.events) != 1 || sched.events[0] != EventGameStarted {
		t.Errorf("broadcast events = %v", sched.events)
	}
}

func TestDirectionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	info := createSession(t, srv)

	tests := []struct {
		name      string
		sessionID string
		body      map[string]string
		want      int
	}{
		{"valid", info.ID, map[string]string{"connection_id": "host-conn", "direction": "up"}, http.StatusOK},
		{"bad token", info.ID, map[string]string{"connection_id": "host-conn", "direction": "sideways"}, http.StatusBadRequest},
		{"reversal", info.ID, map[string]string{"connection_id": "host-conn", "direction": "left"}, http.StatusConflict},
		{"unknown session", "NOPE42", map[string]string{"connection_id": "host-conn", "direction": "up"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, "POST", "/api/sessions/"+tt.sessionID+"/direction", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestDeleteSessionEndpoint(t *testing.T) {
	srv, sched := newTestServer(t)
	info := createSession(t, srv)

	rec := doJSON(t, srv, "DELETE", "/api/sessions/"+info.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, "DELETE", "/api/sessions/"+info.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", rec.Code)
	}

	sched.mu.Lock()
	defer sched.mu.Unlock()
	if len(sched.stopped) != 1 || sched.stopped[0] != info.ID {
		t.Errorf("stopped loops = %v, want [%s]", sched.stopped, info.ID)
	}
}

func TestPresetsAndHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, "GET", "/api/presets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("presets status = %d", rec.Code)
	}
	var presets struct {
		Presets []config.PresetInfo `json:"presets"`
	}
	decode(t, rec, &presets)
	if len(presets.Presets) != 1 || presets.Presets[0].Name != config.DefaultPresetName {
		t.Errorf("presets = %+v", presets)
	}

	rec = doJSON(t, srv, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	svc := service.NewGameService(session.NewRegistry(), config.NewManager(t.TempDir()))
	srv := NewServer(svc, nil, nil)
	t.Cleanup(srv.Close)

	// Exhaust the burst from a single IP.
	limited := false
	for i := 0; i < DefaultRateLimitConfig.Burst+5; i++ {
		req := httptest.NewRequest("GET", "/api/sessions", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("burst from one IP was never rate limited")
	}

	// A different IP is unaffected.
	req := httptest.NewRequest("GET", "/api/sessions", nil)
	req.RemoteAddr = "203.0.113.8:1234"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh IP status = %d, want 200", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		fwd    string
		want   string
	}{
		{"remote addr", "192.0.2.1:5555", "", "192.0.2.1"},
		{"forwarded single", "10.0.0.1:80", "203.0.113.9", "203.0.113.9"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.9, 10.0.0.2", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.fwd != "" {
				req.Header.Set("X-Forwarded-For", tt.fwd)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %s, want %s", got, tt.want)
			}
		})
	}
}
