package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridgames/multisnake/game/service"
)

// Scheduler is the slice of the tick runner the REST layer needs: a
// successful start spins up the session's loop, and lifecycle events
// go out through the same broadcast path the loops use.
type Scheduler interface {
	StartLoop(sessionID string, interval time.Duration)
	StopLoop(sessionID string)
	Broadcast(sessionID, event string, payload interface{})
}

// Server is the REST API server. The WebSocket endpoint is mounted as
// an opaque handler so the transport packages stay decoupled.
type Server struct {
	service   service.GameService
	scheduler Scheduler
	ws        http.HandlerFunc
	router    *mux.Router
	limiter   *IPRateLimiter
}

// NewServer creates a new API server. ws may be nil when the server
// runs REST-only (tests, CLI tools).
func NewServer(gameService service.GameService, sched Scheduler, ws http.HandlerFunc) *Server {
	s := &Server{
		service:   gameService,
		scheduler: sched,
		ws:        ws,
		router:    mux.NewRouter(),
		limiter:   NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(metricsMiddleware, s.limiter.Middleware)

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Player operations
	api.HandleFunc("/sessions/{id}/join", s.handleJoin).Methods("POST")
	api.HandleFunc("/sessions/{id}/leave", s.handleLeave).Methods("POST")
	api.HandleFunc("/sessions/{id}/direction", s.handleDirection).Methods("POST")
	api.HandleFunc("/sessions/{id}/start", s.handleStart).Methods("POST")

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")

	// Operational endpoints
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	if s.ws != nil {
		s.router.HandleFunc("/ws", s.ws)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources.
func (s *Server) Close() {
	s.limiter.Stop()
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinel errors to status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrPlayerNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSettings), errors.Is(err, service.ErrInvalidDirection):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotHost):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrJoinRejected), errors.Is(err, service.ErrAlreadyStarted),
		errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrInvalidMove):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// routePattern returns the mux path template for bounded metric labels.
func routePattern(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unknown"
}

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	// REST callers without a WebSocket connection get a generated
	// connection ID; they keep using it for subsequent calls.
	if req.ConnectionID == "" {
		req.ConnectionID = uuid.NewString()
	}

	info, err := s.service.CreateSession(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.service.RemoveSession(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	if s.scheduler != nil {
		s.scheduler.StopLoop(id)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// Player handlers

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req service.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ConnectionID == "" {
		req.ConnectionID = uuid.NewString()
	}

	info, err := s.service.JoinSession(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if s.scheduler != nil {
		s.scheduler.Broadcast(info.ID, EventPlayerJoined, info)
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID string `json:"connection_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := mux.Vars(r)["id"]
	res, err := s.service.LeaveSession(r.Context(), id, req.ConnectionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if s.scheduler != nil {
		if res.Removed {
			s.scheduler.StopLoop(id)
		} else {
			s.scheduler.Broadcast(id, EventPlayerLeft, res.Session)
		}
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleDirection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID string `json:"connection_id"`
		Direction    string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.service.SetDirection(r.Context(), mux.Vars(r)["id"], req.ConnectionID, req.Direction); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID string `json:"connection_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	info, err := s.service.StartSession(r.Context(), mux.Vars(r)["id"], req.ConnectionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if s.scheduler != nil {
		s.scheduler.Broadcast(info.ID, EventGameStarted, info)
		s.scheduler.StartLoop(info.ID, time.Duration(info.TickIntervalMS)*time.Millisecond)
	}
	respondJSON(w, http.StatusOK, info)
}

// Preset handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"presets": presets})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
