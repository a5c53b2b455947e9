package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/gridgames/multisnake/api"
	"github.com/gridgames/multisnake/game/engine"
	"github.com/gridgames/multisnake/game/service"
	"github.com/gridgames/multisnake/transport/scheduler"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Inbound command budget per client. Direction changes dominate;
	// anything past this is a misbehaving client.
	inboundRate  = 30
	inboundBurst = 60
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Message is the outbound wire frame.
type Message struct {
	SessionID string      `json:"session_id,omitempty"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
}

// Command is the inbound wire frame.
type Command struct {
	Action     string           `json:"action"`
	SessionID  string           `json:"session_id,omitempty"`
	PlayerName string           `json:"player_name,omitempty"`
	Direction  string           `json:"direction,omitempty"`
	Preset     string           `json:"preset,omitempty"`
	Settings   *engine.Settings `json:"settings,omitempty"`
}

// Client represents one WebSocket connection. connectionID doubles as
// the player's connection identity inside sessions. sessionID is only
// touched by the client's own readPump, and by the hub loop after the
// readPump has exited.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	connectionID string
	sessionID    string
	limiter      *rate.Limiter
}

// subscription attaches or detaches a client to a session's fan-out.
type subscription struct {
	client    *Client
	sessionID string
}

// Hub fans session events out to the WebSocket clients watching each
// session. All map access happens on the Run goroutine.
type Hub struct {
	service service.GameService
	runner  *scheduler.Runner

	// Clients watching each session ID.
	sessions map[string]map[*Client]bool

	attach     chan subscription
	detach     chan subscription
	unregister chan *Client
	broadcast  chan *Message
}

// NewHub creates a new WebSocket hub.
func NewHub(svc service.GameService, runner *scheduler.Runner) *Hub {
	return &Hub{
		service:    svc,
		runner:     runner,
		sessions:   make(map[string]map[*Client]bool),
		attach:     make(chan subscription),
		detach:     make(chan subscription),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 64),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.attach:
			h.attachClient(sub)

		case sub := <-h.detach:
			h.detachClient(sub)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS handles WebSocket upgrade requests.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:          h,
		conn:         conn,
		send:         make(chan []byte, 256),
		connectionID: uuid.NewString(),
		limiter:      rate.NewLimiter(inboundRate, inboundBurst),
	}
	api.RecordWSConnect()

	client.sendMessage(&Message{
		Event: api.EventConnected,
		Data:  map[string]string{"connection_id": client.connectionID},
	})

	go client.writePump()
	go client.readPump()
}

// BroadcastEvent queues an event for every client watching a session.
// It matches scheduler.BroadcastFunc so tick loops can feed it
// directly.
func (h *Hub) BroadcastEvent(sessionID, event string, payload interface{}) {
	h.broadcast <- &Message{
		SessionID: sessionID,
		Event:     event,
		Data:      payload,
	}
}

func (h *Hub) attachClient(sub subscription) {
	if h.sessions[sub.sessionID] == nil {
		h.sessions[sub.sessionID] = make(map[*Client]bool)
	}
	h.sessions[sub.sessionID][sub.client] = true
	log.Printf("client %s watching session %s (%d watching)",
		sub.client.connectionID, sub.sessionID, len(h.sessions[sub.sessionID]))
}

func (h *Hub) detachClient(sub subscription) {
	if clients, ok := h.sessions[sub.sessionID]; ok {
		delete(clients, sub.client)
		if len(clients) == 0 {
			delete(h.sessions, sub.sessionID)
		}
	}
}

// unregisterClient handles a dropped connection: the player leaves
// their session and the fan-out entry goes away. Safe to read
// client.sessionID here because the readPump has already exited.
func (h *Hub) unregisterClient(client *Client) {
	if client.sessionID != "" {
		h.detachClient(subscription{client: client, sessionID: client.sessionID})

		res, err := h.service.LeaveSession(context.Background(), client.sessionID, client.connectionID)
		switch {
		case err != nil:
			// The session may already be gone (reaped or deleted).
			log.Printf("leave on disconnect %s: %v", client.connectionID, err)
		case res.Removed:
			h.runner.StopLoop(client.sessionID)
		default:
			h.broadcastMessage(&Message{
				SessionID: client.sessionID,
				Event:     api.EventPlayerLeft,
				Data:      res.Session,
			})
		}
	}

	close(client.send)
	api.RecordWSDisconnect()
}

// broadcastMessage fans one message out. Slow clients lose messages
// rather than stalling the loop.
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("failed to marshal broadcast message: %v", err)
		return
	}

	for client := range h.sessions[message.SessionID] {
		select {
		case client.send <- data:
		default:
			log.Printf("client %s send buffer full, dropping %s", client.connectionID, message.Event)
		}
	}
}

// readPump pumps commands from the connection into the game service.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		api.RecordWSMessage("in")

		if !c.limiter.Allow() {
			c.sendError("rate limit exceeded")
			continue
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.sendError("invalid command")
			continue
		}
		c.handleCommand(&cmd)
	}
}

// handleCommand dispatches one inbound command. Runs on the readPump
// goroutine, so c.sessionID needs no locking.
func (c *Client) handleCommand(cmd *Command) {
	ctx := context.Background()

	switch cmd.Action {
	case "create":
		if c.sessionID != "" {
			c.sendError("already in a session")
			return
		}
		info, err := c.hub.service.CreateSession(ctx, service.CreateSessionRequest{
			Preset:       cmd.Preset,
			Settings:     cmd.Settings,
			ConnectionID: c.connectionID,
			PlayerName:   cmd.PlayerName,
		})
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sessionID = info.ID
		c.hub.attach <- subscription{client: c, sessionID: info.ID}
		c.sendMessage(&Message{SessionID: info.ID, Event: api.EventCreated, Data: info})

	case "join":
		if c.sessionID != "" {
			c.sendError("already in a session")
			return
		}
		info, err := c.hub.service.JoinSession(ctx, cmd.SessionID, service.JoinRequest{
			ConnectionID: c.connectionID,
			PlayerName:   cmd.PlayerName,
		})
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sessionID = info.ID
		c.hub.attach <- subscription{client: c, sessionID: info.ID}
		c.hub.BroadcastEvent(info.ID, api.EventPlayerJoined, info)

	case "leave":
		if c.sessionID == "" {
			c.sendError("not in a session")
			return
		}
		sessionID := c.sessionID
		c.hub.detach <- subscription{client: c, sessionID: sessionID}
		c.sessionID = ""

		res, err := c.hub.service.LeaveSession(ctx, sessionID, c.connectionID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		if res.Removed {
			c.hub.runner.StopLoop(sessionID)
			return
		}
		c.hub.BroadcastEvent(sessionID, api.EventPlayerLeft, res.Session)

	case "direction":
		if c.sessionID == "" {
			c.sendError("not in a session")
			return
		}
		if err := c.hub.service.SetDirection(ctx, c.sessionID, c.connectionID, cmd.Direction); err != nil {
			c.sendError(err.Error())
		}

	case "start":
		if c.sessionID == "" {
			c.sendError("not in a session")
			return
		}
		info, err := c.hub.service.StartSession(ctx, c.sessionID, c.connectionID)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.hub.BroadcastEvent(info.ID, api.EventGameStarted, info)
		c.hub.runner.StartLoop(info.ID, time.Duration(info.TickIntervalMS)*time.Millisecond)

	default:
		c.sendError("unknown action: " + cmd.Action)
	}
}

func (c *Client) sendError(msg string) {
	c.sendMessage(&Message{Event: api.EventError, Data: map[string]string{"error": msg}})
}

func (c *Client) sendMessage(m *Message) {
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("failed to marshal message: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump pumps messages from the hub to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			api.RecordWSMessage("out")

			// Flush queued messages into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
				api.RecordWSMessage("out")
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
