package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gridgames/multisnake/game/config"
	"github.com/gridgames/multisnake/game/service"
)

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// GetMCPServer returns the underlying MCP server for serving.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"MultiSnake Arena",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`MultiSnake Arena - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Steer your snake on a wrapping grid, eat food for points, and avoid
running into snake bodies before the round timer expires.

AVAILABLE TOOLS:
- create_session: Create a game session (you become the host)
- list_sessions: List joinable sessions
- get_session: Get full session state (board, players, food, scores)
- join_session: Join a session by ID
- set_direction: Steer your snake (up/down/left/right)
- start_session: Start the round (host only)
- leave_session: Leave your session
- list_presets: List available board presets

Keep the connection_id returned from create/join: every subsequent
call needs it to identify your snake.`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	sessionIDProp := map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
	connectionIDProp := map[string]interface{}{
		"type":        "string",
		"description": "Your connection ID from create_session or join_session",
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session; the caller becomes host",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name for your snake",
				},
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Name of a board preset (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all game sessions with joinability",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get the full state of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_session",
		Description: "Join an existing session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp,
				"player_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name for your snake",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleJoinSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_direction",
		Description: "Steer your snake; reversing into your own body is rejected",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id":    sessionIDProp,
				"connection_id": connectionIDProp,
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "One of up, down, left, right",
				},
			},
			Required: []string{"session_id", "connection_id", "direction"},
		},
	}, c.handleSetDirection)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_session",
		Description: "Start the round (host only)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id":    sessionIDProp,
				"connection_id": connectionIDProp,
			},
			Required: []string{"session_id", "connection_id"},
		},
	}, c.handleStartSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leave_session",
		Description: "Leave your session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id":    sessionIDProp,
				"connection_id": connectionIDProp,
			},
			Required: []string{"session_id", "connection_id"},
		},
	}, c.handleLeaveSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List available board presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)
}

// apiCall performs an HTTP request against the REST API.
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	playerName, _ := args["player_name"].(string)
	preset, _ := args["preset"].(string)

	body := map[string]interface{}{
		"player_name": playerName,
		"preset":      preset,
	}

	var info service.SessionInfo
	if err := c.apiCall("POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Session %s created. You are the host.\nYour connection_id: %s\n\n%s",
		info.ID, info.HostID, formatSession(&info))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var listing struct {
		Sessions []service.SessionSummary `json:"sessions"`
		Count    int                      `json:"count"`
	}
	if err := c.apiCall("GET", "/api/sessions", nil, &listing); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if listing.Count == 0 {
		return mcp.NewToolResultText("No sessions. Use create_session to start one."), nil
	}

	result := fmt.Sprintf("Sessions (%d):\n\n", listing.Count)
	for _, s := range listing.Sessions {
		state := "lobby"
		if s.Active {
			state = "running"
		}
		joinable := ""
		if s.Joinable {
			joinable = " [joinable]"
		}
		result += fmt.Sprintf("• %s — %s, %d/%d players, board %dx%d%s\n",
			s.ID, state, s.PlayerCount, s.MaxPlayers, s.BoardWidth, s.BoardHeight, joinable)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var info service.SessionInfo
	if err := c.apiCall("GET", "/api/sessions/"+sessionID, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSession(&info)), nil
}

func (c *Client) handleJoinSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	playerName, _ := args["player_name"].(string)

	var info service.SessionInfo
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/join", sessionID),
		map[string]interface{}{"player_name": playerName}, &info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The joiner is the most recently seated player.
	connID := ""
	if n := len(info.Players); n > 0 {
		connID = info.Players[n-1].ConnectionID
	}
	result := fmt.Sprintf("Joined session %s.\nYour connection_id: %s\n\n%s",
		info.ID, connID, formatSession(&info))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSetDirection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	connectionID, _ := args["connection_id"].(string)
	direction, _ := args["direction"].(string)

	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/direction", sessionID),
		map[string]interface{}{"connection_id": connectionID, "direction": direction}, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Heading set to %s.", direction)), nil
}

func (c *Client) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	connectionID, _ := args["connection_id"].(string)

	var info service.SessionInfo
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/start", sessionID),
		map[string]interface{}{"connection_id": connectionID}, &info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Round started.\n\n" + formatSession(&info)), nil
}

func (c *Client) handleLeaveSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	connectionID, _ := args["connection_id"].(string)

	var res service.LeaveResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/leave", sessionID),
		map[string]interface{}{"connection_id": connectionID}, &res)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if res.Removed {
		return mcp.NewToolResultText("Left session; it had no players left and was removed."), nil
	}
	return mcp.NewToolResultText("Left session.\n\n" + formatSession(res.Session)), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var listing struct {
		Presets []config.PresetInfo `json:"presets"`
	}
	if err := c.apiCall("GET", "/api/presets", nil, &listing); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available presets:\n\n"
	for _, p := range listing.Presets {
		result += fmt.Sprintf("• %s — board %dx%d, up to %d players",
			p.Name, p.BoardWidth, p.BoardHeight, p.MaxPlayers)
		if p.Description != "" {
			result += " — " + p.Description
		}
		result += "\n"
	}
	return mcp.NewToolResultText(result), nil
}

// formatSession renders a session for text-oriented agents.
func formatSession(info *service.SessionInfo) string {
	state := "lobby"
	if info.Active {
		state = "running"
	}

	out := fmt.Sprintf("Session %s (%s)\nBoard: %dx%d, duration %ds, %d/%d players\n",
		info.ID, state, info.BoardWidth, info.BoardHeight,
		info.DurationSeconds, len(info.Players), info.MaxPlayers)

	for _, p := range info.Players {
		host := ""
		if p.ConnectionID == info.HostID {
			host = " (host)"
		}
		head := ""
		if len(p.Body) > 0 {
			head = fmt.Sprintf(" head (%d,%d)", p.Body[0].X, p.Body[0].Y)
		}
		out += fmt.Sprintf("• %s%s — score %d, length %d, facing %s%s\n",
			p.Name, host, p.Score, len(p.Body), p.Facing, head)
	}

	out += fmt.Sprintf("Food: %d items", len(info.Food))
	return out
}
