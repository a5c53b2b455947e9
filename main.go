// Command multisnake starts the MultiSnake Arena server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API,
//     the WebSocket endpoint, Prometheus metrics, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server, reusing a running HTTP API when one
//     is reachable and spinning up an internal one otherwise
//
// Flags control host/port, the presets directory, and debug logging; each
// flag also reads a matching environment variable so the server can be
// configured from a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"

	"github.com/gridgames/multisnake/api"
	"github.com/gridgames/multisnake/game/config"
	"github.com/gridgames/multisnake/game/service"
	"github.com/gridgames/multisnake/game/session"
	"github.com/gridgames/multisnake/transport/mcp"
	"github.com/gridgames/multisnake/transport/scheduler"
	"github.com/gridgames/multisnake/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "MultiSnake Arena Server"
)

// reapInterval is how often idle sessions are swept from the registry.
const reapInterval = time.Minute

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	cmd := &cli.Command{
		Name:    "multisnake",
		Usage:   "authoritative multiplayer snake game server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:       "port",
				Value:      8080,
				Usage:      "HTTP server port",
				Sources:    cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:       "host",
				Value:      "localhost",
				Usage:      "HTTP server host",
				Sources:    cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:       "presets-dir",
				Value:      "presets",
				Usage:      "Directory containing session preset files",
				Sources:    cli.EnvVars("PRESETS_DIR"),
			},
			&cli.BoolFlag{
				Name:       "debug",
				Usage:      "Enable debug logging",
				Sources:    cli.EnvVars("DEBUG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (REST API, WebSocket, metrics, MCP endpoint)",
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "Run an MCP stdio server backed by the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Usage:   "Base URL of a running API server (started internally when unreachable)",
						Sources: cli.EnvVars("API_URL"),
					},
				},
				Action: runStdioMCP,
			},
		},
		// Bare invocation serves.
		Action: runServe,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupLogging applies the debug flag to the standard logger.
func setupLogging(cmd *cli.Command) {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// buildServer wires the registry, preset manager, game service, tick runner,
// and WebSocket hub into a ready-to-mount HTTP handler. The returned shutdown
// function stops the tick loops, the idle reaper, and the rate limiter.
func buildServer(presetsDir string) (http.Handler, func(), error) {
	registry := session.NewRegistry()
	presets := config.NewManager(presetsDir)
	gameService := service.NewGameService(registry, presets)

	runner := scheduler.NewRunner(gameService)
	hub := websocket.NewHub(gameService, runner)
	runner.SetBroadcast(hub.BroadcastEvent)
	go hub.Run()

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	go runner.RunReaper(reaperCtx, reapInterval)

	apiServer := api.NewServer(gameService, runner, hub.ServeWS)

	shutdown := func() {
		stopReaper()
		runner.StopAll()
		apiServer.Close()
	}
	return apiServer, shutdown, nil
}

// mountMCP wraps the API handler in a mux that also answers MCP JSON-RPC
// messages POSTed to /mcp, proxied through the REST client.
func mountMCP(apiHandler http.Handler, baseURL string) http.Handler {
	mcpClient := mcp.NewClient(baseURL)

	mux := http.NewServeMux()
	mux.Handle("/", apiHandler)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mux
}

// runServe starts the HTTP server and blocks until SIGINT/SIGTERM.
func runServe(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	log.Printf("Starting %s v%s", AppName, Version)

	handler, shutdown, err := buildServer(cmd.String("presets-dir"))
	if err != nil {
		return err
	}
	defer shutdown()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mountMCP(handler, fmt.Sprintf("http://%s", addr)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("  REST API:     http://%s/api", addr)
		log.Printf("  WebSocket:    ws://%s/ws", addr)
		log.Printf("  Metrics:      http://%s/metrics", addr)
		log.Printf("  MCP endpoint: http://%s/mcp", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("Server stopped")
	return nil
}

// runStdioMCP starts an MCP stdio server. It reuses the API at --api-url when
// that server answers a health probe; otherwise it starts an internal HTTP
// server on the configured host/port and points the MCP tools at that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)

	baseURL := cmd.String("api-url")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	}

	if !apiReachable(baseURL) {
		log.Printf("No API server at %s, starting internal server", baseURL)

		handler, shutdown, err := buildServer(cmd.String("presets-dir"))
		if err != nil {
			return err
		}
		defer shutdown()

		addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
		httpServer := &http.Server{Addr: addr, Handler: handler}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Internal HTTP server failed: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", addr)
		waitForAPI(baseURL, 5*time.Second)
	} else {
		log.Printf("Reusing API server at %s", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("Starting MCP stdio server")
	return server.ServeStdio(mcpClient.GetMCPServer())
}

// apiReachable reports whether an API server answers the health endpoint.
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 500 * time.Millisecond}
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// waitForAPI polls the health endpoint until it answers or the timeout lapses.
func waitForAPI(baseURL string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if apiReachable(baseURL) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	log.Printf("Warning: internal API at %s not answering health checks", baseURL)
}
