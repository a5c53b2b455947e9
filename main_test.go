package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
}

func TestBuildServer(t *testing.T) {
	handler, shutdown, err := buildServer(t.TempDir())
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	defer shutdown()

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// The preset endpoint exercises the config manager even when the
	// presets directory is empty: the built-in default must be served.
	resp, err = http.Get(srv.URL + "/api/presets")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("presets status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestMountMCPMethodNotAllowed(t *testing.T) {
	handler, shutdown, err := buildServer(t.TempDir())
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	defer shutdown()

	srv := httptest.NewServer(mountMCP(handler, "http://localhost:0"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/mcp")
	if err != nil {
		t.Fatalf("GET /mcp: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /mcp status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestMountMCPHandlesMessage(t *testing.T) {
	handler, shutdown, err := buildServer(t.TempDir())
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	defer shutdown()

	backing := httptest.NewServer(handler)
	defer backing.Close()

	front := httptest.NewServer(mountMCP(handler, backing.URL))
	defer front.Close()

	body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp, err := http.Post(front.URL+"/mcp", "application/json", body)
	if err != nil {
		t.Fatalf("POST /mcp: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST /mcp status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestAPIReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if !apiReachable(srv.URL) {
		t.Error("running server reported unreachable")
	}

	srv.Close()
	if apiReachable(srv.URL) {
		t.Error("closed server reported reachable")
	}
}
