package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/stickman/internal/capture"
	"github.com/ayusman/stickman/internal/game"
)

type stubController struct {
	snap game.Snapshot
}

func (c *stubController) StartSession() error { return nil }
func (c *stubController) Restart() error { return nil }
func (c *stubController) Control(cmd game.Command) error { return nil }
func (c *stubController) Snapshot() game.Snapshot { return c.snap }

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if _, exists := response["phase"]; exists {
			t.Error("phase should be absent without a controller")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})

	t.Run("reports phase and viewers when wired", func(t *testing.T) {
		s := New(Config{
			Controller: &stubController{snap: game.Snapshot{Phase: game.PhaseGameOver}},
			Hub:        NewHub(),
		})
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["phase"] != "game-over" {
			t.Errorf("phase = %v, want game-over", response["phase"])
		}
		if response["viewers"] != float64(0) {
			t.Errorf("viewers = %v, want 0", response["viewers"])
		}
	})
}

func TestServer_Routes(t *testing.T) {
	bare := New(Config{})
	wired := New(Config{Controller: &stubController{}, Feed: capture.NewFeed(0)})
	t.Cleanup(func() { wired.Shutdown(t.Context()) })

	tests := []struct {
		name   string
		srv    *Server
		method string
		path   string
		status int
	}{
		{"unknown path", bare, http.MethodGet, "/api/nonexistent", http.StatusNotFound},
		{"leaderboard needs a store", bare, http.MethodGet, "/api/leaderboard", http.StatusNotFound},
		{"session needs a controller", bare, http.MethodGet, "/api/session", http.StatusNotFound},
		{"stream needs a hub", bare, http.MethodGet, "/api/stream", http.StatusNotFound},
		{"session", wired, http.MethodGet, "/api/session", http.StatusOK},
		{"session start", wired, http.MethodPost, "/api/session/start", http.StatusAccepted},
		{"control", wired, http.MethodGet, "/api/control", http.StatusMethodNotAllowed},
		{"landmarks without upgrade", wired, http.MethodGet, "/api/landmarks", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.srv.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>Stickman</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	jsContent := "const ws = new WebSocket('/api/stream');"
	if err := os.WriteFile(filepath.Join(tmpDir, "game.js"), []byte(jsContent), 0644); err != nil {
		t.Fatalf("failed to create test JS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/", http.StatusOK, testContent},
		{"/game.js", http.StatusOK, jsContent},
		{"/nonexistent.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{StaticDir: "/some/path"})

	if s.config.StaticDir != "/some/path" {
		t.Errorf("expected StaticDir /some/path, got %s", s.config.StaticDir)
	}
	if s.config.ControlRate != DefaultControlRate || s.config.ControlBurst != DefaultControlBurst {
		t.Errorf("control limits = %v/%d, want defaults", s.config.ControlRate, s.config.ControlBurst)
	}

	var _ http.Handler = s
}
