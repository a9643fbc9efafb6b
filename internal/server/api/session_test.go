package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/stickman/internal/app"
	"github.com/ayusman/stickman/internal/capture"
	"github.com/ayusman/stickman/internal/game"
)

type fakeController struct {
	startErr   error
	restartErr error
	controlErr error
	commands   []game.Command
	snap       game.Snapshot
}

func (f *fakeController) StartSession() error {
	if f.startErr == nil {
		f.snap.Phase = game.PhaseCalibrating
	}
	return f.startErr
}

func (f *fakeController) Restart() error { return f.restartErr }

func (f *fakeController) Control(cmd game.Command) error {
	f.commands = append(f.commands, cmd)
	return f.controlErr
}

func (f *fakeController) Snapshot() game.Snapshot { return f.snap }

func TestSessionHandler_Get(t *testing.T) {
	ctrl := &fakeController{snap: game.Snapshot{SessionID: "s1", Phase: game.PhasePlaying, Score: 17, Lives: 2}}
	handler := NewSessionHandler(ctrl)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID != "s1" || resp.Phase != game.PhasePlaying || resp.Score != 17 || resp.Lives != 2 {
		t.Errorf("unexpected session response: %+v", resp)
	}
}

func TestSessionHandler_Actions(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		ctrl   *fakeController
		status int
	}{
		{"start", http.MethodPost, "/api/session/start", &fakeController{}, http.StatusAccepted},
		{"start while playing", http.MethodPost, "/api/session/start", &fakeController{startErr: app.ErrNotIdle}, http.StatusConflict},
		{"start without camera", http.MethodPost, "/api/session/start",
			&fakeController{startErr: fmt.Errorf("start session: %w", capture.ErrCameraUnavailable)}, http.StatusServiceUnavailable},
		{"restart", http.MethodPost, "/api/session/restart", &fakeController{}, http.StatusAccepted},
		{"restart before playing", http.MethodPost, "/api/session/restart", &fakeController{restartErr: app.ErrRejected}, http.StatusConflict},
		{"restart with loop down", http.MethodPost, "/api/session/restart", &fakeController{restartErr: app.ErrNotRunning}, http.StatusServiceUnavailable},
		{"start via GET", http.MethodGet, "/api/session/start", &fakeController{}, http.StatusMethodNotAllowed},
		{"unknown action", http.MethodPost, "/api/session/pause", &fakeController{}, http.StatusNotFound},
		{"post to collection", http.MethodPost, "/api/session", &fakeController{}, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewSessionHandler(tt.ctrl).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSessionHandler_StartReportsPhase(t *testing.T) {
	rec := httptest.NewRecorder()
	NewSessionHandler(&fakeController{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session/start", nil))

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Phase != game.PhaseCalibrating {
		t.Errorf("phase = %q, want calibrating", resp.Phase)
	}
}

func TestControlHandler(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"move left", `{"command":"move-left"}`, nil, http.StatusNoContent},
		{"shield", `{"command":"shield"}`, nil, http.StatusNoContent},
		{"unknown command", `{"command":"jump"}`, nil, http.StatusBadRequest},
		{"invalid json", `not json`, nil, http.StatusBadRequest},
		{"ignored outside play", `{"command":"move-right"}`, app.ErrRejected, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{controlErr: tt.err}
			handler := NewControlHandler(ctrl, 100, 10)

			req := httptest.NewRequest(http.MethodPost, "/api/control", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestControlHandler_RateLimited(t *testing.T) {
	ctrl := &fakeController{}
	handler := NewControlHandler(ctrl, 0.001, 3)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/control", bytes.NewBufferString(`{"command":"move-left"}`)))
		codes = append(codes, rec.Code)
	}

	want := []int{204, 204, 204, 429, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status %d, want %d", i, codes[i], want[i])
		}
	}
	if len(ctrl.commands) != 3 {
		t.Errorf("controller saw %d commands, want 3", len(ctrl.commands))
	}
}

func TestControlHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewControlHandler(&fakeController{}, 10, 1).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/control", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
