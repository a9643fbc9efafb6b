package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ayusman/stickman/internal/app"
	"github.com/ayusman/stickman/internal/capture"
	"github.com/ayusman/stickman/internal/game"
)

// Controller is the part of the app the session endpoints drive.
type Controller interface {
	StartSession() error
	Restart() error
	Control(cmd game.Command) error
	Snapshot() game.Snapshot
}

// SessionHandler serves /api/session and its start and restart actions.
type SessionHandler struct {
	ctrl Controller
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(c Controller) *SessionHandler {
	return &SessionHandler{ctrl: c}
}

type sessionResponse struct {
	SessionID  string           `json:"session_id"`
	Phase      game.Phase       `json:"phase"`
	Score      int              `json:"score"`
	Lives      int              `json:"lives"`
	Shield     game.ShieldState `json:"shield"`
	BossInMs   float64          `json:"boss_in_ms"`
	Restarting bool             `json:"restarting"`
}

func toSessionResponse(s game.Snapshot) sessionResponse {
	return sessionResponse{
		SessionID:  s.SessionID,
		Phase:      s.Phase,
		Score:      s.Score,
		Lives:      s.Lives,
		Shield:     s.Shield,
		BossInMs:   s.BossInMs,
		Restarting: s.Restarting,
	}
}

// ServeHTTP routes /api/session, /api/session/start and
// /api/session/restart.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/session"), "/")

	switch action {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(h.ctrl.Snapshot()))
	case "start", "restart":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		run := h.ctrl.StartSession
		if action == "restart" {
			run = h.ctrl.Restart
		}
		if err := run(); err != nil {
			writeControlError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, toSessionResponse(h.ctrl.Snapshot()))
	default:
		writeError(w, http.StatusNotFound, "Unknown session action")
	}
}

// ControlHandler serves POST /api/control, the manual override. Requests
// beyond the limiter's rate are refused with 429.
type ControlHandler struct {
	ctrl    Controller
	limiter *rate.Limiter
}

// NewControlHandler creates a ControlHandler allowing perSecond commands with
// the given burst.
func NewControlHandler(c Controller, perSecond float64, burst int) *ControlHandler {
	return &ControlHandler{ctrl: c, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

type controlRequest struct {
	Command string `json:"command"`
}

func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	cmd, err := game.ParseCommand(req.Command)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many commands")
		return
	}

	if err := h.ctrl.Control(cmd); err != nil {
		writeControlError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeControlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNotIdle), errors.Is(err, app.ErrRejected):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrNotRunning), errors.Is(err, capture.ErrCameraUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
