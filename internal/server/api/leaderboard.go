package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/stickman/internal/store"
)

// LeaderboardHandler serves /api/leaderboard.
type LeaderboardHandler struct {
	store *store.Store
}

// NewLeaderboardHandler creates a new LeaderboardHandler with the given store.
func NewLeaderboardHandler(s *store.Store) *LeaderboardHandler {
	return &LeaderboardHandler{store: s}
}

// ServeHTTP routes GET, POST and DELETE on the collection.
func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.submit(w, r)
	case http.MethodDelete:
		h.clear(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type submitScoreRequest struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

type scoreResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	SessionID string `json:"session_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

type leaderboardResponse struct {
	Scores []scoreResponse `json:"scores"`
}

func toScoreResponse(s *store.Score) scoreResponse {
	return scoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		Score:     s.Points,
		SessionID: s.SessionID,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/leaderboard and returns the top entries, best first.
func (h *LeaderboardHandler) list(w http.ResponseWriter, r *http.Request) {
	scores, err := h.store.Scores().Top(store.LeaderboardSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to read leaderboard")
		writeError(w, http.StatusInternalServerError, "Failed to read leaderboard")
		return
	}

	response := leaderboardResponse{Scores: make([]scoreResponse, 0, len(scores))}
	for _, s := range scores {
		response.Scores = append(response.Scores, toScoreResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// submit handles POST /api/leaderboard. Names are trimmed, truncated and
// defaulted by the store.
func (h *LeaderboardHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Score == nil {
		writeError(w, http.StatusBadRequest, "Score is required")
		return
	}
	if *req.Score < 0 {
		writeError(w, http.StatusBadRequest, "Score must not be negative")
		return
	}

	score, err := h.store.Scores().Add(req.Name, *req.Score, "")
	if err != nil {
		log.Error().Err(err).Msg("failed to save score")
		writeError(w, http.StatusInternalServerError, "Failed to save score")
		return
	}
	writeJSON(w, http.StatusCreated, toScoreResponse(score))
}

// clear handles DELETE /api/leaderboard.
func (h *LeaderboardHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Scores().Clear(); err != nil {
		log.Error().Err(err).Msg("failed to clear leaderboard")
		writeError(w, http.StatusInternalServerError, "Failed to clear leaderboard")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
