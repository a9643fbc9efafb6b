package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/stickman/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestLeaderboardHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewLeaderboardHandler(s)

	for i, pts := range []int{5, 40, 12, 90, 33, 71} {
		if _, err := s.Scores().Add(string(rune('a'+i)), pts, "run"); err != nil {
			t.Fatalf("failed to add score: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response leaderboardResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := []int{90, 71, 40, 33, 12}
	if len(response.Scores) != len(want) {
		t.Fatalf("expected %d scores, got %d", len(want), len(response.Scores))
	}
	for i, sc := range response.Scores {
		if sc.Score != want[i] {
			t.Errorf("entry %d score = %d, want %d", i, sc.Score, want[i])
		}
	}
}

func TestLeaderboardHandler_List_Empty(t *testing.T) {
	handler := NewLeaderboardHandler(newTestStore(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body := rec.Body.String(); body != "{\"scores\":[]}\n" {
		t.Errorf("body = %q, want an empty list", body)
	}
}

func TestLeaderboardHandler_Submit(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		wantName string
	}{
		{"valid", `{"name":"Ada","score":128}`, http.StatusCreated, "Ada"},
		{"default name", `{"score":3}`, http.StatusCreated, "You"},
		{"long name truncated", `{"name":"Maximilianus Rex","score":3}`, http.StatusCreated, "Maximilianus"},
		{"missing score", `{"name":"Ada"}`, http.StatusBadRequest, ""},
		{"negative score", `{"name":"Ada","score":-1}`, http.StatusBadRequest, ""},
		{"invalid json", `{"name":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewLeaderboardHandler(newTestStore(t))

			req := httptest.NewRequest(http.MethodPost, "/api/leaderboard", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status != http.StatusCreated {
				var resp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
					t.Errorf("expected error body, got %q", rec.Body.String())
				}
				return
			}

			var resp scoreResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Name != tt.wantName {
				t.Errorf("name = %q, want %q", resp.Name, tt.wantName)
			}
			if resp.ID == "" {
				t.Error("expected an id")
			}
		})
	}
}

func TestLeaderboardHandler_Clear(t *testing.T) {
	s := newTestStore(t)
	handler := NewLeaderboardHandler(s)
	s.Scores().Add("Ada", 10, "")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/leaderboard", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	top, err := s.Scores().Top(5)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(top) != 0 {
		t.Errorf("expected empty leaderboard, got %d entries", len(top))
	}
}

func TestLeaderboardHandler_MethodNotAllowed(t *testing.T) {
	handler := NewLeaderboardHandler(newTestStore(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/leaderboard", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
