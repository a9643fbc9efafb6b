package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/stickman/internal/app"
	"github.com/ayusman/stickman/internal/capture"
	"github.com/ayusman/stickman/internal/detector"
	"github.com/ayusman/stickman/internal/game"
	"github.com/ayusman/stickman/internal/server"
	"github.com/ayusman/stickman/internal/store"
)

type frame struct {
	Snapshot game.Snapshot `json:"snapshot"`
	Events   []game.Event  `json:"events"`
}

// readUntil reads stream frames until match returns true or the deadline
// passes.
func readUntil(t *testing.T, conn *websocket.Conn, timeout time.Duration, match func(frame) bool) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("stream read error = %v", err)
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("failed to decode frame: %v", err)
		}
		if match(f) {
			return f
		}
	}
}

func hasEvent(f frame, kind game.EventKind) bool {
	for _, ev := range f.Events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func post(t *testing.T, client *http.Client, url, body string) int {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// A small, crowded field so a still player is hit quickly.
	tuning := game.DefaultTuning()
	tuning.ScreenWidth = 400
	tuning.ScreenHeight = 400
	tuning.Lives = 1
	tuning.SpawnIntervalMs = 40
	tuning.Seed = 3

	application := app.New(app.Config{
		Store:      s,
		PluginDir:  filepath.Join(tmpDir, "plugins"),
		Tuning:     tuning,
		PlayerName: "E2E",
	})
	application.SetCamera(capture.NewMockCamera())
	tracker := detector.NewMockDetector()
	tracker.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	application.SetDetector(tracker)

	hub := server.NewHub()
	application.AddSink(hub)

	srv := server.New(server.Config{
		Store:      s,
		Controller: application,
		Hub:        hub,
		Feed:       application.Feed(),
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	defer srv.Shutdown(t.Context())

	if err := application.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer application.Stop()

	client := ts.Client()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/stream", nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	resp.Body.Close()
	defer conn.Close()

	t.Run("Idle", func(t *testing.T) {
		f := readUntil(t, conn, 2*time.Second, func(frame) bool { return true })
		if f.Snapshot.Phase != game.PhaseIdle {
			t.Errorf("phase = %s, want idle", f.Snapshot.Phase)
		}
		if status := post(t, client, ts.URL+"/api/control", `{"command":"shield"}`); status != http.StatusConflict {
			t.Errorf("control while idle status = %d, want %d", status, http.StatusConflict)
		}
	})

	t.Run("Calibrate", func(t *testing.T) {
		if status := post(t, client, ts.URL+"/api/session/start", ""); status != http.StatusAccepted {
			t.Fatalf("start status = %d, want %d", status, http.StatusAccepted)
		}
		if status := post(t, client, ts.URL+"/api/session/start", ""); status != http.StatusConflict {
			t.Errorf("second start status = %d, want %d", status, http.StatusConflict)
		}

		f := readUntil(t, conn, 5*time.Second, func(f frame) bool { return hasEvent(f, game.EventCalibrated) })
		if f.Snapshot.Phase != game.PhasePlaying {
			t.Errorf("phase after calibration = %s, want playing", f.Snapshot.Phase)
		}
	})

	t.Run("ManualOverride", func(t *testing.T) {
		if status := post(t, client, ts.URL+"/api/control", `{"command":"move-left"}`); status != http.StatusNoContent {
			t.Errorf("control status = %d, want %d", status, http.StatusNoContent)
		}
		if status := post(t, client, ts.URL+"/api/control", `{"command":"jump"}`); status != http.StatusBadRequest {
			t.Errorf("unknown command status = %d, want %d", status, http.StatusBadRequest)
		}
	})

	var final int
	t.Run("GameOver", func(t *testing.T) {
		f := readUntil(t, conn, 20*time.Second, func(f frame) bool { return hasEvent(f, game.EventGameOver) })
		if f.Snapshot.Phase != game.PhaseGameOver {
			t.Errorf("phase = %s, want game-over", f.Snapshot.Phase)
		}
		for _, ev := range f.Events {
			if ev.Kind == game.EventGameOver {
				final = ev.Score
			}
		}
		if f.Snapshot.Score != final {
			t.Errorf("snapshot score = %d, event score = %d", f.Snapshot.Score, final)
		}
	})

	t.Run("ScoreRecorded", func(t *testing.T) {
		deadline := time.Now().Add(2 * time.Second)
		for {
			resp, err := client.Get(ts.URL + "/api/leaderboard")
			if err != nil {
				t.Fatalf("GET leaderboard error = %v", err)
			}
			var board struct {
				Scores []struct {
					Name  string `json:"name"`
					Score int    `json:"score"`
				} `json:"scores"`
			}
			json.NewDecoder(resp.Body).Decode(&board)
			resp.Body.Close()

			if len(board.Scores) == 1 {
				if board.Scores[0].Name != "E2E" || board.Scores[0].Score != final {
					t.Errorf("recorded %+v, want E2E/%d", board.Scores[0], final)
				}
				return
			}
			if time.Now().After(deadline) {
				t.Fatalf("score not recorded, leaderboard = %+v", board.Scores)
			}
			time.Sleep(20 * time.Millisecond)
		}
	})

	t.Run("Restart", func(t *testing.T) {
		if status := post(t, client, ts.URL+"/api/session/restart", ""); status != http.StatusAccepted {
			t.Fatalf("restart status = %d, want %d", status, http.StatusAccepted)
		}
		f := readUntil(t, conn, 5*time.Second, func(f frame) bool { return f.Snapshot.Phase == game.PhasePlaying })
		if f.Snapshot.Score != 0 {
			t.Errorf("score after restart = %d, want 0", f.Snapshot.Score)
		}
	})
}
