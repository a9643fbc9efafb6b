package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/stickman/internal/game"
)

type mockControls struct {
	mock.Mock
}

func (m *mockControls) StartSession() error { return m.Called().Error(0) }
func (m *mockControls) Restart() error { return m.Called().Error(0) }
func (m *mockControls) Control(cmd game.Command) error {
	return m.Called(cmd).Error(0)
}

// newControls accepts every call.
func newControls() *mockControls {
	m := &mockControls{}
	m.On("StartSession").Return(nil).Maybe()
	m.On("Restart").Return(nil).Maybe()
	m.On("Control", mock.Anything).Return(nil).Maybe()
	return m
}

// actions lists the calls made so far as command names.
func (m *mockControls) actions() []string {
	var out []string
	for _, c := range m.Calls {
		switch c.Method {
		case "StartSession":
			out = append(out, "start")
		case "Restart":
			out = append(out, "restart")
		case "Control":
			out = append(out, string(c.Arguments.Get(0).(game.Command)))
		}
	}
	return out
}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	return screen
}

func rowText(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		mainc, _, _, _ := s.GetContent(x, y)
		if mainc == 0 {
			mainc = ' '
		}
		b.WriteRune(mainc)
	}
	return b.String()
}

func screenText(s tcell.Screen) string {
	_, h := s.Size()
	rows := make([]string, h)
	for y := range rows {
		rows[y] = rowText(s, y)
	}
	return strings.Join(rows, "\n")
}

func TestUI_HandleKey(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want []string
		quit bool
	}{
		{"left arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), []string{"move-left"}, false},
		{"right arrow", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), []string{"move-right"}, false},
		{"a", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), []string{"move-left"}, false},
		{"d", tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone), []string{"move-right"}, false},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), []string{"shield"}, false},
		{"s", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), []string{"start"}, false},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), []string{"start"}, false},
		{"r", tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), []string{"restart"}, false},
		{"unbound", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), nil, false},
		{"q", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), nil, true},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), nil, true},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newControls()
			u := New(newScreen(t), ctl)

			assert.Equal(t, tt.quit, u.handleKey(tt.ev))
			assert.Equal(t, tt.want, ctl.actions())
		})
	}
}

func TestUI_RejectedKeyShowsStatus(t *testing.T) {
	screen := newScreen(t)
	ctl := &mockControls{}
	ctl.On("StartSession").Return(errors.New("session is not idle")).Once()
	ctl.On("StartSession").Return(nil)
	u := New(screen, ctl)

	u.handleKey(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	u.draw()
	assert.Contains(t, rowText(screen, 23), "session is not idle")

	u.handleKey(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	u.draw()
	assert.NotContains(t, rowText(screen, 23), "session is not idle")
	ctl.AssertNumberOfCalls(t, "StartSession", 2)
}

func TestUI_Mute(t *testing.T) {
	screen := newScreen(t)
	u := New(screen, newControls())
	muted := false
	u.OnMute(func() (bool, error) {
		muted = !muted
		return muted, nil
	})

	u.Publish(game.Snapshot{Phase: game.PhasePlaying, Width: 1280, Height: 720, Lives: 3}, nil)
	u.handleKey(tcell.NewEventKey(tcell.KeyRune, 'm', tcell.ModNone))
	u.draw()
	assert.Contains(t, rowText(screen, 0), "[muted]")

	u.handleKey(tcell.NewEventKey(tcell.KeyRune, 'm', tcell.ModNone))
	u.draw()
	assert.NotContains(t, rowText(screen, 0), "[muted]")
}

func TestUI_DrawPlaying(t *testing.T) {
	screen := newScreen(t)
	u := New(screen, newControls())

	snap := game.Snapshot{
		Phase:    game.PhasePlaying,
		Width:    800,
		Height:   220,
		Score:    42,
		Lives:    2,
		Shield:   game.ShieldReady,
		BossInMs: 30500,
		Player:   game.Player{X: 400, Y: 150, ShieldActive: true},
		Enemies:  []game.Enemy{{X: 100, Y: 20, R: 20}},
		Powerups: []game.Powerup{{X: 700, Y: 40, Kind: game.PowerupLife}},
	}
	u.Publish(snap, nil)
	u.draw()

	hudRow := rowText(screen, 0)
	assert.Contains(t, hudRow, "Score 42")
	assert.Contains(t, hudRow, "Lives ♥♥")
	assert.Contains(t, hudRow, "Boss in 30s")

	// Field is 80x22 starting at row 1: world x/10, row 1+y/10.
	mainc, _, _, _ := screen.GetContent(10, 3)
	assert.Equal(t, 'O', mainc, "enemy")
	mainc, _, _, _ = screen.GetContent(70, 5)
	assert.Equal(t, '+', mainc, "life powerup")
	mainc, _, _, _ = screen.GetContent(40, 15)
	assert.Equal(t, 'o', mainc, "player head")
	mainc, _, _, _ = screen.GetContent(40, 16)
	assert.Equal(t, '|', mainc, "player body")
	mainc, _, _, _ = screen.GetContent(38, 16)
	assert.Equal(t, '(', mainc, "shield")

	assert.Contains(t, rowText(screen, 23), "space shield")
}

func TestField_At(t *testing.T) {
	f := field{w: 80, h: 22, top: 1, sx: 800, sy: 220}
	tests := []struct {
		x, y         float64
		wantX, wantY int
	}{
		{0, 0, 0, 1},
		{400, 150, 40, 16},
		{100, 20, 10, 3},
		{700, 40, 70, 5},
		{799, 219, 79, 22},
	}
	for _, tt := range tests {
		x, y := f.at(tt.x, tt.y)
		assert.Equal(t, tt.wantX, x, "x for (%v, %v)", tt.x, tt.y)
		assert.Equal(t, tt.wantY, y, "y for (%v, %v)", tt.x, tt.y)
	}
}

func TestUI_DrawBoss(t *testing.T) {
	screen := newScreen(t)
	u := New(screen, newControls())

	u.Publish(game.Snapshot{
		Phase:  game.PhasePlaying,
		Width:  800,
		Height: 220,
		Boss:   &game.Boss{X: 400, Y: 50, W: 100, H: 40, HP: 100, MaxHP: 200, Phase: 2, State: game.BossActive},
	}, []game.Event{{Kind: game.EventBossWarning}})
	u.draw()

	assert.Contains(t, rowText(screen, 0), "Boss █████░░░░░ P2")
	mainc, _, _, _ := screen.GetContent(40, 6)
	assert.Equal(t, '#', mainc)
	assert.Contains(t, screenText(screen), "BOSS INCOMING")
}

func TestUI_DrawPhases(t *testing.T) {
	tests := []struct {
		name string
		snap game.Snapshot
		want string
	}{
		{"no frame yet", game.Snapshot{}, "Press S to start"},
		{"idle", game.Snapshot{Phase: game.PhaseIdle, Width: 1280, Height: 720}, "Press S to start"},
		{"waiting for hand", game.Snapshot{Phase: game.PhaseCalibrating, Width: 1280, Height: 720, CalWaiting: true}, "Show your hand"},
		{"calibrating", game.Snapshot{Phase: game.PhaseCalibrating, Width: 1280, Height: 720, CalProgress: 0.5}, "Calibrating... 50%"},
		{"game over", game.Snapshot{Phase: game.PhaseGameOver, Width: 1280, Height: 720, Score: 99}, "GAME OVER  score 99"},
		{"restarting", game.Snapshot{Phase: game.PhaseGameOver, Width: 1280, Height: 720, Restarting: true}, "Get ready..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newScreen(t)
			u := New(screen, newControls())
			if tt.name != "no frame yet" {
				u.Publish(tt.snap, nil)
			}
			u.draw()
			assert.Contains(t, screenText(screen), tt.want)
		})
	}
}

func TestUI_DrawTooSmall(t *testing.T) {
	screen := newScreen(t)
	screen.SetSize(10, 4)
	u := New(screen, newControls())

	u.draw()
	assert.Contains(t, rowText(screen, 0), "terminal t")
}

func TestUI_Run(t *testing.T) {
	t.Run("quits on q", func(t *testing.T) {
		screen := newScreen(t)
		ctl := newControls()
		u := New(screen, ctl)

		done := make(chan error, 1)
		go func() { done <- u.Run(context.Background()) }()

		screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
		screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after q")
		}
		assert.Equal(t, []string{"start"}, ctl.actions())
	})

	t.Run("stops with the context", func(t *testing.T) {
		u := New(newScreen(t), newControls())
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- u.Run(ctx) }()
		u.Publish(game.Snapshot{Phase: game.PhaseIdle, Width: 1280, Height: 720}, nil)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}
