// Package tray provides a system tray menu for starting rounds, muting sound
// and opening the leaderboard.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/stickman/internal/game"
)

// Tray represents the system tray application.
type Tray struct {
	onStart       func()
	onRestart     func()
	onMute        func(muted bool)
	onLeaderboard func()
	onQuit        func()
	muted         bool
	mu            sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuMute   *systray.MenuItem
	lastStatus string
}

// New creates a new Tray instance.
func New(muted bool) *Tray {
	return &Tray{muted: muted}
}

// OnStart sets the callback for the Start menu item.
func (t *Tray) OnStart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStart = fn
}

// OnRestart sets the callback for the Restart menu item.
func (t *Tray) OnRestart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRestart = fn
}

// OnMute sets the callback called with the new state when mute is toggled.
func (t *Tray) OnMute(fn func(muted bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMute = fn
}

// OnLeaderboard sets the callback for the Leaderboard menu item.
func (t *Tray) OnLeaderboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onLeaderboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Stickman")
	systray.SetTooltip("Stickman gesture arcade")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(statusLine(game.Snapshot{Phase: game.PhaseIdle}), "Current round")
	t.menuStatus.Disable()
	systray.AddSeparator()

	menuStart := systray.AddMenuItem("Start", "Calibrate and start a round")
	menuRestart := systray.AddMenuItem("Restart", "Start a new round after game over")
	systray.AddSeparator()

	t.menuMute = systray.AddMenuItemCheckbox("Mute", "Toggle sound", t.muted)
	menuBoard := systray.AddMenuItem("Leaderboard...", "Show the leaderboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Stickman")
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-menuStart.ClickedCh:
				t.fire(func() func() { return t.onStart })
			case <-menuRestart.ClickedCh:
				t.fire(func() func() { return t.onRestart })
			case <-t.menuMute.ClickedCh:
				t.handleMute()
			case <-menuBoard.ClickedCh:
				t.fire(func() func() { return t.onLeaderboard })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// fire runs the callback chosen under the read lock, outside it.
func (t *Tray) fire(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleMute flips the mute state and reports it.
func (t *Tray) handleMute() {
	t.mu.Lock()
	t.muted = !t.muted
	muted := t.muted

	if t.menuMute != nil {
		if muted {
			t.menuMute.Check()
		} else {
			t.menuMute.Uncheck()
		}
	}

	callback := t.onMute
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(muted)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Publish updates the status line when the phase or score changes. It
// implements the app's sink interface.
func (t *Tray) Publish(snap game.Snapshot, _ []game.Event) {
	line := statusLine(snap)

	t.mu.Lock()
	defer t.mu.Unlock()
	if line == t.lastStatus {
		return
	}
	t.lastStatus = line
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(line)
	}
}

// IsMuted returns the current mute state.
func (t *Tray) IsMuted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.muted
}

func statusLine(snap game.Snapshot) string {
	switch snap.Phase {
	case game.PhaseCalibrating:
		return "Calibrating..."
	case game.PhasePlaying:
		return fmt.Sprintf("Playing: %d pts, %d lives", snap.Score, snap.Lives)
	case game.PhaseGameOver:
		return fmt.Sprintf("Game over: %d pts", snap.Score)
	default:
		return "Idle"
	}
}
