// Package tui draws the game in a terminal and turns key presses into
// session commands.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/stickman/internal/game"
)

const (
	redrawInterval = 33 * time.Millisecond
	bannerDuration = 2 * time.Second
	helpLine       = "←/→ move  space shield  s start  r restart  m mute  q quit"
)

// Controls is the part of the app the keyboard drives.
type Controls interface {
	StartSession() error
	Restart() error
	Control(cmd game.Command) error
}

var (
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleHelp     = tcell.StyleDefault.Foreground(tcell.ColorLightGray)
	styleEnemy    = tcell.StyleDefault.Foreground(tcell.ColorRed)
	stylePlayer   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleShield   = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleBoss     = tcell.StyleDefault.Foreground(tcell.ColorPurple)
	styleParticle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Dim(true)
	styleBanner   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

var powerupGlyphs = map[game.PowerupKind]struct {
	r     rune
	style tcell.Style
}{
	game.PowerupShield: {'S', tcell.StyleDefault.Foreground(tcell.ColorAqua)},
	game.PowerupSlow:   {'Z', tcell.StyleDefault.Foreground(tcell.ColorBlue)},
	game.PowerupDouble: {'2', tcell.StyleDefault.Foreground(tcell.ColorYellow)},
	game.PowerupLife:   {'+', tcell.StyleDefault.Foreground(tcell.ColorGreen)},
}

// UI renders published snapshots on a tcell screen. It implements the app's
// sink interface.
type UI struct {
	screen tcell.Screen
	ctl    Controls

	mu         sync.Mutex
	snap       game.Snapshot
	have       bool
	banner     string
	bannerTill time.Time
	status     string
	onMute     func() (bool, error)
	muted      bool

	dirty chan struct{}
}

// New creates a UI on an initialized screen.
func New(screen tcell.Screen, ctl Controls) *UI {
	return &UI{
		screen: screen,
		ctl:    ctl,
		dirty:  make(chan struct{}, 1),
	}
}

// OnMute sets the handler for the mute key. It returns the new mute state.
func (u *UI) OnMute(fn func() (bool, error)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onMute = fn
}

// SetMuted updates the mute indicator.
func (u *UI) SetMuted(muted bool) {
	u.mu.Lock()
	u.muted = muted
	u.mu.Unlock()
	u.markDirty()
}

// Publish stores the latest frame for the next redraw.
func (u *UI) Publish(snap game.Snapshot, events []game.Event) {
	u.mu.Lock()
	u.snap = snap
	u.have = true
	for _, ev := range events {
		if msg := bannerFor(ev); msg != "" {
			u.banner = msg
			u.bannerTill = time.Now().Add(bannerDuration)
		}
	}
	u.mu.Unlock()
	u.markDirty()
}

func (u *UI) markDirty() {
	select {
	case u.dirty <- struct{}{}:
	default:
	}
}

func bannerFor(ev game.Event) string {
	switch ev.Kind {
	case game.EventCalibrated:
		return "Calibrated"
	case game.EventBossWarning:
		return "BOSS INCOMING"
	case game.EventBossDefeated:
		return fmt.Sprintf("BOSS DEFEATED  %d", ev.Score)
	case game.EventPower:
		return "Power up!"
	default:
		return ""
	}
}

// Run processes keys and redraws until quit is pressed or ctx ends. It
// finalizes the screen on return.
func (u *UI) Run(ctx context.Context) error {
	defer u.screen.Fini()
	u.screen.HideCursor()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	u.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if u.handleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				u.screen.Sync()
			}
			u.draw()
		case <-ticker.C:
			select {
			case <-u.dirty:
				u.draw()
			default:
			}
		}
	}
}

// handleKey applies a key press and reports whether the user asked to quit.
func (u *UI) handleKey(ev *tcell.EventKey) bool {
	var err error
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		err = u.ctl.Control(game.CommandMoveLeft)
	case tcell.KeyRight:
		err = u.ctl.Control(game.CommandMoveRight)
	case tcell.KeyEnter:
		err = u.ctl.StartSession()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return true
		case 'a', 'A':
			err = u.ctl.Control(game.CommandMoveLeft)
		case 'd', 'D':
			err = u.ctl.Control(game.CommandMoveRight)
		case ' ':
			err = u.ctl.Control(game.CommandShield)
		case 's', 'S':
			err = u.ctl.StartSession()
		case 'r', 'R':
			err = u.ctl.Restart()
		case 'm', 'M':
			err = u.toggleMute()
		}
	}

	u.mu.Lock()
	if err != nil {
		u.status = err.Error()
		log.Debug().Err(err).Str("key", ev.Name()).Msg("key rejected")
	} else {
		u.status = ""
	}
	u.mu.Unlock()
	return false
}

func (u *UI) toggleMute() error {
	u.mu.Lock()
	fn := u.onMute
	u.mu.Unlock()
	if fn == nil {
		return nil
	}
	muted, err := fn()
	u.SetMuted(muted)
	return err
}

// draw renders the latest snapshot.
func (u *UI) draw() {
	u.mu.Lock()
	snap, have := u.snap, u.have
	banner := u.banner
	if time.Now().After(u.bannerTill) {
		banner = ""
	}
	status, muted := u.status, u.muted
	u.mu.Unlock()

	s := u.screen
	s.Clear()
	w, h := s.Size()
	if w < 20 || h < 8 {
		drawText(s, 0, 0, "terminal too small", styleStatus)
		s.Show()
		return
	}

	drawText(s, 0, h-1, helpLine, styleHelp)
	if status != "" {
		drawText(s, w-len([]rune(status))-1, h-1, status, styleStatus)
	}

	if !have || snap.Width <= 0 || snap.Height <= 0 {
		drawCentered(s, h/2, "Press S to start", styleBanner)
		s.Show()
		return
	}

	f := field{w: w, h: h - 2, top: 1, sx: snap.Width, sy: snap.Height}

	drawText(s, 0, 0, hud(snap, muted), styleHUD)

	for _, p := range snap.Particles {
		x, y := f.at(p.X, p.Y)
		f.set(s, x, y, '·', styleParticle)
	}
	for _, p := range snap.Powerups {
		g := powerupGlyphs[p.Kind]
		x, y := f.at(p.X, p.Y)
		f.set(s, x, y, g.r, g.style)
	}
	for _, e := range snap.Enemies {
		r := 'O'
		if e.Swing {
			r = '@'
		}
		x, y := f.at(e.X, e.Y)
		f.set(s, x, y, r, styleEnemy)
	}
	if b := snap.Boss; b != nil && b.State != game.BossDead {
		x0, y0 := f.at(b.X-b.W/2, b.Y-b.H/2)
		x1, y1 := f.at(b.X+b.W/2, b.Y+b.H/2)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				f.set(s, x, y, '#', styleBoss)
			}
		}
	}
	drawPlayer(s, f, snap.Player)

	switch {
	case snap.Phase == game.PhaseIdle:
		drawCentered(s, h/2, "Press S to start", styleBanner)
	case snap.Phase == game.PhaseCalibrating && snap.CalWaiting:
		drawCentered(s, h/2, "Show your hand to the camera", styleBanner)
	case snap.Phase == game.PhaseCalibrating:
		drawCentered(s, h/2, fmt.Sprintf("Calibrating... %d%%", int(snap.CalProgress*100)), styleBanner)
	case snap.Phase == game.PhaseGameOver && snap.Restarting:
		drawCentered(s, h/2, "Get ready...", styleBanner)
	case snap.Phase == game.PhaseGameOver:
		drawCentered(s, h/2, fmt.Sprintf("GAME OVER  score %d  press R to restart", snap.Score), styleBanner)
	case banner != "":
		drawCentered(s, h/3, banner, styleBanner)
	}

	s.Show()
}

func hud(snap game.Snapshot, muted bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score %d  Lives %s  Shield %s", snap.Score, strings.Repeat("♥", max(snap.Lives, 0)), snap.Shield)
	if snap.Player.DoublePoints {
		b.WriteString("  x2")
	}
	switch {
	case snap.Boss != nil:
		fmt.Fprintf(&b, "  Boss %s P%d", bar(snap.Boss.HP, snap.Boss.MaxHP, 10), snap.Boss.Phase)
	case snap.Phase == game.PhasePlaying:
		fmt.Fprintf(&b, "  Boss in %ds", int(snap.BossInMs/1000))
	}
	if muted {
		b.WriteString("  [muted]")
	}
	return b.String()
}

func bar(v, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	n := min(max(v*width/total, 0), width)
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

// field maps world coordinates onto terminal cells.
type field struct {
	w, h, top int
	sx, sy    float64
}

func (f field) at(x, y float64) (int, int) {
	return int(x * float64(f.w) / f.sx), f.top + int(y*float64(f.h)/f.sy)
}

func (f field) set(s tcell.Screen, x, y int, r rune, style tcell.Style) {
	if x < 0 || x >= f.w || y < f.top || y >= f.top+f.h {
		return
	}
	s.SetContent(x, y, r, nil, style)
}

func drawPlayer(s tcell.Screen, f field, p game.Player) {
	x, y := f.at(p.X, p.Y)
	f.set(s, x, y-1, 'o', stylePlayer)
	f.set(s, x-1, y, '/', stylePlayer)
	f.set(s, x, y, '|', stylePlayer)
	f.set(s, x+1, y, '\\', stylePlayer)
	f.set(s, x-1, y+1, '/', stylePlayer)
	f.set(s, x+1, y+1, '\\', stylePlayer)
	if p.ShieldActive {
		f.set(s, x-2, y, '(', styleShield)
		f.set(s, x+2, y, ')', styleShield)
	}
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func drawCentered(s tcell.Screen, y int, text string, style tcell.Style) {
	w, _ := s.Size()
	drawText(s, max((w-len([]rune(text)))/2, 0), y, text, style)
}
