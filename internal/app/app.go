// Package app drives the game: it owns the session tick loop, runs the
// capture pipeline that feeds it hands, and fans snapshots and events out to
// the presentation sinks, hooks and the leaderboard.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/stickman/internal/capture"
	"github.com/ayusman/stickman/internal/detector"
	"github.com/ayusman/stickman/internal/game"
	"github.com/ayusman/stickman/internal/plugin"
	"github.com/ayusman/stickman/internal/store"
)

// Loop defaults.
const (
	DefaultTickRate     = 60
	DefaultHookTimeout  = 5 * time.Second
	DefaultMotionThresh = 1.0 // percent of pixels
	IdleAfterFrames     = 60
	requestQueueSize    = 16
)

var (
	// ErrAlreadyRunning is returned by Start when the loop is already live.
	ErrAlreadyRunning = errors.New("app is already running")
	// ErrNotRunning is returned when a command is sent before Start.
	ErrNotRunning = errors.New("app is not running")
	// ErrNotIdle is returned when a session is started while one is in
	// progress.
	ErrNotIdle = errors.New("a session is already in progress")
	// ErrRejected is returned when the session ignores a command, for
	// instance a move outside play.
	ErrRejected = errors.New("command rejected in current phase")
)

// Config holds the application wiring.
type Config struct {
	Store        *store.Store
	PluginDir    string
	Camera       capture.Config
	Detector     detector.Config
	Tuning       game.Tuning
	TickRate     int
	MotionThresh float64
	PlayerName   string
	HookTimeout  time.Duration
}

// Sink receives every tick's snapshot and events. Publish is called on the
// loop goroutine and must not block.
type Sink interface {
	Publish(snap game.Snapshot, events []game.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(game.Snapshot, []game.Event)

func (f SinkFunc) Publish(snap game.Snapshot, events []game.Event) { f(snap, events) }

type requestKind int

const (
	reqCalibrate requestKind = iota
	reqRestart
	reqControl
)

type request struct {
	kind  requestKind
	cmd   game.Command
	reply chan error
}

// App is the main application.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	governor   *capture.RateGovernor
	detector   detector.Detector
	feed       *capture.Feed
	preview    *capture.Preview
	session    *game.Session
	hooks      *plugin.Manager
	dispatcher *plugin.Dispatcher
	requests   chan request

	mu       sync.RWMutex
	sinks    []Sink
	last     game.Snapshot
	stopCh   chan struct{}
	pipeStop chan struct{}
	loopDone chan struct{}
	pipeDone chan struct{}

	bg sync.WaitGroup
}

// New creates an App. The tracker prefers MediaPipe and falls back to a
// detector that never sees hands, which leaves manual controls usable.
func New(config Config) *App {
	if config.TickRate <= 0 {
		config.TickRate = DefaultTickRate
	}
	if config.MotionThresh <= 0 {
		config.MotionThresh = DefaultMotionThresh
	}
	if config.HookTimeout <= 0 {
		config.HookTimeout = DefaultHookTimeout
	}
	if config.Camera.FPS <= 0 {
		config.Camera.FPS = capture.DefaultFPS
	}

	hooks := plugin.NewManager(config.PluginDir)
	session := game.NewSession(config.Tuning)

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.Camera),
		motion:     capture.NewMotionDetector(config.MotionThresh),
		governor:   capture.NewRateGovernor(config.Camera.FPS, capture.IdleFPS, IdleAfterFrames),
		feed:       capture.NewFeed(capture.DefaultMaxAge),
		preview:    capture.NewPreview(),
		session:    session,
		hooks:      hooks,
		dispatcher: plugin.NewDispatcher(hooks, plugin.NewExecutor(config.HookTimeout)),
		requests:   make(chan request, requestQueueSize),
		last:       session.Snapshot(),
	}

	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		log.Info().Msg("using MediaPipe hand tracking")
	} else {
		log.Warn().Err(err).Msg("MediaPipe not available, hand tracking disabled")
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetCamera replaces the frame source. Call before StartSession.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector replaces the hand tracker. Call before StartSession.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// AddSink registers a presentation sink.
func (a *App) AddSink(s Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sinks = append(a.sinks, s)
}

// DiscoverPlugins scans the hooks directory.
func (a *App) DiscoverPlugins() error {
	return a.hooks.Discover()
}

// Start launches the tick loop. The session stays Idle until StartSession.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return ErrAlreadyRunning
	}
	a.stopCh = make(chan struct{})
	a.loopDone = make(chan struct{})
	go a.runLoop(a.stopCh, a.loopDone)

	log.Info().Int("tick_rate", a.config.TickRate).Msg("game loop started")
	return nil
}

// StartSession opens the camera and begins calibration. When the camera
// cannot be opened the error is returned and the session stays Idle.
func (a *App) StartSession() error {
	phase := a.Snapshot().Phase
	if phase == game.PhaseCalibrating || phase == game.PhasePlaying {
		return ErrNotIdle
	}
	if err := a.startPipeline(); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return a.do(request{kind: reqCalibrate})
}

// Restart begins a new play-through with the existing calibration.
func (a *App) Restart() error {
	return a.do(request{kind: reqRestart})
}

// Control forwards a manual override to the session.
func (a *App) Control(cmd game.Command) error {
	return a.do(request{kind: reqControl, cmd: cmd})
}

// Stop halts the loop and the pipeline, releases the camera and tracker and
// waits for running hooks.
func (a *App) Stop() {
	a.stopPipeline()

	a.mu.Lock()
	stop, done := a.stopCh, a.loopDone
	a.stopCh, a.loopDone = nil, nil
	a.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	a.motion.Close()
	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing detector")
		}
	}

	a.bg.Wait()
	a.dispatcher.Wait()
	log.Info().Msg("game loop stopped")
}

// Snapshot returns the state published by the most recent tick.
func (a *App) Snapshot() game.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Running reports whether the tick loop is live.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Feed returns the tracker feed.
func (a *App) Feed() *capture.Feed {
	return a.feed
}

// Preview returns the encoded camera preview.
func (a *App) Preview() *capture.Preview {
	return a.preview
}

// Camera returns the frame source.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the hand tracker.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// PluginManager returns the hook manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.hooks
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// PlayerName returns the name used for automatic leaderboard entries: the
// saved setting, then the configured name, then the default.
func (a *App) PlayerName() string {
	if st := a.config.Store; st != nil {
		if name, err := st.Settings().Get(store.SettingPlayerName); err == nil && name != "" {
			return store.NormalizeName(name)
		}
	}
	return store.NormalizeName(a.config.PlayerName)
}

// do hands a request to the loop and waits for its answer.
func (a *App) do(r request) error {
	a.mu.RLock()
	stop := a.stopCh
	a.mu.RUnlock()
	if stop == nil {
		return ErrNotRunning
	}

	r.reply = make(chan error, 1)
	select {
	case a.requests <- r:
	case <-stop:
		return ErrNotRunning
	}

	select {
	case err := <-r.reply:
		return err
	case <-stop:
		return ErrNotRunning
	}
}

func (a *App) handle(r request) error {
	switch r.kind {
	case reqCalibrate:
		switch a.session.Phase() {
		case game.PhaseCalibrating, game.PhasePlaying:
			return ErrNotIdle
		}
		a.session.BeginCalibration()
		log.Info().Msg("calibration started")
	case reqRestart:
		if !a.session.Restart() {
			return ErrRejected
		}
		log.Info().Msg("restart scheduled")
	case reqControl:
		if !a.session.Apply(r.cmd) {
			return ErrRejected
		}
	}
	return nil
}

// onEvents reacts to session events that reach outside the game.
func (a *App) onEvents(snap game.Snapshot, events []game.Event) {
	for _, e := range events {
		switch e.Kind {
		case game.EventSessionStart:
			log.Info().Str("session", snap.SessionID).Msg("session started")
		case game.EventCalibrated:
			log.Info().Msg("calibration complete")
		case game.EventBossRoar:
			log.Info().Str("session", snap.SessionID).Msg("boss encounter started")
		case game.EventBossDefeated:
			log.Info().Int("score", e.Score).Msg("boss defeated")
			a.dispatcher.Fire(context.Background(), plugin.Request{
				Event:     string(e.Kind),
				SessionID: snap.SessionID,
				Name:      a.PlayerName(),
				Score:     e.Score,
			})
		case game.EventGameOver:
			a.gameOver(snap.SessionID, e.Score)
		}
	}
}

func (a *App) gameOver(sessionID string, score int) {
	name := a.PlayerName()
	log.Info().Str("session", sessionID).Str("name", name).Int("score", score).Msg("game over")

	a.dispatcher.Fire(context.Background(), plugin.Request{
		Event:     string(game.EventGameOver),
		SessionID: sessionID,
		Name:      name,
		Score:     score,
	})

	if a.config.Store == nil {
		return
	}
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		if _, err := a.config.Store.Scores().Add(name, score, sessionID); err != nil {
			log.Error().Err(err).Msg("failed to record score")
		}
	}()
}
