package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/ayusman/stickman/internal/detector"
	"github.com/ayusman/stickman/internal/gesture"
)

// MaxTickMs caps the physics step of a single tick so a stalled loop does
// not teleport entities. Timers still see the full elapsed time.
const MaxTickMs = 250.0

// Phase is the top-level state of a session.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseCalibrating Phase = "calibrating"
	PhasePlaying     Phase = "playing"
	PhaseGameOver    Phase = "game-over"
)

// Command is a manual override delivered outside the tracker feed.
type Command string

const (
	CommandMoveLeft  Command = "move-left"
	CommandMoveRight Command = "move-right"
	CommandShield    Command = "shield"
)

// ErrUnknownCommand is returned by ParseCommand for unrecognised input.
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand validates a command name.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandMoveLeft, CommandMoveRight, CommandShield:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Session is one player's game: calibration, play, boss encounter and game
// over. It is not safe for concurrent use; a single loop goroutine owns it.
type Session struct {
	id     string
	tuning Tuning
	phase  Phase
	rng    *rand.Rand

	smoother    *Smoother
	calibration Calibration

	player Player
	boss   *Boss
	world  World

	score         float64
	elapsed       float64
	difficulty    float64
	clock         float64
	spawnTimer    float64
	spawnInterval float64
	slowFactor    float64
	slowRemaining float64
	shake         float64

	bossWarned  bool
	bossStarted bool

	readyRemaining float64
	finalScore     int

	control    Vec2
	hasControl bool
	handCount  int

	pending []Event
}

// NewSession creates an idle session with the given tuning. Zero tuning
// fields take their defaults.
func NewSession(t Tuning) *Session {
	t = t.withDefaults()
	seed := t.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	s := &Session{
		id:       uuid.NewString(),
		tuning:   t,
		phase:    PhaseIdle,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		smoother: NewSmoother(t.ScreenWidth, t.ScreenHeight),
	}
	s.Reset()
	return s
}

// ID returns the identifier of the current play-through. It changes every
// time play starts.
func (s *Session) ID() string { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Score returns the running score truncated to whole points.
func (s *Session) Score() int { return int(s.score) }

// FinalScore returns the score recorded at the last game over.
func (s *Session) FinalScore() int { return s.finalScore }

// Player returns a copy of the player state.
func (s *Session) Player() Player { return s.player }

// Tuning returns the effective tuning.
func (s *Session) Tuning() Tuning { return s.tuning }

// Restarting reports whether a get-ready countdown is pending.
func (s *Session) Restarting() bool { return s.readyRemaining > 0 }

// BeginCalibration starts the calibration procedure. The tick loop keeps
// running; play begins once sampling completes.
func (s *Session) BeginCalibration() {
	s.readyRemaining = 0
	s.phase = PhaseCalibrating
	s.calibration.Begin()
	s.smoother.Reset()
}

// Restart schedules a new play-through after a short get-ready delay,
// reusing the existing calibration. Only a finished game can be restarted.
func (s *Session) Restart() bool {
	if s.phase != PhaseGameOver || s.readyRemaining > 0 {
		return false
	}
	s.readyRemaining = ReadyDelayMs
	return true
}

// Reset returns all play state to its initial values. The phase and the
// calibration are left untouched.
func (s *Session) Reset() {
	w, h := s.tuning.ScreenWidth, s.tuning.ScreenHeight

	s.world.Clear()
	s.boss = nil
	s.bossWarned = false
	s.bossStarted = false
	s.player = newPlayer(w, h, s.tuning.Lives)
	s.score = 0
	s.elapsed = 0
	s.difficulty = 0
	s.spawnTimer = 0
	s.spawnInterval = s.tuning.SpawnIntervalMs
	s.slowFactor = 1
	s.slowRemaining = 0
	s.shake = 0
	s.control = Vec2{}
	s.hasControl = false
	s.smoother.Reset()
}

// Apply executes a manual override. Commands are ignored outside play.
func (s *Session) Apply(cmd Command) bool {
	if s.phase != PhasePlaying || s.readyRemaining > 0 {
		return false
	}

	p := &s.player
	switch cmd {
	case CommandMoveLeft:
		p.TargetX = clamp(p.TargetX-ManualStep, BoundMarginX, s.tuning.ScreenWidth-BoundMarginX)
	case CommandMoveRight:
		p.TargetX = clamp(p.TargetX+ManualStep, BoundMarginX, s.tuning.ScreenWidth-BoundMarginX)
	case CommandShield:
		if !p.activateShield() {
			return false
		}
		s.emit(Event{Kind: EventShieldRaised})
	default:
		return false
	}
	return true
}

// Tick advances the session by dtRaw wall-clock milliseconds using the
// latest tracker hands, and returns the events raised since the previous
// tick.
func (s *Session) Tick(dtRaw float64, hands []detector.HandLandmarks) []Event {
	dtRaw = math.Max(dtRaw, 0)
	s.clock += dtRaw
	s.handCount = len(hands)

	switch {
	case s.readyRemaining > 0:
		s.readyRemaining = countdown(s.readyRemaining, dtRaw)
		if s.readyRemaining == 0 {
			s.startPlaying()
		}
	case s.phase == PhaseCalibrating:
		if s.calibration.Observe(hands, dtRaw) {
			neutral := s.calibration.Finish(s.tuning.ScreenHeight)
			s.smoother.SetNeutral(neutral, s.calibration.NeutralScreenY)
			s.emit(Event{Kind: EventCalibrated})
			s.startPlaying()
		}
	case s.phase == PhasePlaying:
		s.step(dtRaw, hands)
	}

	events := s.pending
	s.pending = nil
	return events
}

func (s *Session) startPlaying() {
	s.Reset()
	s.id = uuid.NewString()
	s.phase = PhasePlaying
	s.emit(Event{Kind: EventSessionStart})
}

func (s *Session) emit(e Event) {
	s.pending = append(s.pending, e)
}

// step runs one frame of play. Physics uses dilated, capped time; every
// timer and the score use wall-clock time.
func (s *Session) step(dtRaw float64, hands []detector.HandLandmarks) {
	dt := math.Min(dtRaw, MaxTickMs) * s.slowFactor
	w, h := s.tuning.ScreenWidth, s.tuning.ScreenHeight
	p := &s.player

	s.elapsed += dtRaw
	s.difficulty += dtRaw
	if s.slowRemaining > 0 {
		s.slowRemaining = countdown(s.slowRemaining, dtRaw)
		if s.slowRemaining == 0 {
			s.slowFactor = 1
		}
	}
	p.tickTimers(dtRaw)

	s.scheduleBoss()

	if len(hands) > 0 {
		hand := hands[0]
		x, y := hand.WristXY()
		s.smoother.Push(Vec2{X: x, Y: y})

		if gesture.BothOpenPalms(hands) && p.activateShield() {
			s.emit(Event{Kind: EventShieldRaised})
		}
		if gesture.IsFist(&hand) && s.bossActive() && p.FistCooldown <= 0 {
			s.damageBoss(FistDamage)
			p.FistCooldown = FistCooldownMs
		}
	}

	s.control, s.hasControl = s.smoother.ControlPoint()
	if len(hands) > 0 && s.hasControl {
		p.TargetX = s.control.X
		p.TargetY = s.control.Y + ControlOffsetY
		if s.control.Y < s.holdThreshold() {
			p.HoldTimer += dtRaw
		} else {
			p.HoldTimer = 0
		}
	} else {
		p.TargetX = lerp(p.TargetX, w*0.5, RestDecay)
		p.TargetY = lerp(p.TargetY, h-PlayerRestOffset, RestDecay)
		p.HoldTimer = 0
	}

	p.X = lerp(p.X, p.TargetX, PlayerLerpX+PlayerLerpXBonus*math.Min(1, s.difficulty/DifficultyRampMs))
	p.Y = lerp(p.Y, p.TargetY, PlayerLerpY)

	if p.HoldTimer >= HoldTriggerMs && p.SpecialCooldown == 0 && s.bossActive() {
		p.HoldTimer = 0
		p.SpecialCooldown = SpecialCooldownMs
		s.damageBoss(SpecialDamage)
		s.world.burst(s.rng, p.X, p.Y-40, 28, ColorGold)
		s.slowMotion(SpecialSlowFactor, SpecialSlowMs)
		s.emit(Event{Kind: EventPower})
	}

	s.spawnTimer += dtRaw
	if s.spawnTimer > s.spawnInterval-math.Min(SpawnSpeedupCap, s.difficulty/SpawnSpeedupDiv) {
		s.spawnTimer = 0
		if s.boss == nil && s.rng.Float64() < EnemySpawnChance {
			s.world.spawnEnemy(s.rng, w, s.difficulty)
		}
		if s.boss == nil && s.rng.Float64() < PowerupSpawnChance {
			s.world.spawnPowerup(s.rng, w)
		}
	}

	s.updateEnemies(dt)
	if s.phase != PhasePlaying {
		return
	}
	s.updatePowerups(dt)
	s.updateBoss(dt, dtRaw)
	s.world.updateParticles(dt)

	mult := 1.0
	if p.DoublePoints {
		mult = 2
	}
	s.score += dtRaw / 1000 * mult
	s.shake = math.Max(0, s.shake-ShakeDecay)
}

// scheduleBoss raises the warning and then starts the single encounter of a
// play-through once elapsed time crosses the threshold.
func (s *Session) scheduleBoss() {
	if s.bossStarted {
		return
	}
	if !s.bossWarned && s.elapsed >= s.tuning.BossAfterMs-BossWarnMs {
		s.bossWarned = true
		s.emit(Event{Kind: EventBossWarning})
	}
	if s.elapsed >= s.tuning.BossAfterMs {
		s.bossStarted = true
		s.boss = newBoss(s.tuning.ScreenWidth)
		s.emit(Event{Kind: EventBossRoar})
	}
}

func (s *Session) holdThreshold() float64 {
	if s.smoother.Calibrated() {
		return s.smoother.NeutralScreenY() - HoldMarginY
	}
	return s.tuning.ScreenHeight * HoldUncalibrated
}

func (s *Session) bossActive() bool {
	return s.boss != nil && s.boss.State == BossActive
}

func (s *Session) damageBoss(d int) {
	b := s.boss
	if b == nil {
		return
	}
	killed := b.takeDamage(d)
	s.world.burst(s.rng, b.X, b.Y, 12, ColorBoss)
	s.emit(Event{Kind: EventHit})
	if killed {
		s.world.burst(s.rng, b.X, b.Y, 60, ColorGold)
		s.slowMotion(DeathSlowFactor, DeathSlowMs)
	}
}

// slowMotion dilates physics time by factor for ms of wall-clock time. A
// newer effect replaces an older one.
func (s *Session) slowMotion(factor, ms float64) {
	s.slowFactor = factor
	s.slowRemaining = ms
}

func (s *Session) updateEnemies(dt float64) {
	h := s.tuning.ScreenHeight
	hitbox := s.player.Hitbox()

	kept := s.world.Enemies[:0]
	for _, e := range s.world.Enemies {
		e.Y += e.VY * (dt / FrameMs)
		if e.Swing {
			e.X += math.Sin((s.clock+e.Seed)/SwingPeriod) * SwingAmplitude
		}
		if CircleHitsRect(e.X, e.Y, e.R, hitbox) {
			s.enemyHit()
			continue
		}
		if e.Y > h+EnemyDespawnBelow {
			continue
		}
		kept = append(kept, e)
	}
	s.world.Enemies = kept
}

// enemyHit resolves a collision. An active shield absorbs exactly one hit
// and then cools down, so further hits in the same tick cost lives.
func (s *Session) enemyHit() {
	p := &s.player
	if p.ShieldActive {
		p.consumeShield()
		s.world.burst(s.rng, p.X, p.Y-30, 10, ColorDeflect)
		s.emit(Event{Kind: EventPower})
		return
	}
	if s.phase != PhasePlaying {
		return
	}

	out := p.loseLife()
	s.world.burst(s.rng, p.X, p.Y-20, 16, ColorHit)
	s.emit(Event{Kind: EventHit})
	s.shake = ShakeHit
	if out {
		s.gameOver()
	}
}

func (s *Session) gameOver() {
	s.phase = PhaseGameOver
	s.finalScore = int(s.score)
	s.emit(Event{Kind: EventGameOver, Score: s.finalScore})
}

func (s *Session) updatePowerups(dt float64) {
	h := s.tuning.ScreenHeight
	hitbox := s.player.Hitbox()

	kept := s.world.Powerups[:0]
	for _, pu := range s.world.Powerups {
		pu.Y += pu.VY * (dt / FrameMs)
		pu.Age += dt
		if CircleHitsRect(pu.X, pu.Y, PowerupRadius, hitbox) {
			s.emit(Event{Kind: pu.Kind.apply(s)})
			continue
		}
		if pu.Y > h+PowerupDespawn {
			continue
		}
		kept = append(kept, pu)
	}
	s.world.Powerups = kept
}

func (s *Session) updateBoss(dt, dtRaw float64) {
	b := s.boss
	if b == nil {
		return
	}

	activated, attack := b.update(&s.world, s.rng, dt, s.tuning.ScreenWidth, s.player.X)
	if activated {
		s.emit(Event{Kind: EventBossActive})
	}
	if attack != nil {
		s.emit(Event{Kind: EventBossAttack, Phase: attack.phase})
		if attack.shake {
			s.shake = ShakeSweep
		}
	}

	if b.tickTeardown(dtRaw) {
		s.score += BossBonus
		s.boss = nil
		s.emit(Event{Kind: EventBossDefeated, Score: int(s.score)})
	}
}
