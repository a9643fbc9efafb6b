package game

import "math"

// Snapshot is a read-only copy of everything a presentation layer draws.
type Snapshot struct {
	SessionID string  `json:"sessionId" msgpack:"sessionId"`
	Phase     Phase   `json:"phase" msgpack:"phase"`
	Width     float64 `json:"width" msgpack:"width"`
	Height    float64 `json:"height" msgpack:"height"`

	Score      int         `json:"score" msgpack:"score"`
	Lives      int         `json:"lives" msgpack:"lives"`
	Shield     ShieldState `json:"shield" msgpack:"shield"`
	BossInMs   float64     `json:"bossInMs" msgpack:"bossInMs"`
	SlowFactor float64     `json:"slowFactor" msgpack:"slowFactor"`
	Shake      float64     `json:"shake" msgpack:"shake"`
	Restarting bool        `json:"restarting" msgpack:"restarting"`

	Player    Player     `json:"player" msgpack:"player"`
	Boss      *Boss      `json:"boss,omitempty" msgpack:"boss,omitempty"`
	Enemies   []Enemy    `json:"enemies" msgpack:"enemies"`
	Powerups  []Powerup  `json:"powerups" msgpack:"powerups"`
	Particles []Particle `json:"particles" msgpack:"particles"`

	Control     Vec2    `json:"control" msgpack:"control"`
	HasControl  bool    `json:"hasControl" msgpack:"hasControl"`
	Hands       int     `json:"hands" msgpack:"hands"`
	Calibrating bool    `json:"calibrating" msgpack:"calibrating"`
	CalProgress float64 `json:"calibrationProgress" msgpack:"calibrationProgress"`
	CalWaiting  bool    `json:"calibrationWaiting" msgpack:"calibrationWaiting"`
}

// Snapshot copies the current state. The returned slices are not shared
// with the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:   s.id,
		Phase:       s.phase,
		Width:       s.tuning.ScreenWidth,
		Height:      s.tuning.ScreenHeight,
		Score:       int(s.score),
		Lives:       s.player.Lives,
		Shield:      s.player.Shield(),
		SlowFactor:  s.slowFactor,
		Shake:       s.shake,
		Restarting:  s.readyRemaining > 0,
		Player:      s.player,
		Enemies:     append([]Enemy(nil), s.world.Enemies...),
		Powerups:    append([]Powerup(nil), s.world.Powerups...),
		Particles:   append([]Particle(nil), s.world.Particles...),
		Control:     s.control,
		HasControl:  s.hasControl,
		Hands:       s.handCount,
		Calibrating: s.calibration.Active,
		CalProgress: s.calibration.Progress(),
		CalWaiting:  s.calibration.Waiting(),
	}
	if !s.bossStarted {
		snap.BossInMs = math.Max(0, s.tuning.BossAfterMs-s.elapsed)
	}
	if s.boss != nil {
		b := *s.boss
		snap.Boss = &b
	}
	return snap
}
