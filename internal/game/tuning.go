package game

// All durations are milliseconds; distances are screen pixels.
const (
	SmoothWindow       = 6
	SensitivityX       = 1.2
	SensitivityY       = 1.0
	RestDecay          = 0.02 // per tick, toward rest position when no hand is tracked
	BoundMarginX       = 60.0
	BoundMarginTop     = 120.0
	BoundMarginBottom  = 80.0
	ControlOffsetY     = 50.0 // player target sits below the hand
	PlayerLerpX        = 0.15
	PlayerLerpXBonus   = 0.03 // added as difficulty ramps in
	PlayerLerpY        = 0.12
	PlayerWidth        = 56.0
	PlayerHeight       = 120.0
	PlayerRestOffset   = 140.0 // rest y is screen height minus this
	HitboxWidthFrac    = 0.8
	HitboxHeightFrac   = 0.9
	HitboxOffsetY      = 6.0
	AnimFrameMs        = 80.0
	AnimFrames         = 6
	ManualStep         = 60.0
	CalibrationWaitMs  = 3000.0
	CalibrationMs      = 1500.0
	ReadyDelayMs       = 1200.0
	DifficultyRampMs   = 12000.0
	SpawnSpeedupDiv    = 25.0
	SpawnSpeedupCap    = 500.0
	EnemySpawnChance   = 0.92
	PowerupSpawnChance = 0.12
	EnemySpeedCap      = 2.8
	EnemyDespawnBelow  = 60.0
	PowerupDespawn     = 40.0
	PowerupRadius      = 20.0
	PowerupSpeed       = 1.6
	SwingChance        = 0.28
	SwingPeriod        = 300.0
	SwingAmplitude     = 0.7
	FrameMs            = 16.0 // velocities are expressed per 16 ms frame
	ParticleGravity    = 0.08
	ShakeDecay         = 0.6
	ShakeHit           = 14.0
	ShakeSweep         = 10.0

	ShieldGestureMs    = 2200.0
	ShieldCooldownMs   = 3000.0
	FistCooldownMs     = 400.0
	FistDamage         = 4
	HoldTriggerMs      = 2000.0
	HoldMarginY        = 60.0
	HoldUncalibrated   = 0.28 // fraction of screen height
	SpecialDamage      = 28
	SpecialCooldownMs  = 6000.0
	SpecialSlowFactor  = 0.5
	SpecialSlowMs      = 400.0
	SlowPowerupFactor  = 0.6
	SlowPowerupMs      = 4500.0
	DoublePointsMs     = 8000.0
	DeathSlowFactor    = 0.5
	DeathSlowMs        = 1500.0
	BossTeardownMs     = 1400.0
	BossBonus          = 250.0
	BossWarnMs         = 5000.0
	BossMaxHP          = 200
	BossWidth          = 420.0
	BossHeight         = 320.0
	BossStartY         = -320.0
	BossRestY          = 120.0
	BossIntroLerp      = 0.02
	BossIntroTolerance = 6.0
	BossDriftLerp      = 0.01
	Phase2Fraction     = 0.5
	Phase3Fraction     = 0.1
	VolleyEveryMs      = 1200.0
	AimedEveryMs       = 900.0
	SweepEveryMs       = 700.0
)

// Tuning holds the session parameters that may be overridden by configuration.
type Tuning struct {
	ScreenWidth     float64 `yaml:"screen_width"`
	ScreenHeight    float64 `yaml:"screen_height"`
	Lives           int     `yaml:"lives"`
	BossAfterMs     float64 `yaml:"boss_after_ms"`
	SpawnIntervalMs float64 `yaml:"spawn_interval_ms"`
	Seed            uint64  `yaml:"seed"` // 0 picks a random seed
}

// DefaultTuning returns the stock arcade settings.
func DefaultTuning() Tuning {
	return Tuning{
		ScreenWidth:     1280,
		ScreenHeight:    720,
		Lives:           3,
		BossAfterMs:     60000,
		SpawnIntervalMs: 900,
	}
}

// withDefaults fills zero fields from DefaultTuning.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.ScreenWidth <= 0 {
		t.ScreenWidth = d.ScreenWidth
	}
	if t.ScreenHeight <= 0 {
		t.ScreenHeight = d.ScreenHeight
	}
	if t.Lives <= 0 {
		t.Lives = d.Lives
	}
	if t.BossAfterMs <= 0 {
		t.BossAfterMs = d.BossAfterMs
	}
	if t.SpawnIntervalMs <= 0 {
		t.SpawnIntervalMs = d.SpawnIntervalMs
	}
	return t
}
