package game

import (
	"math"
	"math/rand/v2"
)

// BossState is the lifecycle stage of a boss encounter.
type BossState string

const (
	BossIntro  BossState = "intro"
	BossActive BossState = "active"
	BossDead   BossState = "dead"
)

// Boss is the multi-phase encounter. Phase only ever increases.
type Boss struct {
	X     float64   `json:"x" msgpack:"x"`
	Y     float64   `json:"y" msgpack:"y"`
	W     float64   `json:"w" msgpack:"w"`
	H     float64   `json:"h" msgpack:"h"`
	HP    int       `json:"hp" msgpack:"hp"`
	MaxHP int       `json:"maxHp" msgpack:"maxHp"`
	Phase int       `json:"phase" msgpack:"phase"`
	Timer float64   `json:"timer" msgpack:"timer"`
	State BossState `json:"state" msgpack:"state"`

	teardown float64
}

func newBoss(width float64) *Boss {
	return &Boss{
		X:     width * 0.5,
		Y:     BossStartY,
		W:     BossWidth,
		H:     BossHeight,
		HP:    BossMaxHP,
		MaxHP: BossMaxHP,
		Phase: 1,
		State: BossIntro,
	}
}

// phaseFor maps remaining HP to the phase it warrants.
func phaseFor(hp, maxHP int) int {
	frac := float64(hp) / float64(maxHP)
	switch {
	case frac < Phase3Fraction:
		return 3
	case frac < Phase2Fraction:
		return 2
	default:
		return 1
	}
}

// takeDamage applies d and advances the phase. It returns true when the hit
// killed the boss.
func (b *Boss) takeDamage(d int) bool {
	if b.State == BossDead {
		return false
	}
	b.HP -= d
	if b.HP <= 0 {
		b.HP = 0
		b.State = BossDead
		b.teardown = BossTeardownMs
		return true
	}
	if p := phaseFor(b.HP, b.MaxHP); p > b.Phase {
		b.Phase = p
	}
	return false
}

// bossAttack is one salvo fired during an update.
type bossAttack struct {
	phase int
	shake bool
}

// update advances the intro descent or the active attack cadence. Shots are
// appended to the world.
func (b *Boss) update(w *World, rng *rand.Rand, dt, width, playerX float64) (activated bool, attack *bossAttack) {
	switch b.State {
	case BossIntro:
		b.Y = lerp(b.Y, BossRestY, BossIntroLerp)
		if math.Abs(b.Y-BossRestY) < BossIntroTolerance {
			b.State = BossActive
			b.Timer = 0
			activated = true
		}
		w.burst(rng, b.X+(rng.Float64()-0.5)*200, b.Y+40, 2, ColorBoss)

	case BossActive:
		b.Timer += dt
		switch {
		case b.Phase == 1 && b.Timer > VolleyEveryMs:
			b.Timer = 0
			for i := 0; i < 3; i++ {
				w.Enemies = append(w.Enemies, Enemy{
					X:     b.X + float64(i-1)*80,
					Y:     b.Y + 140,
					R:     26,
					VY:    2.6 + rng.Float64()*0.6,
					Color: ColorBossShot,
				})
			}
			attack = &bossAttack{phase: 1}
		case b.Phase == 2 && b.Timer > AimedEveryMs:
			b.Timer = 0
			dir := 1.0
			if playerX < b.X {
				dir = -1
			}
			w.Enemies = append(w.Enemies, Enemy{
				X:     b.X + dir*60,
				Y:     b.Y + 140,
				R:     34,
				VY:    3.6 + rng.Float64()*1.2,
				Swing: true,
				Seed:  rng.Float64() * 1000,
				Color: ColorBossShot,
			})
			attack = &bossAttack{phase: 2}
		case b.Phase == 3 && b.Timer > SweepEveryMs:
			b.Timer = 0
			for i := 0; i < 6; i++ {
				w.Enemies = append(w.Enemies, Enemy{
					X:     BoundMarginX + float64(i)*(width-2*BoundMarginX)/5,
					Y:     b.Y + 100,
					R:     26 + rng.Float64()*8,
					VY:    3.5 + rng.Float64()*1.8,
					Color: ColorBossShot,
				})
			}
			attack = &bossAttack{phase: 3, shake: true}
		}
		b.X = lerp(b.X, playerX, BossDriftLerp)

	case BossDead:
	}
	return activated, attack
}

// tickTeardown counts down the post-defeat delay and reports when the
// encounter should be cleared.
func (b *Boss) tickTeardown(dtRaw float64) bool {
	if b.State != BossDead {
		return false
	}
	b.teardown = countdown(b.teardown, dtRaw)
	return b.teardown == 0
}
