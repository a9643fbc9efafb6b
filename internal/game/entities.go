package game

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Enemy is a falling obstacle.
type Enemy struct {
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	R     float64 `json:"r" msgpack:"r"`
	VY    float64 `json:"vy" msgpack:"vy"`
	Swing bool    `json:"swing" msgpack:"swing"`
	Seed  float64 `json:"-" msgpack:"-"`
	Color string  `json:"color" msgpack:"color"`
}

// Powerup is a falling pickup.
type Powerup struct {
	X    float64     `json:"x" msgpack:"x"`
	Y    float64     `json:"y" msgpack:"y"`
	VY   float64     `json:"vy" msgpack:"vy"`
	Kind PowerupKind `json:"kind" msgpack:"kind"`
	Age  float64     `json:"age" msgpack:"age"`
}

// Particle is a cosmetic spark with a limited lifetime.
type Particle struct {
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	VX    float64 `json:"vx" msgpack:"vx"`
	VY    float64 `json:"vy" msgpack:"vy"`
	Life  float64 `json:"life" msgpack:"life"`
	Size  float64 `json:"size" msgpack:"size"`
	Color string  `json:"color" msgpack:"color"`
}

// Particle colors per effect.
const (
	ColorGold     = "#ffd166"
	ColorDeflect  = "#7fd1ff"
	ColorHit      = "#ff8a8a"
	ColorBoss     = "#ff7b7b"
	ColorSlow     = "#a0d1ff"
	ColorLife     = "#ff9bcf"
	ColorBossShot = "#ff6b6b"
)

// World owns every entity collection.
type World struct {
	Enemies   []Enemy
	Powerups  []Powerup
	Particles []Particle
}

// Clear drops all entities.
func (w *World) Clear() {
	w.Enemies = w.Enemies[:0]
	w.Powerups = w.Powerups[:0]
	w.Particles = w.Particles[:0]
}

func randRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// spawnEnemy drops a regular obstacle from above the screen. Fall speed
// grows with difficulty time up to EnemySpeedCap.
func (w *World) spawnEnemy(rng *rand.Rand, width, difficultyMs float64) {
	w.Enemies = append(w.Enemies, Enemy{
		X:     randRange(rng, 80, width-80),
		Y:     -40,
		R:     randRange(rng, 18, 44),
		VY:    randRange(rng, 2.2, 3.4) + math.Min(EnemySpeedCap, difficultyMs/DifficultyRampMs),
		Swing: rng.Float64() < SwingChance,
		Seed:  rng.Float64() * 1000,
		Color: fmt.Sprintf("hsl(%d,85%%,55%%)", 10+rng.IntN(40)),
	})
}

// spawnPowerup drops a pickup; life is rare, double is common.
func (w *World) spawnPowerup(rng *rand.Rand, width float64) {
	w.Powerups = append(w.Powerups, Powerup{
		X:    randRange(rng, 90, width-90),
		Y:    -40,
		VY:   PowerupSpeed,
		Kind: drawPowerupKind(rng.Float64()),
	})
}

func drawPowerupKind(t float64) PowerupKind {
	switch {
	case t < 0.02:
		return PowerupLife
	case t < 0.18:
		return PowerupShield
	case t < 0.34:
		return PowerupSlow
	default:
		return PowerupDouble
	}
}

// burst emits count particles at (x, y).
func (w *World) burst(rng *rand.Rand, x, y float64, count int, color string) {
	for i := 0; i < count; i++ {
		w.Particles = append(w.Particles, Particle{
			X:     x,
			Y:     y,
			VX:    (rng.Float64() - 0.5) * 4,
			VY:    -rng.Float64()*3 - 0.4,
			Life:  900 + rng.Float64()*600,
			Size:  rng.Float64()*3 + 2,
			Color: color,
		})
	}
}

// updateParticles advances particles by dt and removes expired ones.
func (w *World) updateParticles(dt float64) {
	kept := w.Particles[:0]
	for _, p := range w.Particles {
		p.X += p.VX
		p.Y += p.VY
		p.VY += ParticleGravity
		p.Life -= dt
		if p.Life > 0 {
			kept = append(kept, p)
		}
	}
	w.Particles = kept
}

// Rect is an axis-aligned rectangle given by its centre and size.
type Rect struct {
	CX, CY, W, H float64
}

// CircleHitsRect tests a circle against a rectangle using the closest point
// on the rectangle to the circle centre.
func CircleHitsRect(cx, cy, r float64, rect Rect) bool {
	dx := math.Abs(cx - rect.CX)
	dy := math.Abs(cy - rect.CY)
	hw, hh := rect.W/2, rect.H/2

	if dx > hw+r || dy > hh+r {
		return false
	}
	if dx <= hw || dy <= hh {
		return true
	}
	cornerX := dx - hw
	cornerY := dy - hh
	return cornerX*cornerX+cornerY*cornerY <= r*r
}
