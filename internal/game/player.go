package game

// ShieldState summarises the shield for presentation.
type ShieldState string

const (
	ShieldReady    ShieldState = "ready"
	ShieldActive   ShieldState = "active"
	ShieldCooldown ShieldState = "cooldown"
)

// Player is the stick figure. All timers are countdowns in milliseconds
// driven by wall-clock time.
type Player struct {
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	TargetX float64 `json:"targetX" msgpack:"targetX"`
	TargetY float64 `json:"targetY" msgpack:"targetY"`
	W       float64 `json:"w" msgpack:"w"`
	H       float64 `json:"h" msgpack:"h"`
	Frame   int     `json:"frame" msgpack:"frame"`
	Lives   int     `json:"lives" msgpack:"lives"`

	ShieldActive    bool    `json:"shieldActive" msgpack:"shieldActive"`
	ShieldCooldown  bool    `json:"shieldCooldown" msgpack:"shieldCooldown"`
	HoldTimer       float64 `json:"holdTimer" msgpack:"holdTimer"`
	SpecialCooldown float64 `json:"specialCooldown" msgpack:"specialCooldown"`
	FistCooldown    float64 `json:"fistCooldown" msgpack:"fistCooldown"`
	DoublePoints    bool    `json:"doublePoints" msgpack:"doublePoints"`

	frameTimer       float64
	shieldRemaining  float64 // > 0 only for a gesture shield
	shieldCoolRemain float64
	doubleRemaining  float64
}

func newPlayer(width, height float64, lives int) Player {
	x, y := width*0.5, height-PlayerRestOffset
	return Player{
		X:       x,
		Y:       y,
		TargetX: x,
		TargetY: y,
		W:       PlayerWidth,
		H:       PlayerHeight,
		Lives:   lives,
	}
}

// Hitbox returns the collision rectangle, slightly smaller than the sprite.
func (p *Player) Hitbox() Rect {
	return Rect{
		CX: p.X,
		CY: p.Y - p.H/2 + HitboxOffsetY,
		W:  p.W * HitboxWidthFrac,
		H:  p.H * HitboxHeightFrac,
	}
}

// Shield reports the presentation state of the shield.
func (p *Player) Shield() ShieldState {
	switch {
	case p.ShieldActive:
		return ShieldActive
	case p.ShieldCooldown:
		return ShieldCooldown
	default:
		return ShieldReady
	}
}

// activateShield raises a timed shield. It is a no-op while the shield is
// already up or cooling down.
func (p *Player) activateShield() bool {
	if p.ShieldActive || p.ShieldCooldown {
		return false
	}
	p.ShieldActive = true
	p.shieldRemaining = ShieldGestureMs
	return true
}

// grantShield raises a shield that lasts until it absorbs a hit.
func (p *Player) grantShield() {
	p.ShieldActive = true
	p.ShieldCooldown = false
	p.shieldRemaining = 0
	p.shieldCoolRemain = 0
}

// consumeShield drops the shield after a deflection and starts the cooldown.
func (p *Player) consumeShield() {
	p.ShieldActive = false
	p.shieldRemaining = 0
	p.startShieldCooldown()
}

func (p *Player) startShieldCooldown() {
	p.ShieldCooldown = true
	p.shieldCoolRemain = ShieldCooldownMs
}

func (p *Player) grantDoublePoints() {
	p.DoublePoints = true
	p.doubleRemaining = DoublePointsMs
}

// loseLife decrements lives, never below zero, and reports whether the
// player is out of lives.
func (p *Player) loseLife() bool {
	if p.Lives > 0 {
		p.Lives--
	}
	return p.Lives == 0
}

// tickTimers advances every countdown by wall-clock dtRaw.
func (p *Player) tickTimers(dtRaw float64) {
	p.FistCooldown = countdown(p.FistCooldown, dtRaw)
	p.SpecialCooldown = countdown(p.SpecialCooldown, dtRaw)

	if p.ShieldActive && p.shieldRemaining > 0 {
		p.shieldRemaining = countdown(p.shieldRemaining, dtRaw)
		if p.shieldRemaining == 0 {
			p.ShieldActive = false
			p.startShieldCooldown()
		}
	} else if p.ShieldCooldown {
		p.shieldCoolRemain = countdown(p.shieldCoolRemain, dtRaw)
		if p.shieldCoolRemain == 0 {
			p.ShieldCooldown = false
		}
	}

	if p.DoublePoints {
		p.doubleRemaining = countdown(p.doubleRemaining, dtRaw)
		if p.doubleRemaining == 0 {
			p.DoublePoints = false
		}
	}

	p.frameTimer += dtRaw
	if p.frameTimer > AnimFrameMs {
		p.Frame = (p.Frame + 1) % AnimFrames
		p.frameTimer = 0
	}
}

// countdown subtracts d from v, clamping at zero.
func countdown(v, d float64) float64 {
	if v <= d {
		return 0
	}
	return v - d
}
