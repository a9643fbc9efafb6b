package game

import "fmt"

// PowerupKind is the variant of a falling pickup.
type PowerupKind int

const (
	PowerupShield PowerupKind = iota
	PowerupSlow
	PowerupDouble
	PowerupLife
)

var powerupNames = [...]string{
	PowerupShield: "shield",
	PowerupSlow:   "slow",
	PowerupDouble: "double",
	PowerupLife:   "life",
}

func (k PowerupKind) String() string {
	if int(k) < len(powerupNames) {
		return powerupNames[k]
	}
	return fmt.Sprintf("powerup(%d)", int(k))
}

// MarshalText encodes the kind by name for JSON snapshots.
func (k PowerupKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *PowerupKind) UnmarshalText(b []byte) error {
	for i, name := range powerupNames {
		if name == string(b) {
			*k = PowerupKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown powerup kind %q", b)
}

// apply gives the player the effect of the pickup and returns the event it
// raises.
func (k PowerupKind) apply(s *Session) EventKind {
	p := &s.player
	x, y := p.X, p.Y-20

	switch k {
	case PowerupShield:
		p.grantShield()
		s.world.burst(s.rng, x, y, 16, ColorDeflect)
	case PowerupSlow:
		s.slowMotion(SlowPowerupFactor, SlowPowerupMs)
		s.world.burst(s.rng, x, y, 12, ColorSlow)
	case PowerupDouble:
		p.grantDoublePoints()
		s.world.burst(s.rng, x, y, 14, ColorGold)
	case PowerupLife:
		p.Lives++
		s.world.burst(s.rng, x, y, 22, ColorLife)
		return EventCoin
	}
	return EventPower
}
