package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/ayusman/stickman/internal/game"
)

// WaveType defines oscillator wave shapes.
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveTriangle
)

// oscillator generates a fixed-length wave whose frequency glides
// exponentially from freq to endFreq.
type oscillator struct {
	freq     float64
	endFreq  float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a constant-pitch oscillator.
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return NewSweep(freq, freq, duration, wave, rate)
}

// NewSweep creates an oscillator gliding from freq to endFreq over duration.
func NewSweep(freq, endFreq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		endFreq:  endFreq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) current() float64 {
	if o.freq == o.endFreq || o.duration == 0 || o.freq <= 0 || o.endFreq <= 0 {
		return o.freq
	}
	t := float64(o.position) / float64(o.duration)
	return o.freq * math.Pow(o.endFreq/o.freq, t)
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveTriangle:
			val = 1 - 4*math.Abs(o.phase-0.5)
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.current() / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies a linear attack and an exponential release.
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	totalSamples   int
}

// NewEnvelope shapes s with an attack ramp and a release tail.
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer:       s,
		attackSamples:  rate.N(attack),
		releaseSamples: rate.N(release),
		totalSamples:   rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attackSamples {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		releaseStart := e.totalSamples - e.releaseSamples
		if e.releaseSamples > 0 && e.position >= releaseStart {
			left := float64(e.totalSamples-e.position) / float64(e.releaseSamples)
			vol *= left * left
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales s linearly. math.Log2(0) is -Inf, so zero is silent.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

// tone is a single enveloped note.
func tone(freq float64, d time.Duration, gain float64, wave WaveType, rate beep.SampleRate) beep.Streamer {
	osc := NewOscillator(freq, d, wave, rate)
	return newVolume(NewEnvelope(osc, d, 5*time.Millisecond, d/2, rate), gain)
}

// CreateHitSound is a short sawtooth thud for lost lives and boss damage.
func CreateHitSound(rate beep.SampleRate) beep.Streamer {
	return tone(170, 120*time.Millisecond, 0.5, WaveSaw, rate)
}

// CreatePowerSound is a triangle blip for powerups and the shield.
func CreatePowerSound(rate beep.SampleRate) beep.Streamer {
	return tone(620, 120*time.Millisecond, 0.5, WaveTriangle, rate)
}

// CreateCoinSound is a high tick for deflected enemies.
func CreateCoinSound(rate beep.SampleRate) beep.Streamer {
	return tone(920, 60*time.Millisecond, 0.35, WaveSine, rate)
}

// CreateRoarSound is a one second sawtooth dive from 110 Hz to 40 Hz.
func CreateRoarSound(rate beep.SampleRate) beep.Streamer {
	d := time.Second
	sweep := NewSweep(110, 40, d, WaveSaw, rate)
	return newVolume(NewEnvelope(sweep, d, 10*time.Millisecond, 800*time.Millisecond, rate), 0.8)
}

// CreateWarningSound is two square pips announcing the boss.
func CreateWarningSound(rate beep.SampleRate) beep.Streamer {
	pip := func() beep.Streamer { return tone(440, 90*time.Millisecond, 0.3, WaveSquare, rate) }
	gap := beep.Silence(rate.N(60 * time.Millisecond))
	return beep.Seq(pip(), gap, pip())
}

// CreateAttackSound is the boss volley cue. Each phase drops lower.
func CreateAttackSound(phase int, rate beep.SampleRate) beep.Streamer {
	switch phase {
	case 3:
		return tone(120, 120*time.Millisecond, 0.7, WaveSaw, rate)
	case 2:
		return tone(160, 90*time.Millisecond, 0.6, WaveSaw, rate)
	default:
		return tone(200, 80*time.Millisecond, 0.5, WaveSaw, rate)
	}
}

// CreateFanfare plays an ascending arpeggio.
func CreateFanfare(rate beep.SampleRate) beep.Streamer {
	return beep.Seq(
		tone(523.25, 100*time.Millisecond, 0.4, WaveTriangle, rate),
		tone(659.25, 100*time.Millisecond, 0.4, WaveTriangle, rate),
		tone(783.99, 220*time.Millisecond, 0.45, WaveTriangle, rate),
	)
}

// CreateGameOverSound plays a falling three-note phrase.
func CreateGameOverSound(rate beep.SampleRate) beep.Streamer {
	return beep.Seq(
		tone(392, 160*time.Millisecond, 0.45, WaveSquare, rate),
		tone(311.13, 160*time.Millisecond, 0.45, WaveSquare, rate),
		tone(233.08, 400*time.Millisecond, 0.45, WaveSquare, rate),
	)
}

// musicGenerator is the quiet 110 Hz drone under play, its gain wobbling
// with a slow LFO.
type musicGenerator struct {
	rate beep.SampleRate
	pos  int
}

func newMusic(rate beep.SampleRate) beep.Streamer {
	return &musicGenerator{rate: rate}
}

func (g *musicGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.rate)
		gain := 0.08 * (1 + 0.5*math.Sin(2*math.Pi*0.07*t))
		val := gain * math.Sin(2*math.Pi*110*t)
		samples[i][0] = val
		samples[i][1] = val
		g.pos++
	}
	return len(samples), true
}

func (g *musicGenerator) Err() error { return nil }

// EffectFor returns the sound for a game event, or nil when the event is
// silent.
func EffectFor(ev game.Event, rate beep.SampleRate) beep.Streamer {
	switch ev.Kind {
	case game.EventHit:
		return CreateHitSound(rate)
	case game.EventPower, game.EventShieldRaised:
		return CreatePowerSound(rate)
	case game.EventCoin:
		return CreateCoinSound(rate)
	case game.EventBossWarning:
		return CreateWarningSound(rate)
	case game.EventBossRoar:
		return CreateRoarSound(rate)
	case game.EventBossActive:
		return tone(220, 120*time.Millisecond, 0.4, WaveSine, rate)
	case game.EventBossAttack:
		return CreateAttackSound(ev.Phase, rate)
	case game.EventBossDefeated:
		return CreateFanfare(rate)
	case game.EventGameOver:
		return CreateGameOverSound(rate)
	default:
		return nil
	}
}
