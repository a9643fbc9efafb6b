package game

import "github.com/ayusman/stickman/internal/detector"

// DefaultNeutral is used when no hand was seen during calibration.
var DefaultNeutral = Vec2{X: 0.5, Y: 0.5}

// Calibration samples the raw wrist position across several ticks to find
// the player's comfortable rest point. It first waits up to
// CalibrationWaitMs for a hand to appear, then samples for CalibrationMs.
type Calibration struct {
	Active         bool
	Samples        []Vec2
	Neutral        Vec2
	NeutralScreenY float64
	Done           bool

	waitRemaining   float64
	sampleRemaining float64
	sampling        bool
}

// Begin starts a new calibration run, discarding any previous result.
func (c *Calibration) Begin() {
	*c = Calibration{
		Active:          true,
		Samples:         make([]Vec2, 0, 64),
		waitRemaining:   CalibrationWaitMs,
		sampleRemaining: CalibrationMs,
	}
}

// Observe feeds one tick of tracker input. It returns true once the sampling
// window has elapsed; the caller then calls Finish.
func (c *Calibration) Observe(hands []detector.HandLandmarks, dtRaw float64) bool {
	if !c.Active {
		return c.Done
	}

	if !c.sampling {
		c.waitRemaining -= dtRaw
		if len(hands) == 0 && c.waitRemaining > 0 {
			return false
		}
		c.sampling = true
	}

	if len(hands) > 0 {
		x, y := hands[0].WristXY()
		c.Samples = append(c.Samples, Vec2{X: x, Y: y})
	}

	c.sampleRemaining -= dtRaw
	return c.sampleRemaining <= 0
}

// Progress returns how far through the sampling window the run is, 0..1.
func (c *Calibration) Progress() float64 {
	if !c.sampling {
		return 0
	}
	return clamp(1-c.sampleRemaining/CalibrationMs, 0, 1)
}

// Waiting reports whether the run is still waiting for the first hand.
func (c *Calibration) Waiting() bool {
	return c.Active && !c.sampling
}

// Finish computes the neutral reference from the collected samples and
// closes the run. Without samples the screen centre is used.
func (c *Calibration) Finish(screenHeight float64) Vec2 {
	neutral := DefaultNeutral
	if n := len(c.Samples); n > 0 {
		var sx, sy float64
		for _, s := range c.Samples {
			sx += s.X
			sy += s.Y
		}
		neutral = Vec2{X: sx / float64(n), Y: sy / float64(n)}
	}

	c.Neutral = neutral
	c.NeutralScreenY = neutral.Y * screenHeight
	c.Active = false
	c.Done = true
	return neutral
}
