package game

import "math"

// Vec2 is a 2D point, either normalized tracker space or screen pixels.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Bounds is the playable rectangle control points are clamped to.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Clamp returns p moved inside the bounds.
func (b Bounds) Clamp(p Vec2) Vec2 {
	return Vec2{X: clamp(p.X, b.MinX, b.MaxX), Y: clamp(p.Y, b.MinY, b.MaxY)}
}

// Smoother turns raw normalized wrist samples into a jitter-filtered
// screen-space control point. It keeps the last SmoothWindow mapped samples
// in a ring and reports their mean.
type Smoother struct {
	width, height float64
	bounds        Bounds

	window [SmoothWindow]Vec2
	head   int
	count  int

	calibrated     bool
	neutral        Vec2
	neutralScreenY float64
}

// NewSmoother creates a smoother for a screen of the given size.
func NewSmoother(width, height float64) *Smoother {
	return &Smoother{
		width:  width,
		height: height,
		bounds: Bounds{
			MinX: BoundMarginX,
			MinY: BoundMarginTop,
			MaxX: width - BoundMarginX,
			MaxY: height - BoundMarginBottom,
		},
	}
}

// SetNeutral switches mapping to be relative to a calibrated rest position.
func (s *Smoother) SetNeutral(neutral Vec2, screenY float64) {
	s.calibrated = true
	s.neutral = neutral
	s.neutralScreenY = screenY
}

// Calibrated reports whether a neutral reference is in use.
func (s *Smoother) Calibrated() bool {
	return s.calibrated
}

// NeutralScreenY returns the screen row the neutral reference maps to.
func (s *Smoother) NeutralScreenY() float64 {
	return s.neutralScreenY
}

// Map converts a normalized tracker point to clamped screen coordinates.
func (s *Smoother) Map(raw Vec2) Vec2 {
	var p Vec2
	if s.calibrated {
		p.X = s.width*0.5 + (raw.X-s.neutral.X)*SensitivityX*s.width
		p.Y = s.neutralScreenY + (raw.Y-s.neutral.Y)*SensitivityY*s.height
	} else {
		p.X = raw.X * s.width
		p.Y = raw.Y * s.height
	}
	return s.bounds.Clamp(p)
}

// Push maps a raw sample and appends it, evicting the oldest when full.
func (s *Smoother) Push(raw Vec2) {
	s.window[s.head] = s.Map(raw)
	s.head = (s.head + 1) % SmoothWindow
	if s.count < SmoothWindow {
		s.count++
	}
}

// ControlPoint returns the mean of the buffered samples. ok is false when
// nothing has been pushed since the last Reset.
func (s *Smoother) ControlPoint() (p Vec2, ok bool) {
	if s.count == 0 {
		return Vec2{}, false
	}
	var sx, sy float64
	for i := 0; i < s.count; i++ {
		sx += s.window[i].X
		sy += s.window[i].Y
	}
	n := float64(s.count)
	return Vec2{X: sx / n, Y: sy / n}, true
}

// Len returns the number of buffered samples.
func (s *Smoother) Len() int {
	return s.count
}

// Reset drops all buffered samples. The neutral reference is kept.
func (s *Smoother) Reset() {
	s.head = 0
	s.count = 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
