// Package gesture classifies hand shapes into discrete game gestures.
package gesture

import (
	"github.com/ayusman/stickman/internal/detector"
)

// Ratio thresholds separating the three hand shapes.
const (
	OpenPalmRatio = 1.85
	FistRatio     = 1.5

	// spanEpsilon keeps a collapsed hand from dividing by zero.
	spanEpsilon = 1e-6
)

// Gesture is a discrete hand shape.
type Gesture int

const (
	// None is a hand that is neither open nor closed.
	None Gesture = iota
	// OpenPalm is a hand with fingers spread away from the wrist.
	OpenPalm
	// Fist is a hand with fingers curled into the palm.
	Fist
)

func (g Gesture) String() string {
	switch g {
	case OpenPalm:
		return "open-palm"
	case Fist:
		return "fist"
	default:
		return "none"
	}
}

// SpreadRatio returns the mean fingertip-to-wrist distance divided by the
// index-to-pinky fingertip span. The ratio is independent of how far the
// hand is from the camera.
func SpreadRatio(hand *detector.HandLandmarks) float64 {
	if hand == nil {
		return 0
	}

	wrist := hand.Points[detector.Wrist]
	var sum float64
	for _, tip := range detector.Fingertips {
		sum += detector.Distance2D(hand.Points[tip], wrist)
	}
	avg := sum / float64(len(detector.Fingertips))

	span := detector.Distance2D(hand.Points[detector.IndexTip], hand.Points[detector.PinkyTip]) + spanEpsilon
	return avg / span
}

// IsOpenPalm reports whether the hand is spread open.
func IsOpenPalm(hand *detector.HandLandmarks) bool {
	return hand != nil && SpreadRatio(hand) > OpenPalmRatio
}

// IsFist reports whether the hand is closed.
func IsFist(hand *detector.HandLandmarks) bool {
	return hand != nil && SpreadRatio(hand) < FistRatio
}

// Classify returns the gesture a single hand is making.
func Classify(hand *detector.HandLandmarks) Gesture {
	if hand == nil {
		return None
	}
	r := SpreadRatio(hand)
	switch {
	case r > OpenPalmRatio:
		return OpenPalm
	case r < FistRatio:
		return Fist
	default:
		return None
	}
}

// BothOpenPalms reports whether the first two tracked hands are both open
// in the same frame. A single hand never qualifies.
func BothOpenPalms(hands []detector.HandLandmarks) bool {
	if len(hands) < 2 {
		return false
	}
	return IsOpenPalm(&hands[0]) && IsOpenPalm(&hands[1])
}
