// Package detector provides hand tracking interfaces and landmark types.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Fingertips lists the tip landmark of every finger, thumb first.
var Fingertips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Point3D is a landmark in normalized image coordinates. X and Y are in
// [0,1] relative to the frame; Z is relative depth and unused by the game.
type Point3D struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points" msgpack:"points"`
	Handedness string                `json:"handedness" msgpack:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score" msgpack:"score"`
}

// Distance2D returns the planar distance between two landmarks, ignoring depth.
func Distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// WristXY returns the normalized wrist position.
func (h HandLandmarks) WristXY() (x, y float64) {
	w := h.Points[Wrist]
	return w.X, w.Y
}

// Translate returns a copy of the hand with its wrist moved to (x, y).
// The shape of the hand is preserved.
func (h HandLandmarks) Translate(x, y float64) HandLandmarks {
	dx := x - h.Points[Wrist].X
	dy := y - h.Points[Wrist].Y
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}
