package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	blurKernel    = 21
	diffThreshold = 25
)

// MotionDetector measures how much of the frame changed since the previous
// call, after grayscale conversion and a Gaussian blur to suppress sensor
// noise.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of pixels change.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect compares frame against the previous one. The first frame only
// primes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (moved bool, changed float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !m.primed {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, diffThreshold, 255, gocv.ThresholdBinary)

	changed = float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset forgets the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline Mat.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// RateGovernor drops the capture rate when the scene stays still and
// restores it as soon as something moves or a hand is tracked.
type RateGovernor struct {
	ActiveFPS  int
	IdleFPS    int
	IdleFrames int

	still int
}

// NewRateGovernor returns a governor that idles after idleFrames still
// frames.
func NewRateGovernor(activeFPS, idleFPS, idleFrames int) *RateGovernor {
	return &RateGovernor{ActiveFPS: activeFPS, IdleFPS: idleFPS, IdleFrames: idleFrames}
}

// Next returns the rate the camera should run at after this frame.
func (g *RateGovernor) Next(moved, tracking bool) int {
	if moved || tracking {
		g.still = 0
		return g.ActiveFPS
	}
	if g.still < g.IdleFrames {
		g.still++
	}
	if g.still >= g.IdleFrames {
		return g.IdleFPS
	}
	return g.ActiveFPS
}
