package capture

import (
	"sync"
	"time"

	"github.com/ayusman/stickman/internal/detector"
)

// DefaultMaxAge is how long a tracker result stays valid. Older results read
// as "no hand".
const DefaultMaxAge = 500 * time.Millisecond

// Feed holds the most recent tracker output. The tracker publishes from its
// own goroutine; the game loop reads without blocking on inference.
type Feed struct {
	mu     sync.RWMutex
	hands  []detector.HandLandmarks
	at     time.Time
	seq    uint64
	maxAge time.Duration
	now    func() time.Time
}

// NewFeed creates an empty feed. A non-positive maxAge uses DefaultMaxAge.
func NewFeed(maxAge time.Duration) *Feed {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Feed{maxAge: maxAge, now: time.Now}
}

// Publish replaces the latest result. The slice is copied.
func (f *Feed) Publish(hands []detector.HandLandmarks) {
	cp := append([]detector.HandLandmarks(nil), hands...)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.hands = cp
	f.at = f.now()
	f.seq++
}

// Latest returns the most recent hands, or nil when nothing fresh has been
// published.
func (f *Feed) Latest() []detector.HandLandmarks {
	hands, _ := f.LatestSeq()
	return hands
}

// LatestSeq is Latest plus a counter that increases on every Publish.
func (f *Feed) LatestSeq() ([]detector.HandLandmarks, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.seq == 0 || f.now().Sub(f.at) > f.maxAge {
		return nil, f.seq
	}
	return f.hands, f.seq
}

// Clear drops the current result, for instance when the camera closes.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hands = nil
	f.at = time.Time{}
}
