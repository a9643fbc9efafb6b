package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// Preview keeps the most recent camera frame as JPEG for the MJPEG endpoint.
// Encoding only happens while at least one viewer is attached.
type Preview struct {
	mu      sync.RWMutex
	jpeg    []byte
	seq     uint64
	viewers int
}

// NewPreview creates an empty preview.
func NewPreview() *Preview {
	return &Preview{}
}

// Acquire registers a viewer. Pair with Release.
func (p *Preview) Acquire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewers++
}

// Release unregisters a viewer. The cached frame is dropped with the last one.
func (p *Preview) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.viewers > 0 {
		p.viewers--
	}
	if p.viewers == 0 {
		p.jpeg = nil
	}
}

// Wanted reports whether anyone is watching.
func (p *Preview) Wanted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.viewers > 0
}

// Update encodes frame as the latest preview image.
func (p *Preview) Update(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyFrame
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return err
	}
	defer buf.Close()

	return p.Set(append([]byte(nil), buf.GetBytes()...))
}

// Set stores an already encoded JPEG image.
func (p *Preview) Set(jpeg []byte) error {
	if len(jpeg) == 0 {
		return errors.New("empty preview image")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jpeg = jpeg
	p.seq++
	return nil
}

// Latest returns the current image and its sequence number. The image is nil
// before the first frame.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq
}
