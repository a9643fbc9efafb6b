package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/stickman/internal/capture"
)

// PreviewHandler serves the camera preview as MJPEG.
type PreviewHandler struct {
	preview  *capture.Preview
	interval time.Duration
}

// NewPreviewHandler creates a new PreviewHandler over the pipeline's preview.
func NewPreviewHandler(p *capture.Preview) *PreviewHandler {
	return &PreviewHandler{preview: p, interval: 66 * time.Millisecond}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.preview.Acquire()
	defer h.preview.Release()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		img, seq := h.preview.Latest()
		if img == nil || seq == sent {
			continue
		}
		sent = seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(img))
		if _, err := w.Write(img); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
