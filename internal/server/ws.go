package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/stickman/internal/capture"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LandmarksHandler broadcasts the raw tracker output for debugging overlays.
// Only new results are sent.
type LandmarksHandler struct {
	feed     *capture.Feed
	interval time.Duration
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	stop     chan struct{}
	once     sync.Once
}

// NewLandmarksHandler creates a handler polling feed at about 15 FPS.
func NewLandmarksHandler(feed *capture.Feed) *LandmarksHandler {
	h := &LandmarksHandler{
		feed:     feed,
		interval: 66 * time.Millisecond,
		clients:  make(map[*websocket.Conn]bool),
		stop:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Close stops the broadcaster.
func (h *LandmarksHandler) Close() {
	h.once.Do(func() { close(h.stop) })
}

func (h *LandmarksHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		h.mu.RLock()
		idle := len(h.clients) == 0
		h.mu.RUnlock()
		if idle {
			continue
		}

		hands, seq := h.feed.LatestSeq()
		if seq == sent {
			continue
		}
		sent = seq

		msg, err := json.Marshal(map[string]any{
			"hands":     hands,
			"seq":       seq,
			"timestamp": time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}

		// Writes happen with the write lock held: one writer per conn.
		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}
