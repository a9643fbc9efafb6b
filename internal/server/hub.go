package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ayusman/stickman/internal/game"
)

// Codec selects the wire format of /api/stream frames.
type Codec string

const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

const writeWait = 2 * time.Second

// Frame is one message on /api/stream: the latest snapshot plus every event
// raised since the client's previous frame.
type Frame struct {
	Snapshot game.Snapshot `json:"snapshot" msgpack:"snapshot"`
	Events   []game.Event  `json:"events" msgpack:"events"`
}

// Encode serialises f. JSON goes out as a text message, msgpack as binary.
func (c Codec) Encode(f Frame) ([]byte, int, error) {
	if f.Events == nil {
		f.Events = []game.Event{}
	}
	if c == CodecMsgpack {
		data, err := msgpack.Marshal(&f)
		return data, websocket.BinaryMessage, err
	}
	data, err := json.Marshal(&f)
	return data, websocket.TextMessage, err
}

func parseCodec(s string) (Codec, bool) {
	switch Codec(s) {
	case "", CodecJSON:
		return CodecJSON, true
	case CodecMsgpack:
		return CodecMsgpack, true
	}
	return "", false
}

// Hub broadcasts game frames to websocket viewers. It implements the app's
// Sink; Publish never blocks on a slow viewer. A viewer that falls behind
// receives only the newest snapshot, with the events it missed merged in.
type Hub struct {
	mu      sync.RWMutex
	clients map[*viewer]struct{}
}

// NewHub creates a hub with no viewers.
func NewHub() *Hub {
	return &Hub{clients: make(map[*viewer]struct{})}
}

type viewer struct {
	conn   *websocket.Conn
	codec  Codec
	notify chan struct{}

	mu     sync.Mutex
	snap   game.Snapshot
	events []game.Event
	dirty  bool
}

func (v *viewer) offer(snap game.Snapshot, events []game.Event) {
	v.mu.Lock()
	v.snap = snap
	v.events = append(v.events, events...)
	v.dirty = true
	v.mu.Unlock()

	select {
	case v.notify <- struct{}{}:
	default:
	}
}

func (v *viewer) take() (Frame, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.dirty {
		return Frame{}, false
	}
	f := Frame{Snapshot: v.snap, Events: v.events}
	v.events = nil
	v.dirty = false
	return f, true
}

// Publish queues a frame for every viewer.
func (h *Hub) Publish(snap game.Snapshot, events []game.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for v := range h.clients {
		v.offer(snap, events)
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades /api/stream requests. The codec is chosen with
// ?codec=json|msgpack.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	codec, ok := parseCodec(r.URL.Query().Get("codec"))
	if !ok {
		http.Error(w, "Unknown codec", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	v := &viewer{conn: conn, codec: codec, notify: make(chan struct{}, 1)}
	h.mu.Lock()
	h.clients[v] = struct{}{}
	h.mu.Unlock()
	log.Debug().Str("codec", string(codec)).Msg("stream viewer connected")

	done := make(chan struct{})
	go h.write(v, done)

	defer func() {
		h.mu.Lock()
		delete(h.clients, v)
		h.mu.Unlock()
		close(done)
		log.Debug().Msg("stream viewer disconnected")
	}()

	// Viewers never send anything meaningful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(v *viewer, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-v.notify:
			f, ok := v.take()
			if !ok {
				continue
			}
			data, mt, err := v.codec.Encode(f)
			if err != nil {
				log.Error().Err(err).Msg("failed to encode frame")
				continue
			}
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(mt, data); err != nil {
				v.conn.Close()
				return
			}
		}
	}
}
