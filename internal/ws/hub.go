// Package ws streams the matrix frame buffer and engine events to browser
// previews over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-charlieplex/internal/events"
	"github.com/coreman2200/funtimes-charlieplex/matrix"
)

const writeWait = 200 * time.Millisecond

// Source is what the hub previews.
type Source interface {
	Frame() matrix.Frame
	Stats() matrix.Stats
}

type client struct {
	wmu  sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

type Hub struct {
	src      Source
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	clients   map[*client]bool
	frameID   uint64
	last      matrix.Frame
	startTime time.Time
}

func NewHub(src Source, log zerolog.Logger) *Hub {
	return &Hub{
		src:       src,
		log:       log,
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:   map[*client]bool{},
		startTime: time.Now(),
	}
}

type topology struct {
	Kind   string `json:"kind"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	LEDs   int    `json:"leds"`
	Max    int    `json:"max"`
}

type framePayload struct {
	Kind    string `json:"kind"`
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	// Brightness is base64 on the wire, one byte per LED in wiring order.
	Brightness []byte `json:"brightness"`
}

type eventPayload struct {
	Kind  string       `json:"kind"`
	Event string       `json:"event"`
	Data  events.Event `json:"data"`
}

// HandleFrames upgrades the request and adds the connection to the preview
// set. The first message describes the matrix; frames follow.
func (h *Hub) HandleFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	c := &client{conn: conn}

	b, _ := json.Marshal(topology{
		Kind:   "topology",
		Width:  matrix.Width,
		Height: matrix.Height,
		LEDs:   matrix.NumLEDs,
		Max:    matrix.Max,
	})
	if err := c.write(b); err != nil {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleHealth reports engine counters as JSON.
func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.src.Stats()
	h.mu.RLock()
	resp := map[string]any{
		"frame_id":    h.frameID,
		"uptime_s":    time.Since(h.startTime).Seconds(),
		"clients":     len(h.clients),
		"started":     st.Started,
		"ticks":       st.Ticks,
		"faults":      st.Faults,
		"frames":      st.Frames,
		"completions": st.Completions,
		"interval_ms": st.Interval.Milliseconds(),
	}
	h.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Run samples the frame buffer fps times a second and broadcasts it when it
// changed, until ctx is done.
func (h *Hub) Run(ctx context.Context, fps int) {
	ticker := time.NewTicker(time.Second / time.Duration(max(1, fps)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sample()
		}
	}
}

// Sample broadcasts the current frame if it differs from the last one sent.
// It reports whether a frame went out.
func (h *Hub) Sample() bool {
	f := h.src.Frame()
	h.mu.Lock()
	if h.frameID > 0 && f == h.last {
		h.mu.Unlock()
		return false
	}
	h.last = f
	h.frameID++
	id := h.frameID
	h.mu.Unlock()

	b, _ := json.Marshal(framePayload{
		Kind:       "frame",
		T:          time.Now().UnixNano(),
		FrameID:    id,
		Brightness: f[:],
	})
	h.broadcast(b)
	return true
}

// Notify forwards an engine event to every client.
func (h *Hub) Notify(ev events.Event) {
	b, err := json.Marshal(eventPayload{Kind: "event", Event: events.Name(ev), Data: ev})
	if err != nil {
		h.log.Warn().Err(err).Msg("encode event")
		return
	}
	h.broadcast(b)
}

func (h *Hub) broadcast(b []byte) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(b); err != nil {
			h.log.Debug().Err(err).Msg("write preview")
		}
	}
}

// Clients is the number of connected previews.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
