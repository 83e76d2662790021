package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-charlieplex/internal/events"
	"github.com/coreman2200/funtimes-charlieplex/matrix"
)

type fakeSource struct {
	mu    sync.Mutex
	frame matrix.Frame
	stats matrix.Stats
}

func (s *fakeSource) Frame() matrix.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *fakeSource) Stats() matrix.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *fakeSource) set(idx int, v uint8) {
	s.mu.Lock()
	s.frame[idx] = v
	s.mu.Unlock()
}

func newServer(t *testing.T) (*Hub, *fakeSource, *httptest.Server) {
	t.Helper()
	src := &fakeSource{stats: matrix.Stats{Started: true, Ticks: 42, Frames: 3}}
	h := NewHub(src, zerolog.Nop())
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFrames)
	mux.HandleFunc("/health", h.HandleHealth)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return h, src, srv
}

func dial(t *testing.T, h *Hub, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestTopologyFirst(t *testing.T) {
	h, _, srv := newServer(t)
	conn := dial(t, h, srv)

	m := readJSON(t, conn)
	assert.Equal(t, "topology", m["kind"])
	assert.Equal(t, float64(12), m["width"])
	assert.Equal(t, float64(8), m["height"])
	assert.Equal(t, float64(96), m["leds"])
}

func TestSampleBroadcastsChanges(t *testing.T) {
	h, src, srv := newServer(t)
	conn := dial(t, h, srv)
	readJSON(t, conn)

	src.set(5, 200)
	require.True(t, h.Sample())
	m := readJSON(t, conn)
	assert.Equal(t, "frame", m["kind"])
	assert.Equal(t, float64(1), m["frame_id"])

	var p framePayload
	b, _ := json.Marshal(m)
	require.NoError(t, json.Unmarshal(b, &p))
	require.Len(t, p.Brightness, matrix.NumLEDs)
	assert.Equal(t, uint8(200), p.Brightness[5])

	assert.False(t, h.Sample(), "unchanged frame is not resent")

	src.set(5, 0)
	assert.True(t, h.Sample())
	assert.Equal(t, float64(2), readJSON(t, conn)["frame_id"])
}

func TestNotify(t *testing.T) {
	h, _, srv := newServer(t)
	conn := dial(t, h, srv)
	readJSON(t, conn)

	h.Notify(events.AnimationChanged{Name: "heart", Frames: 8})
	m := readJSON(t, conn)
	assert.Equal(t, "event", m["kind"])
	assert.Equal(t, "animation_changed", m["event"])
	data, ok := m["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "heart", data["name"])
}

func TestClientRemovedOnClose(t *testing.T) {
	h, _, srv := newServer(t)
	conn := dial(t, h, srv)
	conn.Close()
	require.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHealth(t *testing.T) {
	_, _, srv := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	assert.Equal(t, true, m["started"])
	assert.Equal(t, float64(42), m["ticks"])
	assert.Equal(t, float64(3), m["frames"])
	assert.Equal(t, float64(0), m["clients"])
}
