package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberhollow/aicore/internal/events"
)

func dialTestServer(t *testing.T) (*Server, *events.Bus, *websocket.Conn) {
	t.Helper()
	bus := events.NewBus()
	s := NewServer(":0", bus)
	s.listener = bus.AddListener(s.broadcast)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return s, bus, conn
}

func TestClientReceivesBusEvents(t *testing.T) {
	_, bus, conn := dialTestServer(t)

	// The upgrade handshake races the client registration; wait for it.
	require.Eventually(t, func() bool {
		bus.Emit(events.Purchase, map[string]any{"good": "bread"})
		conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		var ev events.Event
		return conn.ReadJSON(&ev) == nil && ev.Name == events.Purchase
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDisconnectedClientIsDropped(t *testing.T) {
	s, bus, conn := dialTestServer(t)

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	bus.Emit(events.Sale, nil)

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.clients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFullBufferDropsEventsNotClients(t *testing.T) {
	s, bus, conn := dialTestServer(t)

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Flood well past the buffer without the client reading.
	for i := 0; i < clientBuffer*4; i++ {
		bus.Emit(events.EnemyDamaged, map[string]any{"i": i})
	}

	s.mu.Lock()
	n := len(s.clients)
	s.mu.Unlock()
	assert.Equal(t, 1, n)

	// The client can still drain what fit in the buffer.
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, events.EnemyDamaged, ev.Name)
}
