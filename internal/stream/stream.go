// Package stream broadcasts core events over websockets so external tools
// (debug overlays, dashboards) can watch the simulation live. It is an
// observation surface only; nothing flows back in.
package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emberhollow/aicore/internal/events"
)

const clientBuffer = 64

// Server fans bus events out to websocket subscribers.
type Server struct {
	addr     string
	bus      *events.Bus
	upgrader websocket.Upgrader
	srv      *http.Server

	mu       sync.Mutex
	clients  map[*client]struct{}
	listener int
}

type client struct {
	conn *websocket.Conn
	send chan events.Event
}

// NewServer creates a stream server bound to addr (e.g. ":8080").
func NewServer(addr string, bus *events.Bus) *Server {
	return &Server{
		addr:    addr,
		bus:     bus,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local observation tool; any origin may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start subscribes to the bus and serves websocket clients until Shutdown.
func (s *Server) Start() {
	s.listener = s.bus.AddListener(s.broadcast)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.srv = &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		slog.Info("event stream listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("event stream failed", "error", err)
		}
	}()
}

// Handler exposes the mux for embedding in another server or a test.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// Shutdown stops the listener and disconnects every client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.bus.RemoveListener(s.listener)

	s.mu.Lock()
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
	s.mu.Unlock()

	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan events.Event, clientBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	slog.Debug("stream client connected", "remote", conn.RemoteAddr())

	go s.writeLoop(c)
	s.readLoop(c)
}

// writeLoop pushes events to one client until its channel closes or a write
// fails.
func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteJSON(ev); err != nil {
			s.drop(c)
			return
		}
	}
}

// readLoop discards inbound frames; it exists to notice disconnects.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

// broadcast delivers one event to every connected client. A client whose
// buffer is full misses the event rather than stalling the simulation.
func (s *Server) broadcast(ev events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- ev:
		default:
		}
	}
}
