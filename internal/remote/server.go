package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"jordanella.com/battlefarm-go/internal/events"
	"jordanella.com/battlefarm-go/internal/logging"
)

// Toggler receives pause requests
type Toggler interface {
	Toggle(source string) bool
}

// hello is the first message on every connection
var hello = []byte(`{"type":"hello"}`)

// Server exposes /ws: a text message "p" toggles pause, and every bus event is
// pushed to all clients as JSON
type Server struct {
	toggler  Toggler
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	httpServer *http.Server
	listener   net.Listener
}

// client owns one connection. Writes go through data so a slow reader never
// blocks a broadcast.
type client struct {
	conn *websocket.Conn
	data chan []byte
	done chan struct{}
}

func (c *client) send(buf []byte) {
	select {
	case c.data <- buf:
	default:
	}
}

func (c *client) writer() {
	defer c.conn.Close()
	for {
		select {
		case buf := <-c.data:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// NewServer creates a remote control server
func NewServer(toggler Toggler, logger *logging.Logger) *Server {
	return &Server{
		toggler: toggler,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving /ws
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// Start listens on addr and serves in the background
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Remote server stopped", err)
		}
	}()

	s.logger.Info("Remote control listening on " + listener.Addr().String())
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the listener and drops every client
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.clients {
		close(c.done)
		delete(s.clients, c)
	}
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Subscribe forwards every event of the bus to the clients
func (s *Server) Subscribe(bus events.EventBus) []events.SubscriptionID {
	return bus.SubscribeAll(s.Broadcast)
}

// Broadcast sends one event to every client
func (s *Server) Broadcast(event events.Event) {
	buf, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to encode event", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.send(buf)
	}
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade: " + err.Error())
		return
	}

	c := &client{conn: conn, data: make(chan []byte, 16), done: make(chan struct{})}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go c.writer()
	c.send(hello)

	s.logger.DebugWithContext("Remote client connected", map[string]interface{}{"addr": conn.RemoteAddr().String()})

	defer s.remove(c)

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if strings.TrimSpace(string(msg)) == "p" {
			s.toggler.Toggle("remote")
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		close(c.done)
		delete(s.clients, c)
	}
}
