package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/Bucknalla/go-ownship-simulator/netmsg"
	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

const writeWait = 5 * time.Second

// Message is the websocket frame format in both directions.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Status is the body of GET /api/status and the first websocket frame.
type Status struct {
	Simulation ownship.SimulationStatus `json:"simulation"`
	Control    ownship.ControlStatus    `json:"control"`
	Autopilot  ownship.AutopilotState   `json:"autopilot"`
	Profile    string                   `json:"profile"`
	Clients    int                      `json:"clients"`
}

// Server exposes a Controller over HTTP and streams snapshots to websocket
// clients. It is an ownship.Listener.
type Server struct {
	ctrl     *ownship.Controller
	router   *mux.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
	rate     time.Duration

	mu      sync.Mutex
	clients map[string]*client

	broadcast chan ownship.OwnshipUpdate
	last      time.Time
}

type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// NewServer builds the router. Snapshots are pushed to websocket clients at
// most once per rate of simulated time; zero pushes every tick.
func NewServer(ctrl *ownship.Controller, rate time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // allow all origins
			},
		},
		logger:    logger,
		rate:      rate,
		clients:   make(map[string]*client),
		broadcast: make(chan ownship.OwnshipUpdate, 16),
	}

	r := mux.NewRouter()
	// API routes sit on the root router so that a method mismatch answers
	// 405 rather than falling through to not found.
	r.HandleFunc("/api/ownship", s.handleOwnship).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/sim/{action:start|pause|stop|reset}", s.handleSim).Methods(http.MethodPost)
	r.HandleFunc("/api/helm", s.handleHelm).Methods(http.MethodPost)
	r.HandleFunc("/api/throttle", s.handleThrottle).Methods(http.MethodPost)
	r.HandleFunc("/api/heading-speed", s.handleHeadingSpeed).Methods(http.MethodPost)
	r.HandleFunc("/api/set-drift", s.handleSetDrift).Methods(http.MethodPost)
	r.HandleFunc("/api/position", s.handlePosition).Methods(http.MethodPost)
	r.HandleFunc("/api/time", s.handleTime).Methods(http.MethodPost)
	r.HandleFunc("/api/autopilot", s.handleAutopilot).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// OnOwnshipUpdate queues u for the websocket clients without blocking the
// simulation.
func (s *Server) OnOwnshipUpdate(u ownship.OwnshipUpdate) {
	select {
	case s.broadcast <- u:
	default:
		// channel full, skip this update
	}
}

// Run delivers queued snapshots to the websocket clients until ctx is done.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return
		case u := <-s.broadcast:
			if s.rate > 0 && !s.last.IsZero() {
				if d := u.Time.Sub(s.last); d >= 0 && d < s.rate {
					continue
				}
			}
			s.last = u.Time
			s.send(Message{Type: "ownship", Data: u})
		}
	}
}

func (s *Server) send(m Message) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(m); err != nil {
			s.logger.Warn("websocket write failed", slog.String("client", c.id), slog.Any("error", err))
			s.removeClient(c)
		}
	}
}

func (s *Server) addClient(c *client) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
	return len(s.clients)
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c.id]
	delete(s.clients, c.id)
	n := len(s.clients)
	s.mu.Unlock()

	if ok {
		c.conn.Close()
		s.logger.Info("websocket client disconnected", slog.String("client", c.id), slog.Int("clients", n))
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[string]*client)
	s.mu.Unlock()
	for _, c := range clients {
		c.conn.Close()
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) status() Status {
	return Status{
		Simulation: s.ctrl.Status(),
		Control:    s.ctrl.ControlStatus(),
		Autopilot:  s.ctrl.Autopilot().State(),
		Profile:    s.ctrl.Simulator().Profile().Name(),
		Clients:    s.Clients(),
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}
	n := s.addClient(c)
	s.logger.Info("websocket client connected", slog.String("client", c.id), slog.Int("clients", n))
	defer s.removeClient(c)

	if err := c.writeJSON(Message{Type: "status", Data: s.status()}); err != nil {
		s.logger.Warn("failed to send status", slog.String("client", c.id), slog.Any("error", err))
		return
	}

	for {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		reply := s.handleClientMessage(msg.Type, msg.Data)
		if err := c.writeJSON(reply); err != nil {
			return
		}
	}
}

// handleClientMessage executes a command frame and returns the reply frame.
func (s *Server) handleClientMessage(typ string, data json.RawMessage) Message {
	if typ != "command" {
		return Message{Type: "error", Data: fmt.Sprintf("unknown message type %q", typ)}
	}
	var cmd netmsg.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Message{Type: "error", Data: err.Error()}
	}
	if err := netmsg.Apply(s.ctrl, cmd); err != nil {
		return Message{Type: "error", Data: err.Error()}
	}
	return Message{Type: "ack", Data: cmd.Type}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", slog.String("addr", addr))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeClients()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}
