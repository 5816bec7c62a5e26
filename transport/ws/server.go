package ws

import (
	"context"
	"groupchat/errors"
	"groupchat/services"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Config struct {
	SendBufferSize     int
	MaxMessageSize     int64
	RateLimitPerSecond float64
	RateLimitBurst     int
	AllowedOrigins     []string
}

func (c Config) withDefaults() Config {
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = 256
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.RateLimitPerSecond <= 0 {
		c.RateLimitPerSecond = 5
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 10
	}
	return c
}

// Server upgrades HTTP requests and runs one Client per connection.
// Every client handles its events under ctx, cancelled at shutdown.
// Hijacked connections outlive http.Server.Shutdown, Close ends them.
type Server struct {
	ctx      context.Context
	log      *slog.Logger
	chat     services.IChatService
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*Client
	closed  bool
	pumps   sync.WaitGroup
}

func NewServer(ctx context.Context, log *slog.Logger, chat services.IChatService, cfg Config) *Server {
	cfg = cfg.withDefaults()
	origins := NewOriginPolicy(cfg.AllowedOrigins)
	return &Server{
		ctx:     ctx,
		log:     log,
		chat:    chat,
		cfg:     cfg,
		clients: make(map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      origins.Check,
		},
	}
}

// ServeWS is mounted on GET /ws.
func (s *Server) ServeWS(c *gin.Context) {
	if s.isClosed() {
		_ = c.AbortWithError(http.StatusServiceUnavailable, errors.ErrServerClosed)
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already answered the client
		s.log.Debug("Websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}

	client := newClient(uuid.NewString(), conn, s.log, s.chat, s.cfg)
	if !s.track(client) {
		goAway(conn)
		_ = conn.Close()
		return
	}
	s.log.Debug("Client connected", "conn_id", client.id, "remote", c.Request.RemoteAddr)

	go client.writePump()
	go func() {
		defer s.pumps.Done()
		defer s.forget(client.id)
		client.readPump(s.ctx)
	}()
}

// Close refuses new connections, closes the open ones and waits until each
// of them has left the room, or until ctx is done.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	clients := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.Unlock()

	s.log.Info("Closing websocket connections", "count", len(clients))
	for _, client := range clients {
		goAway(client.conn)
		_ = client.conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// track registers a client unless the server is closing.
func (s *Server) track(client *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[client.id] = client
	s.pumps.Add(1)
	return true
}

func (s *Server) forget(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, connID)
}

func goAway(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
