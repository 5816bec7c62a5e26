package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"groupchat/domain/event"
	"groupchat/errors"
	"groupchat/services"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket connection. It is the EventSink registered in the
// hub: Consume only enqueues, the write pump does the network I/O.
type Client struct {
	mu      sync.Mutex
	id      string
	conn    *websocket.Conn
	log     *slog.Logger
	chat    services.IChatService
	send    chan []byte
	closed  bool
	limiter *rate.Limiter
}

func newClient(id string, conn *websocket.Conn, log *slog.Logger, chat services.IChatService, cfg Config) *Client {
	conn.SetReadLimit(cfg.MaxMessageSize)
	return &Client{
		id:      id,
		conn:    conn,
		log:     log.With("conn_id", id),
		chat:    chat,
		send:    make(chan []byte, cfg.SendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
	}
}

// Consume never blocks: a full buffer drops the event for this client only.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	frame, err := Encode(e)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ErrSinkClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errors.ErrSendBufferFull
	}
}

// close stops the write pump once, later Consume calls fail fast.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump handles inbound events one at a time until the connection drops,
// then leaves the room.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.chat.Leave(ctx, c.id)
		c.close()
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if !c.limiter.Allow() {
			c.log.Warn("Rate limit exceeded, discarding frame")
			if err := c.Consume(ctx, event.Failure{Message: errors.ErrRateLimited.Error()}); err != nil {
				c.log.Debug("Rate limit notice dropped", "error", err)
			}
			continue
		}
		c.handle(ctx, frame)
	}
}

func (c *Client) handle(ctx context.Context, frame []byte) {
	env, err := Decode(frame)
	if err != nil {
		c.log.Debug("Invalid frame", "error", err)
		return
	}

	switch env.Event {
	case EventJoin:
		var data JoinData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.log.Debug("Invalid join payload", "error", err)
			return
		}
		// Rejections are already reported to the client as an error event
		_ = c.chat.Join(ctx, c.id, data.Nickname, c)
	case EventMessage:
		var data MessageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			c.log.Debug("Invalid message payload", "error", err)
			return
		}
		c.chat.Post(ctx, c.id, data.Msg)
	default:
		c.log.Debug("Unknown event", "event", env.Event)
	}
}

// writePump owns every write on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case stderrors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Frame exceeded maximum size")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure),
		stderrors.Is(err, io.EOF), stderrors.Is(err, net.ErrClosed):
		c.log.Debug("Client disconnected", "error", err)
	default:
		c.log.Warn("Websocket read error", "error", err)
	}
}
