package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ledgerpulse/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	defaultPongWait = 60 * time.Second

	// Must be less than pongWait
	defaultPingPeriod = (defaultPongWait * 9) / 10

	// Clients only send heartbeats
	maxMessageSize = 512

	sendBuffer = 16
)

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn Connection

	// Buffered channel of outbound messages
	send      chan []byte
	closeOnce sync.Once

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
}

// NewClient creates a client for conn. traceID ties the connection's logs
// to the upgrade request.
func NewClient(hub *Hub, conn Connection, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.NewString()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id)),
	}
}

// ID returns the client identifier
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	if c.traceID == "" {
		return context.Background()
	}
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// trySend queues a message without blocking and reports whether it fit
func (c *Client) trySend(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// ReadPump reads until the connection fails. Incoming frames are only used
// to keep the connection alive.
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		c.logger.InfoContext(ctx, "client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.pongWait
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(ctx, "unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived++
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// WritePump writes queued messages and pings until the hub closes the
// send channel or a write fails.
func (c *Client) WritePump() {
	ctx := c.context()
	ticker := time.NewTicker(c.hub.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(ctx, "write pump stopped", slog.Int64("messages_sent", c.messagesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.WarnContext(ctx, "write failed", slog.String("error", err.Error()))
				return
			}
			c.messagesSent++

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "ping failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}
