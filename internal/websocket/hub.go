package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"ledgerpulse/internal/infrastructure"
	"ledgerpulse/pkg/contracts/events"
)

const broadcastBuffer = 64

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      events.MessageType `json:"type"`
	Data      any                `json:"data,omitempty"`
	Timestamp string             `json:"timestamp"`
	TraceID   string             `json:"trace_id,omitempty"`
}

type outbound struct {
	ctx     context.Context
	msgType events.MessageType
	payload []byte
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	metrics *infrastructure.DashboardMetrics

	// last dashboard:snapshot, replayed to new clients
	lastSnapshot []byte

	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	pingPeriod time.Duration
	pongWait   time.Duration

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithMetrics records connections and broadcasts into m
func WithMetrics(m *infrastructure.DashboardMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithKeepalive overrides the ping period and pong wait of client connections
func WithKeepalive(pingPeriod, pongWait time.Duration) HubOption {
	return func(h *Hub) {
		if pingPeriod > 0 {
			h.pingPeriod = pingPeriod
		}
		if pongWait > 0 {
			h.pongWait = pongWait
		}
	}
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		pingPeriod: defaultPingPeriod,
		pongWait:   defaultPongWait,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start runs the hub loop in its own goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "closed")

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.totalConnections++
	snapshot := h.lastSnapshot
	h.mu.Unlock()

	ctx := client.context()
	h.logger.InfoContext(ctx, "client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(ctx, 1)
	}

	welcome, err := encode(ctx, events.MessageTypeConnection, map[string]any{
		"status":    "connected",
		"client_id": client.id,
	})
	if err == nil {
		client.trySend(welcome)
	}
	if snapshot != nil {
		client.trySend(snapshot)
	}
}

func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	client.closeSend()
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	h.logger.InfoContext(ctx, "client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))

	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(ctx, -1)
	}
}

func (h *Hub) fanOut(msg outbound) {
	h.mu.Lock()
	if msg.msgType == events.MessageTypeDashboardSnapshot {
		h.lastSnapshot = msg.payload
	}
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	var sent, dropped int
	for _, client := range clients {
		if client.trySend(msg.payload) {
			sent++
			continue
		}
		dropped++
		h.removeClient(client, "send buffer full")
	}

	h.mu.Lock()
	h.messagesSent += int64(sent)
	h.messagesDropped += int64(dropped)
	h.mu.Unlock()

	h.logger.DebugContext(msg.ctx, "broadcast delivered",
		slog.String("type", string(msg.msgType)),
		slog.Int("clients", len(clients)),
		slog.Int("dropped", dropped),
		slog.Int("payload_size", len(msg.payload)))

	if h.metrics != nil {
		h.metrics.WebSocketBroadcasts.Add(msg.ctx, 1,
			metric.WithAttributes(attribute.String("type", string(msg.msgType))))
	}
}

// BroadcastMessage sends a typed message to every connected client. The
// trace ID of ctx travels in the envelope. It returns without sending once
// the hub has stopped or ctx is done.
func (h *Hub) BroadcastMessage(ctx context.Context, msgType events.MessageType, data any) {
	payload, err := encode(ctx, msgType, data)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal message",
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
		return
	}

	// Detach from request cancellation; only the trace ID is needed downstream
	msg := outbound{ctx: context.WithoutCancel(ctx), msgType: msgType, payload: payload}
	select {
	case h.broadcast <- msg:
	case <-h.quit:
	case <-ctx.Done():
		h.logger.WarnContext(ctx, "broadcast abandoned", slog.String("type", string(msgType)))
	}
}

func encode(ctx context.Context, msgType events.MessageType, data any) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.closeSend()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns counters for the version and debug endpoints
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]any{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
	}
}

// Stop ends the hub loop and closes every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}
}
