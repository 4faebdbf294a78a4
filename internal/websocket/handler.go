package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"ledgerpulse/internal/infrastructure"
)

// HandlerConfig controls the upgrade endpoint
type HandlerConfig struct {
	AllowedOrigins  []string
	AllowAnyOrigin  bool
	ReadBufferSize  int
	WriteBufferSize int
}

// Handler upgrades requests and attaches the connection to a hub
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates the /ws endpoint handler
func NewHandler(hub *Hub, cfg HandlerConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{hub: hub, logger: logger.With(slog.String("component", "websocket.handler"))}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Same-origin and non-browser clients send no Origin
			if origin == "" || cfg.AllowAnyOrigin {
				return true
			}
			if slices.Contains(cfg.AllowedOrigins, origin) {
				return true
			}
			h.logger.WarnContext(r.Context(), "websocket origin rejected",
				slog.String("origin", origin),
				slog.Any("allowed_origins", cfg.AllowedOrigins))
			return false
		},
	}
	return h
}

// ServeHTTP upgrades the connection and starts the client pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	client := NewClient(h.hub, NewConnectionWrapper(conn), traceID, h.logger)
	h.hub.Register(client)

	h.logger.InfoContext(ctx, "websocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))

	go client.WritePump()
	go client.ReadPump()
}
