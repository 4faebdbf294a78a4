package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"ledgerpulse/pkg/contracts/domain"
)

// FeedStatusReader exposes per-feed load state
type FeedStatusReader interface {
	FeedStatuses() map[domain.FeedKind]domain.FeedStatus
	Loaded(kind domain.FeedKind) bool
}

// ClientCounter reports connected WebSocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version    string
	buildTime  string
	sourceName string
	feeds      FeedStatusReader
	hub        ClientCounter
	startTime  time.Time
	logger     *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service. hub may be nil.
func NewHealthService(version, buildTime, sourceName string, feeds FeedStatusReader, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("source", sourceName))

	return &HealthService{
		version:    version,
		buildTime:  buildTime,
		sourceName: sourceName,
		feeds:      feeds,
		hub:        hub,
		startTime:  time.Now(),
		logger:     logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check", slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready once every feed has either loaded or at
// least been attempted, so a permanently broken feed does not keep the
// dashboard from serving the other one.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	for _, kind := range domain.AllFeeds {
		status.Services["feed:"+string(kind)] = hs.checkFeedHealth(kind)
	}
	status.Services["websocket"] = hs.checkWebSocketHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"source":       hs.sourceName,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkFeedHealth(kind domain.FeedKind) ServiceHealth {
	if hs.feeds == nil {
		return ServiceHealth{Status: "not_ready", Message: "feed store not initialized"}
	}

	st := hs.feeds.FeedStatuses()[kind]
	switch {
	case hs.feeds.Loaded(kind) && st.Stale:
		return ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("serving data from %s; last fetch failed: %s", humanize.Time(st.LastSuccess), st.LastError),
		}
	case hs.feeds.Loaded(kind):
		return ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("%d records, updated %s", st.Records, humanize.Time(st.LastSuccess)),
		}
	case !st.LastAttempt.IsZero():
		return ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("never loaded: %s", st.LastError),
		}
	default:
		return ServiceHealth{Status: "not_ready", Message: "waiting for first fetch"}
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not initialized"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
