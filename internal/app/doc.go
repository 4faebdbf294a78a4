// Package app wires the dashboard together and manages its lifecycle.
//
// New builds every component from a config.Config: the slog logger, the
// OpenTelemetry providers, the feed source, the in-memory store, the
// dashboard and health services, the refresh scheduler, the WebSocket hub
// and the exporter. The chi router mounts the JSON API under /api, the
// WebSocket endpoint at /ws and the Prometheus handler at /metrics.
//
// Start launches the hub, the scheduler and the HTTP server. Stop drains
// the server, waits for in-flight refresh cycles and closes WebSocket
// clients. Run does both around SIGINT and SIGTERM.
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
