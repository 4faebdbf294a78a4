package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"ledgerpulse/internal/config"
)

// MeterName is the instrumentation scope for tracers and meters
const MeterName = "ledgerpulse"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// OTelConfigFrom maps the telemetry config section
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    cfg.Environment,
		TraceExporter:  cfg.TraceExporter,
		MetricExporter: cfg.MetricExporter,
		SampleRatio:    cfg.SampleRatio,
	}
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	return OTelConfigFrom(config.Default().Telemetry)
}

// InitializeOTel initializes tracing and metrics. Exporters set to "none"
// leave the corresponding provider nil and the global no-op in place.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "initializing opentelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
		Tracer: otel.Tracer(MeterName),
		Meter:  noop.NewMeterProvider().Meter(MeterName),
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics. Each provider gets its
// own Prometheus registry so repeated initialization never collides.
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// DashboardMetrics holds all application-specific instruments
type DashboardMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Refresh cycle metrics
	RefreshCyclesTotal   metric.Int64Counter
	RefreshCycleDuration metric.Float64Histogram
	RefreshInFlight      metric.Int64UpDownCounter

	// Feed metrics
	FeedFetchesTotal  metric.Int64Counter
	FeedFetchErrors   metric.Int64Counter
	FeedFetchDuration metric.Float64Histogram
	FeedBytes         metric.Int64Counter
	RowsParsed        metric.Int64Counter
	RowsDropped       metric.Int64Counter

	// Export metrics
	ExportsTotal metric.Int64Counter

	// WebSocket metrics
	WebSocketConnections metric.Int64UpDownCounter
	WebSocketBroadcasts  metric.Int64Counter
}

// CreateDashboardMetrics creates application-specific metrics
func CreateDashboardMetrics(meter metric.Meter) (*DashboardMetrics, error) {
	var (
		m    DashboardMetrics
		errs []error
	)

	counter := func(name, desc string, opts ...metric.Int64CounterOption) metric.Int64Counter {
		c, err := meter.Int64Counter(name, append(opts, metric.WithDescription(desc))...)
		errs = append(errs, err)
		return c
	}
	updown := func(name, desc string) metric.Int64UpDownCounter {
		c, err := meter.Int64UpDownCounter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}

	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	m.HTTPRequestDuration = seconds("http_request_duration_seconds", "HTTP request duration in seconds")
	m.HTTPActiveRequests = updown("http_active_requests", "Number of active HTTP requests")

	m.RefreshCyclesTotal = counter("refresh_cycles_total", "Total number of refresh cycles by outcome")
	m.RefreshCycleDuration = seconds("refresh_cycle_duration_seconds", "Refresh cycle duration in seconds")
	m.RefreshInFlight = updown("refresh_cycles_in_flight", "Number of refresh cycles currently running")

	m.FeedFetchesTotal = counter("feed_fetches_total", "Total number of feed fetch attempts")
	m.FeedFetchErrors = counter("feed_fetch_errors_total", "Total number of failed feed fetches by error kind")
	m.FeedFetchDuration = seconds("feed_fetch_duration_seconds", "Feed fetch duration in seconds")
	m.FeedBytes = counter("feed_bytes_total", "Total bytes downloaded from feeds", metric.WithUnit("By"))
	m.RowsParsed = counter("feed_rows_parsed_total", "Total number of records produced from feed rows")
	m.RowsDropped = counter("feed_rows_dropped_total", "Total number of feed rows dropped as malformed")

	m.ExportsTotal = counter("exports_total", "Total number of exports by format")

	m.WebSocketConnections = updown("websocket_connections", "Number of connected WebSocket clients")
	m.WebSocketBroadcasts = counter("websocket_broadcasts_total", "Total number of WebSocket broadcasts")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

// NoopDashboardMetrics returns instruments that record nothing
func NoopDashboardMetrics() *DashboardMetrics {
	m, _ := CreateDashboardMetrics(noop.NewMeterProvider().Meter(MeterName))
	return m
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %w", errors.Join(errs...))
	}

	p.Logger.InfoContext(ctx, "opentelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// RecordFeedFetch records the outcome of one feed fetch
func RecordFeedFetch(ctx context.Context, m *DashboardMetrics, feed string, duration time.Duration, bytes int64, errKind string) {
	if m == nil {
		return
	}

	feedAttr := attribute.String("feed", feed)
	status := "success"
	if errKind != "" {
		status = "failure"
		m.FeedFetchErrors.Add(ctx, 1, metric.WithAttributes(feedAttr, attribute.String("error.kind", errKind)))
	}

	m.FeedFetchesTotal.Add(ctx, 1, metric.WithAttributes(feedAttr, attribute.String("status", status)))
	m.FeedFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(feedAttr, attribute.String("status", status)))
	if bytes > 0 {
		m.FeedBytes.Add(ctx, bytes, metric.WithAttributes(feedAttr))
	}
}

// RecordRows records how many rows a parse produced and dropped
func RecordRows(ctx context.Context, m *DashboardMetrics, feed string, parsed, dropped int) {
	if m == nil {
		return
	}
	feedAttr := metric.WithAttributes(attribute.String("feed", feed))
	m.RowsParsed.Add(ctx, int64(parsed), feedAttr)
	m.RowsDropped.Add(ctx, int64(dropped), feedAttr)
}

// RecordRefreshCycle records a completed refresh cycle. outcome is one of
// "success", "partial" or "failure".
func RecordRefreshCycle(ctx context.Context, m *DashboardMetrics, duration time.Duration, outcome string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.RefreshCyclesTotal.Add(ctx, 1, attrs)
	m.RefreshCycleDuration.Record(ctx, duration.Seconds(), attrs)
}
