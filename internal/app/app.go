package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"ledgerpulse/internal/config"
	apierrors "ledgerpulse/internal/errors"
	"ledgerpulse/internal/exporter"
	"ledgerpulse/internal/feeds"
	"ledgerpulse/internal/infrastructure"
	customMiddleware "ledgerpulse/internal/middleware"
	"ledgerpulse/internal/services"
	"ledgerpulse/internal/store"
	handlers "ledgerpulse/internal/transport/http"
	ws "ledgerpulse/internal/websocket"
)

// BuildTime is set at link time
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.DashboardMetrics
	Store            *store.MemoryStore
	Source           feeds.Source
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Scheduler        *services.Scheduler
	WebSocketHub     *ws.Hub
	Exporter         *exporter.Exporter
	ErrorHandler     *apierrors.ErrorHandler
}

// Option customizes an Application before its services are built
type Option func(*Application)

// WithLogger replaces the logger built from the logging config
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) { a.Logger = logger }
}

// WithSource replaces the feed source selected by the feeds config
func WithSource(source feeds.Source) Option {
	return func(a *Application) { a.Source = source }
}

// NewApplication loads configuration from configFile (or the default
// search locations when empty) and wires the application
func NewApplication(configFile string, opts ...Option) (*Application, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(cfg, opts...)
}

// New wires every component for cfg
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	a := &Application{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		logger, err := infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.Logger = logger
	}

	a.Logger.Info("application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("source", cfg.Feeds.Source))

	if err := a.initializeServices(); err != nil {
		return nil, err
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) initializeServices() error {
	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(a.Config.Telemetry), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.OTelProviders = providers

	metrics, err := infrastructure.CreateDashboardMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	a.Metrics = metrics

	if a.Source == nil {
		source, err := feeds.New(context.Background(), a.Config.Feeds, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create feed source: %w", err)
		}
		a.Source = source
	}

	a.WebSocketHub = ws.NewHub(a.Logger,
		ws.WithMetrics(metrics),
		ws.WithKeepalive(a.Config.WebSocket.PingPeriod, a.Config.WebSocket.PongWait))

	a.Store = store.NewMemoryStore()
	a.DashboardService = services.NewDashboardService(services.DashboardDeps{
		Source:         a.Source,
		Store:          a.Store,
		Hub:            a.WebSocketHub,
		Metrics:        metrics,
		Logger:         a.Logger,
		TopClients:     config.TopClientLimit,
		RefreshTimeout: a.Config.Server.RefreshTimeout,
	})
	a.Scheduler = services.NewScheduler(a.DashboardService, a.Config.Feeds.RefreshInterval, a.Logger)
	a.HealthService = services.NewHealthService(config.AppVersion, BuildTime, a.Source.Name(), a.Store, a.WebSocketHub, a.Logger)
	a.Exporter = exporter.New(a.Config.Export, metrics, a.Logger)
	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	a.Logger.Info("services initialized", slog.String("feed_source", a.Source.Name()))
	return nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// The WebSocket route only gets middleware that leaves the
	// ResponseWriter unwrapped, otherwise the upgrade cannot hijack it
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Handle(config.WebSocketEndpoint, ws.NewHandler(a.WebSocketHub, ws.HandlerConfig{
		AllowedOrigins:  a.Config.Security.AllowedOrigins,
		AllowAnyOrigin:  !a.Config.Security.EnableCORS,
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
	}, a.Logger))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	health := handlers.NewHealthHandler(a.HealthService, a.Logger)
	dashboard := handlers.NewDashboardHandler(a.DashboardService, a.Exporter, a.Logger, a.ErrorHandler)

	r.Route(config.APIBasePath, func(r chi.Router) {
		health.Routes(r)

		// A manual refresh may legitimately run up to the refresh timeout
		r.With(customMiddleware.Timeout(a.Config.Server.RefreshTimeout + 5*time.Second)).Group(dashboard.Routes)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Request-ID",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the hub, the refresh scheduler and the HTTP server. A
// listener failure calls cancel so Run can shut down.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.Duration("refresh_interval", a.Config.Feeds.RefreshInterval))

	a.WebSocketHub.Start()

	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop shuts the server down, waits for in-flight refresh cycles and
// closes every WebSocket client
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.Scheduler.Stop()
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down opentelemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "server stopped unexpectedly")
	}

	// Shutdown must outlive the cancelled run context
	return a.Stop(context.WithoutCancel(ctx))
}
