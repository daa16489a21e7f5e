package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dbusana/internal/analytics"
	"dbusana/internal/cache"
	"dbusana/internal/config"
	apierrors "dbusana/internal/errors"
	"dbusana/internal/exporter"
	"dbusana/internal/forecast"
	"dbusana/internal/importer"
	"dbusana/internal/infrastructure"
	customMiddleware "dbusana/internal/middleware"
	"dbusana/internal/sales"
	"dbusana/internal/services"
	handlers "dbusana/internal/transport/http"
	ws "dbusana/internal/websocket"
	"dbusana/pkg/contracts"
)

const (
	VERSION = contracts.Version
	AppName = "D'Busana Sales Dashboard"
)

// BuildTime is set at build time via -ldflags on pkg/contracts.
var BuildTime = contracts.BuildTime

// Import and forecast requests run the full pipeline inline, so they
// get a longer deadline than the regular API surface.
const longRequestTimeout = 2 * time.Minute

// runtimeMetricsInterval is how often the Go runtime is sampled onto
// the Prometheus endpoint.
const runtimeMetricsInterval = 30 * time.Second

// Application is the main application container. It owns the
// configuration, the HTTP server and every wired service.
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	RuntimeCollector *infrastructure.RuntimeMetricsCollector

	WebSocketHub *ws.Hub
	SalesStore   *sales.Store
	BatchStore   *importer.BatchStore
	SummaryCache cache.DashboardSummaryCache

	DataService     *services.DataService
	ImportService   *services.ImportService
	ForecastService *services.ForecastService
	HealthService   *services.HealthService
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	if err := ws.InitOTelMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize WebSocket OpenTelemetry metrics: %w", err)
	}

	runtimeCollector, err := infrastructure.NewRuntimeMetricsCollector(otelProviders.Meter, runtimeMetricsInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize runtime metrics: %w", err)
	}

	app := &Application{
		Config:           cfg,
		Logger:           logger,
		OTelProviders:    otelProviders,
		RuntimeCollector: runtimeCollector,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the stores, the import pipeline and the
// service layer in dependency order.
func (a *Application) initializeServices() error {
	a.WebSocketHub = ws.NewHub(a.Logger)

	store, err := sales.NewStore(a.Config.SalesFilePath(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open sales store: %w", err)
	}
	a.SalesStore = store

	a.SummaryCache = cache.NewNoopDashboardCache()
	if a.Config.Cache.Enabled {
		summaryCache, err := cache.NewDashboardCache(a.Config.Cache)
		if err != nil {
			// The dashboard works without Redis, only slower.
			a.Logger.Warn("Summary cache unavailable, continuing without it",
				slog.String("error", err.Error()),
				slog.String("addr", a.Config.Cache.Addr))
		} else {
			a.SummaryCache = summaryCache
		}
	}

	a.BatchStore = importer.NewBatchStore()

	importTracer, err := importer.NewImportTracer(a.OTelProviders)
	if err != nil {
		a.Logger.Warn("Import tracing unavailable", slog.String("error", err.Error()))
		importTracer = nil
	}
	pipeline := importer.NewPipeline(a.SalesStore, a.BatchStore, a.WebSocketHub, importTracer, a.Logger)

	summarizer := analytics.NewSummarizer(a.Logger, analytics.SummarizerConfig{})
	engine := forecast.NewEngine(a.Logger)
	forecastExporter := exporter.NewForecastExporter(a.Config.Paths.ExportDir)

	forecastMetrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		a.Logger.Warn("Forecast metrics unavailable", slog.String("error", err.Error()))
		forecastMetrics = nil
	}

	a.DataService = services.NewDataService(a.SalesStore, summarizer, a.SummaryCache, a.Logger)
	a.ImportService = services.NewImportService(pipeline, a.BatchStore, a.SummaryCache, a.Logger)
	a.ForecastService = services.NewForecastService(engine, a.SalesStore, forecastExporter, a.WebSocketHub, forecastMetrics, a.Config.Forecast, a.Logger)
	a.HealthService = services.NewHealthService(VERSION, BuildTime, a.Config.Paths, a.SalesStore, a.BatchStore, a.WebSocketHub, a.Logger)

	a.Logger.Info("Services initialized",
		slog.Int("sales_records", a.SalesStore.Count()),
		slog.Bool("summary_cache", a.Config.Cache.Enabled))

	return nil
}

// setupRouter configures the chi router and middleware stack
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that does not wrap the ResponseWriter, so
	// the WebSocket upgrade keeps working.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	wsHandler := handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	// Everything else runs behind the full middleware stack.
	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		businessMetrics, _ := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
		r.Use(customMiddleware.BusinessMetricsMiddleware(businessMetrics))

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
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

	// Prometheus scrape endpoint outside the middleware group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	validator := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Read-side endpoints get the standard timeout.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Mount("/health", healthHandler.Routes())

			dataHandler := handlers.NewDataHandler(a.DataService, validator, a.Logger, errorHandler)
			r.Mount("/data", dataHandler.Routes())
		})

		// Import and forecast run their pipelines inline.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(longRequestTimeout, a.Logger))
			r.Use(customMiddleware.AuditLog(a.Logger))

			importHandler := handlers.NewImportHandler(
				a.ImportService,
				a.Config.Paths.ImportDir,
				a.Config.Server.MaxUploadBytes,
				a.Logger,
				errorHandler,
			)
			r.Mount("/import", importHandler.Routes())

			forecastHandler := handlers.NewForecastHandler(a.ForecastService, validator, a.Logger, errorHandler)
			r.Mount("/forecast", forecastHandler.Routes())
		})
	})
}

// getCORSConfig builds the CORS policy from configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := a.Config.Security.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)}
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Config.Paths.DataDir))

	a.WebSocketHub.Start()
	go a.RuntimeCollector.Start(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.Int("sales_records", a.SalesStore.Count()))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()
	a.RuntimeCollector.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
