package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/handlers"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/api/middleware"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/config"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/engine"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/observability"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/service"
	"github.com/justdoitDT/demo-talent-manager-portal/internal/workers"
)

const meterName = "matcher"

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	db             *pgxpool.Pool
	server         *http.Server
	river          *river.Client[pgx.Tx]
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

// setupMetrics creates the meter provider and metrics when metrics are enabled.
// promHandler is non-nil only for the prometheus exporter.
func setupMetrics(cfg *config.Config) (*sdkmetric.MeterProvider, *observability.Metrics, http.Handler, error) {
	mp, promHandler, err := observability.NewMeterProvider(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create meter provider: %w", err)
	}

	if mp == nil {
		return nil, nil, nil, nil
	}

	metrics, err := observability.NewMetrics(mp.Meter(meterName))
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(context.Background(), mp); err2 != nil {
			slog.Error("shutdown meter provider after metrics error", "error", err2)
		}

		return nil, nil, nil, fmt.Errorf("create metrics: %w", err)
	}

	return mp, metrics, promHandler, nil
}

// NewApp builds and wires all components. It does not start the HTTP server or River;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (app *App, err error) {
	var (
		meterProvider  *sdkmetric.MeterProvider
		tracerProvider *sdktrace.TracerProvider
		metrics        *observability.Metrics
		promHandler    http.Handler
	)

	// Providers created so far are released when a later step fails.
	defer func() {
		if err == nil {
			return
		}

		if obsErr := shutdownObservability(context.Background(), tracerProvider, meterProvider); obsErr != nil {
			slog.Error("shutdown observability after setup error", "error", obsErr)
		}
	}()

	if cfg.OtelMetricsExporter == "" {
		slog.Warn("metrics not enabled (OTEL_METRICS_EXPORTER empty or unset)")
	} else {
		meterProvider, metrics, promHandler, err = setupMetrics(cfg)
		if err != nil {
			return nil, err
		}
	}

	if cfg.OtelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("create tracer provider: %w", err)
		}

		otel.SetTracerProvider(tracerProvider)
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	eng, err := engine.New(ctx, cfg, db, metrics)
	if err != nil {
		return nil, err
	}

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewBackfillWorker(eng.Backfill))
	river.AddWorker(riverWorkers, workers.NewRebuildEmbeddingsWorker(eng.Index))

	riverConfig := &river.Config{
		Queues: map[string]river.QueueConfig{
			service.MatchingQueueName: {MaxWorkers: cfg.RiverWorkers},
		},
		Workers:      riverWorkers,
		ErrorHandler: &workers.ErrorHandler{},
		Logger:       slog.Default(),
	}

	if cfg.NightlyRebuildEnabled {
		riverConfig.PeriodicJobs = workers.NightlyRebuildJobs(cfg.NightlyRebuildInterval)
		slog.Info("nightly embedding rebuild enabled", "interval", cfg.NightlyRebuildInterval)
	}

	riverClient, err := river.NewClient(riverpgxv5.New(db), riverConfig)
	if err != nil {
		return nil, fmt.Errorf("create River client: %w", err)
	}

	eng.Backfill.SetInserter(riverClient)

	if meterProvider != nil {
		if err = observability.RegisterQueueDepth(meterProvider.Meter(meterName), workers.QueueDepth(riverClient)); err != nil {
			return nil, err
		}
	}

	var apiMetrics observability.APIMetrics
	if metrics != nil {
		apiMetrics = metrics.API
	}

	server := newHTTPServer(cfg, routes{
		health:     handlers.NewHealthHandler(db),
		openings:   handlers.NewOpeningsHandler(eng.Forward),
		persons:    handlers.NewPersonsHandler(eng.Reverse),
		backfill:   handlers.NewBackfillHandler(eng.Backfill),
		embeddings: handlers.NewEmbeddingsHandler(eng.Index),
		prometheus: promHandler,
	}, apiMetrics, meterProvider, tracerProvider)

	return &App{
		cfg:            cfg,
		db:             db,
		server:         server,
		river:          riverClient,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
	}, nil
}

type routes struct {
	health     *handlers.HealthHandler
	openings   *handlers.OpeningsHandler
	persons    *handlers.PersonsHandler
	backfill   *handlers.BackfillHandler
	embeddings *handlers.EmbeddingsHandler
	prometheus http.Handler
}

// newHTTPServer builds the HTTP server and muxes (no auth on /health and /metrics, API key on /v1/).
// Handler chain: RequestID -> otelhttp(Logging(mux)) so access logs get trace_id/span_id from context.
func newHTTPServer(
	cfg *config.Config,
	rt routes,
	apiMetrics observability.APIMetrics,
	meterProvider *sdkmetric.MeterProvider,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	public := http.NewServeMux()
	public.HandleFunc("GET /health", rt.health.Check)

	if rt.prometheus != nil {
		public.Handle("GET /metrics", rt.prometheus)
	}

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/openings/{id}/rank", rt.openings.Rank)
	protected.HandleFunc("GET /v1/openings/{id}/latest", rt.openings.Latest)

	protected.HandleFunc("POST /v1/persons/{id}/openings/rank", rt.persons.Rank)
	protected.HandleFunc("POST /v1/persons/{id}/openings/lookup", rt.persons.Lookup)
	protected.HandleFunc("GET /v1/persons/{id}/openings/latest", rt.persons.Latest)

	protected.HandleFunc("POST /v1/backfill/openings", rt.backfill.Run)
	protected.HandleFunc("GET /v1/backfill/openings/preview", rt.backfill.Preview)
	protected.HandleFunc("POST /v1/backfill/openings/async", rt.backfill.Enqueue)

	protected.HandleFunc("GET /v1/embeddings/persons/{id}/status", rt.embeddings.PersonStatus)
	protected.HandleFunc("POST /v1/embeddings/persons/rebuild", rt.embeddings.RebuildPersons)
	protected.HandleFunc("POST /v1/embeddings/persons/{id}/rebuild", rt.embeddings.RebuildPerson)
	protected.HandleFunc("POST /v1/embeddings/openings/rebuild", rt.embeddings.RebuildOpenings)

	// Metrics wraps the protected mux directly so it sees the matched pattern.
	var protectedHandler http.Handler = middleware.Metrics(apiMetrics)(protected)
	protectedHandler = middleware.MaxBody(cfg.MaxRequestBodyBytes, apiMetrics)(protectedHandler)
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)

	mux := http.NewServeMux()
	mux.Handle("/v1/", protectedHandler)
	mux.Handle("/", public)

	otelOpts := []otelhttp.Option{
		// Skip tracing and HTTP metrics for health checks and scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(meterProvider))
	}

	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	// Logging runs inside otelhttp so r.Context() has the span when we log (trace_id/span_id in access logs).
	inner := middleware.Logging(mux)
	handler := otelhttp.NewHandler(inner, "matcher-api", otelOpts...)
	handler = middleware.RequestID(handler)

	// Rank and backfill calls wait on the embedding and LLM providers.
	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 5 * time.Minute
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and River, then blocks until ctx is cancelled (e.g. signal)
// or a component fails. Either way the internal River context is cancelled before Run returns.
// Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	go func() {
		if err := a.river.Start(riverCtx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case runErr <- fmt.Errorf("river: %w", err):
			default:
			}
		}
	}()

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		cancelRiver()

		return err
	case <-ctx.Done():
		cancelRiver()

		return nil
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) error {
	var first error

	if tracer != nil {
		if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
			first = err
		}
	}

	if meter != nil {
		if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
			if first == nil {
				first = err
			} else {
				slog.Error("shutdown meter provider", "error", err)
			}
		}
	}

	return first
}

// Shutdown stops the server and River in order. Call after Run returns.
// Observability is shut down once via defer; its error is returned only when server and River shut down successfully.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if stopErr := a.river.Stop(ctx); stopErr != nil {
			slog.Error("river stop during server shutdown", "error", stopErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if err = a.river.Stop(ctx); err != nil {
		return fmt.Errorf("river stop: %w", err)
	}

	return nil
}
