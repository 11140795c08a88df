// Package app assembles the dashboard service, HTTP router and server
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pitchpulse/internal/config"
	apierrors "pitchpulse/internal/errors"
	"pitchpulse/internal/infrastructure"
	"pitchpulse/internal/middleware"
	"pitchpulse/internal/services"
	transporthttp "pitchpulse/internal/transport/http"
)

// Application owns the wired components and the HTTP server.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Router  chi.Router
	Server  *http.Server
	Service *services.DashboardService
	Metrics *middleware.Metrics
}

// New loads configuration, initializes logging and wires the router.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("load configuration", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig wires an application from an already-validated config.
func NewWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Service: services.NewDashboardService(cfg, logger, metrics),
		Metrics: metrics,
	}
	app.setupRouter(registry)
	app.createServer()
	return app, nil
}

func (a *Application) setupRouter(registry *prometheus.Registry) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.Logger))
	r.Use(middleware.RateLimit(a.Config.Server.RateLimit))
	r.Use(a.Metrics.Handler)

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	dataHandler := transporthttp.NewDataHandler(a.Service, a.Logger, errorHandler)
	healthHandler := transporthttp.NewHealthHandler(a.Logger, []string{
		a.Config.GPSPath(),
		a.Config.RecoveryPath(),
		a.Config.CapabilityPath(),
		a.Config.PriorityPath(),
		a.Config.CalendarPath(),
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/data", dataHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.VersionInfo)
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Config.Data.Dir),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.Logger.Info("shutting down server")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	infrastructure.CloseLogFile()
	return nil
}
