package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"climate-api/internal/config"
	"climate-api/internal/db"
	"climate-api/internal/httpapi"
	"climate-api/internal/metrics"
	"climate-api/internal/modules/climate"
	"climate-api/internal/modules/climate/repository"
	"climate-api/internal/modules/climate/service"
)

const shutdownTimeout = 10 * time.Second

// Handler is everything the HTTP server needs besides the listener.
type Handler struct {
	http.Handler
	Observer httpapi.RequestObserver
}

// Build checks the dataset schema and assembles the routes over conn.
func Build(ctx context.Context, cfg config.Config, conn *sql.DB) (*Handler, error) {
	if err := db.VerifySchema(ctx, conn); err != nil {
		return nil, err
	}

	var (
		queryObserver   service.QueryObserver
		requestObserver httpapi.RequestObserver
		metricsHandler  http.Handler
	)
	if cfg.MetricsEnabled {
		m := metrics.NewManager(
			metrics.WithNamespace(cfg.MetricsNamespace),
			metrics.WithRuntimeMetrics(true),
		)
		queryObserver, requestObserver, metricsHandler = m, m, m.Handler()
	}

	mux := http.NewServeMux()
	svc, err := climate.RegisterFeature(ctx, mux, conn, cfg, queryObserver)
	if err != nil {
		return nil, err
	}
	httpapi.RegisterRoutes(mux, svc, metricsHandler)
	slog.Info("dataset ready", "cutoff", svc.Cutoff().Format(repository.DateLayout))

	return &Handler{Handler: httpapi.JSONErrors(mux), Observer: requestObserver}, nil
}

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"dbLogSQL", cfg.LogSQL,
		"queryTimeout", cfg.QueryTimeout,
		"referenceDate", cfg.ReferenceDate,
		"metricsEnabled", cfg.MetricsEnabled,
		"metricsNamespace", cfg.MetricsNamespace,
	)

	dbConn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	slog.Info("database connection successful")

	h, err := Build(ctx, cfg, dbConn)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg, h.Handler, h.Observer)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
