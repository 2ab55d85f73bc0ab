package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abacus-tab/abacus/pkg/observability/attr"
)

const shutdownTimeout = 15 * time.Second

// Run serves the API and runs modules until ctx is done, then shuts down.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	var wg sync.WaitGroup
	wg.Add(1)
	go app.Tournament.Run(ctx, &wg)

	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 2)
	go func() {
		logger.Info("Starting HTTP server", attr.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	// METRICS_ADDRESS also serves /metrics on its own listener.
	var metricsSrv *http.Server
	if addr := app.Config.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.Observability.Registry, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down application")
	case runErr = <-errs:
		logger.Error("Server failed", attr.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", attr.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("Application close failed", attr.Error(err))
	}
	wg.Wait()
	return runErr
}
