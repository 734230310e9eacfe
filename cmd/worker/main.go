package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/docgate/internal/bootstrap"
	"github.com/kirillkom/docgate/internal/config"
	"github.com/kirillkom/docgate/internal/observability/logging"
	"github.com/kirillkom/docgate/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("docgate-"+service, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	validationMetrics := metrics.NewValidationMetrics(service, workerMetrics.Registry())

	app, err := bootstrap.New(ctx, cfg, validationMetrics, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSRequestSubject, "metrics_addr", metricsServer.Addr)
	err = app.Queue.SubscribeValidationRequested(ctx, func(handlerCtx context.Context, validationID string) error {
		if rec, err := app.Repo.GetByID(handlerCtx, validationID); err == nil {
			workerMetrics.ObserveQueueLag(service, time.Since(rec.CreatedAt))
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		started := time.Now()
		workerMetrics.StartValidation()
		err := app.ProcessUC.ProcessByID(processCtx, validationID)
		workerMetrics.FinishValidation(service, time.Since(started), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
