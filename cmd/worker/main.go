package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vaishnavisk20/secure-kyc-portal/internal/bootstrap"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/config"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/core/domain"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/observability/logging"
	"github.com/Vaishnavisk20/secure-kyc-portal/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeSessionDecided(ctx, func(handlerCtx context.Context, rec domain.DecisionRecord) error {
		workerMetrics.StartDecision()
		workerMetrics.ObserveQueueLag("worker", time.Since(rec.DecidedAt))
		start := time.Now()

		persistCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()
		persistErr := app.Decisions.Create(persistCtx, &rec)

		workerMetrics.FinishDecision("worker", time.Since(start), persistErr)
		return persistErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("worker metrics shutdown error", "error", err)
	}
}
