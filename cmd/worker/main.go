package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/resume-insight/internal/bootstrap"
	"github.com/kirillkom/resume-insight/internal/config"
	"github.com/kirillkom/resume-insight/internal/core/domain"
	"github.com/kirillkom/resume-insight/internal/observability/logging"
)

const serviceName = "resume-insight-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSRequestSubject, "providers", len(app.Providers))
	err = app.Queue.SubscribeAnalysisRequests(ctx, func(handlerCtx context.Context, request domain.AnalysisRequest) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		app.Metrics.StartRun()
		start := time.Now()
		result, err := app.AnalyzeUC.Analyze(runCtx, request)
		app.Metrics.FinishRun(serviceName, runOutcome(result, err), time.Since(start))
		if err != nil {
			return err
		}

		logger.Info("analysis_completed",
			"record_id", result.Record.ID,
			"provider", result.Provider,
			"used_fallback", result.UsedFallback,
			"status", result.Status,
		)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

func runOutcome(result *domain.AnalysisResult, err error) string {
	switch {
	case err != nil:
		return "failed"
	case result != nil && result.UsedFallback:
		return "degraded"
	default:
		return "done"
	}
}
