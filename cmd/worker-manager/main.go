// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quotegenius/internal/bootstrap"
	"quotegenius/internal/common/camunda"
	"quotegenius/internal/common/config"
	"quotegenius/internal/common/logger"
	gmi "quotegenius/internal/workers/quote/generate-market-insights"
	pqr "quotegenius/internal/workers/quote/process-quote-request"
	rqf "quotegenius/internal/workers/quote/record-quote-feedback"
	rq "quotegenius/internal/workers/quote/reoptimize-quote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("backing services unavailable", zap.Error(err))
	}
	defer rt.Close()

	if err := rt.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	// --- Zeebe gateway and job workers ---
	var (
		zeebe   *camunda.Client
		workers *camunda.Workers
	)
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.Connect(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}

		jobs := camunda.NewJobs(rt.Observability, log)
		workers = camunda.NewWorkers(zeebe.Zeebe(), log)

		workers.Start(pqr.TaskType, config.GetWorkerConfig(cfg, pqr.TaskType),
			pqr.NewHandler(pqr.LoadConfig(config.GetWorkerConfig(cfg, pqr.TaskType)), rt.Coordinator, jobs, log))
		workers.Start(rq.TaskType, config.GetWorkerConfig(cfg, rq.TaskType),
			rq.NewHandler(rq.LoadConfig(config.GetWorkerConfig(cfg, rq.TaskType)), rt.Coordinator, jobs, log))
		workers.Start(rqf.TaskType, config.GetWorkerConfig(cfg, rqf.TaskType),
			rqf.NewHandler(rqf.LoadConfig(config.GetWorkerConfig(cfg, rqf.TaskType)), rt.Coordinator, jobs, log))
		workers.Start(gmi.TaskType, config.GetWorkerConfig(cfg, gmi.TaskType),
			gmi.NewHandler(gmi.LoadConfig(config.GetWorkerConfig(cfg, gmi.TaskType)), rt.Coordinator, jobs, log))

		zapLog.Info("Workers registered", zap.Int("count", workers.Count()))
	} else {
		zapLog.Warn("Camunda disabled, no job workers started")
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		rctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		err := rt.Ready(rctx)
		if err == nil && zeebe != nil {
			err = zeebe.HealthCheck(rctx)
		}
		if err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	server := &http.Server{
		Addr:              cfg.Observability.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if workers != nil {
		workers.Close()
	}
	if err := rt.Coordinator.Drain(shutdownCtx); err != nil {
		zapLog.Warn("Pending notifications abandoned", zap.Error(err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
