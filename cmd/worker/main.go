package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docdesk/docdesk/internal/config"
	"github.com/docdesk/docdesk/internal/core/domain"
	natsqueue "github.com/docdesk/docdesk/internal/infrastructure/queue/nats"
	"github.com/docdesk/docdesk/internal/observability/logging"
	"github.com/docdesk/docdesk/internal/observability/metrics"
)

const service = "docdesk-worker"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		log.Fatalf("worker queue error: %v", err)
	}
	defer queue.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := startMetricsServer(cfg.WorkerMetricsPort, workerMetrics)

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = queue.SubscribeResolutions(ctx, func(handlerCtx context.Context, payload []byte) error {
		workerMetrics.StartEvent()
		defer workerMetrics.FinishEvent()
		return handleResolutionEvent(handlerCtx, workerMetrics, payload)
	})
	if err != nil {
		log.Printf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker metrics shutdown error: %v", err)
	}
}

func handleResolutionEvent(_ context.Context, workerMetrics *metrics.WorkerMetrics, payload []byte) error {
	var event domain.ResolutionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		workerMetrics.RecordFailure(service, "decode")
		return fmt.Errorf("decode resolution event: %w", err)
	}

	workerMetrics.RecordEvent(service, string(event.Source), event.Confidence)
	workerMetrics.AddDegradedVerdicts(service, event.DegradedVerdicts)
	workerMetrics.ObserveQueueLag(service, event.CreatedAt)

	slog.Info("resolution_event",
		"event_id", event.ID,
		"topic", event.Topic,
		"source", event.Source,
		"confidence", event.Confidence,
		"topics_scored", event.TopicsScored,
		"degraded_verdicts", event.DegradedVerdicts,
		"skipped_topics", event.SkippedTopics,
		"duration_ms", event.DurationMS,
	)
	return nil
}

func startMetricsServer(port string, workerMetrics *metrics.WorkerMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	return server
}
