// hubble-worker runs composite jobs durably: compose requests are enqueued
// over HTTP, executed through DBOS, and tracked in the dedupe ledger.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/astroview/hubble-pipeline/internal/dbosruntime"
	"github.com/astroview/hubble-pipeline/internal/dedupe"
	"github.com/astroview/hubble-pipeline/internal/handlers"
	"github.com/astroview/hubble-pipeline/internal/workflows"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
	"github.com/astroview/hubble-pipeline/pkg/runner"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	httpAddr := os.Getenv("WORKER_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8081"
	}

	config := zap.NewProductionConfig()
	if os.Getenv("LOG_DEBUG") != "" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// DBOS runtime is required for the worker
	dbURL := os.Getenv("DBOS_SYSTEM_DATABASE_URL")
	if dbURL == "" {
		log.Fatalf("DBOS_SYSTEM_DATABASE_URL is required")
	}

	queueName := os.Getenv("DBOS_QUEUE_NAME")
	concurrency := 0
	if v := os.Getenv("DBOS_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			concurrency = n
		}
	}

	dbosRuntime, err := dbosruntime.NewRuntime(context.Background(), dbosruntime.Config{
		DatabaseURL: dbURL,
		AppName:     "hubble-worker",
		QueueName:   queueName,
		Concurrency: concurrency,
	})
	if err != nil {
		log.Fatalf("Failed to initialize DBOS: %v", err)
	}

	// Initialize workflow runner with DBOS support (registers workflows with DBOS)
	workflowRunner := workflows.NewWorkflowRunner(dbosRuntime)

	workflow, err := runner.BuildCompositeWorkflow(runner.Config{
		MastBaseURL: os.Getenv("MAST_BASE_URL"),
		CacheDir:    os.Getenv("FITS_CACHE_DIR"),
		OutputDir:   os.Getenv("COMPOSITE_DIR"),
	}, logger)
	if err != nil {
		log.Fatalf("Failed to build composite workflow: %v", err)
	}
	workflowRunner.Register(pipeline.JobComposite, workflow)
	logger.Info("registered workflow",
		zap.String("workflow", workflow.Name()),
		zap.String("job", pipeline.JobComposite))

	// Launch DBOS (must be done after workflow registration)
	if err := dbosRuntime.Launch(); err != nil {
		log.Fatalf("Failed to launch DBOS: %v", err)
	}
	defer dbosRuntime.Shutdown(10 * time.Second)

	logger.Info("DBOS runtime initialized",
		zap.String("queue", dbosRuntime.QueueName()),
		zap.Int("concurrency", dbosRuntime.Concurrency()))

	// Dedupe ledger shares the DBOS database connection
	var tracker *dedupe.Tracker
	if t, err := dedupe.NewTracker(dbosRuntime.DB()); err != nil {
		logger.Warn("dedupe ledger unavailable", zap.Error(err))
	} else {
		tracker = t
	}

	asyncHandler := handlers.NewAsyncHandler(workflowRunner, tracker, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/v1/compose", asyncHandler.HandleComposeAsync)
	mux.HandleFunc("/v1/runs/", asyncHandler.HandleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    httpAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("compose worker ready", zap.String("addr", httpAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("server stopped")
}

// handleHealth returns health status
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}
