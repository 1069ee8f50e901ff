// Package handlers exposes the worker's HTTP endpoints for enqueueing and
// inspecting compose runs.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/internal/dedupe"
	"github.com/astroview/hubble-pipeline/internal/workflows"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// AsyncHandler handles asynchronous compose requests
type AsyncHandler struct {
	workflowRunner *workflows.WorkflowRunner
	tracker        *dedupe.Tracker // optional
	logger         *zap.Logger
}

// NewAsyncHandler creates a new async handler. The tracker may be nil when no
// database is configured.
func NewAsyncHandler(runner *workflows.WorkflowRunner, tracker *dedupe.Tracker, logger *zap.Logger) *AsyncHandler {
	return &AsyncHandler{
		workflowRunner: runner,
		tracker:        tracker,
		logger:         logger,
	}
}

// HandleComposeAsync handles POST /v1/compose - enqueues a compose run and
// returns immediately
func (h *AsyncHandler) HandleComposeAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req pipeline.ComposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	if req.Target == "" {
		http.Error(w, "target is required", http.StatusBadRequest)
		return
	}
	if req.Job == "" {
		req.Job = pipeline.JobComposite
	}
	req.WithDefaults()

	h.logger.Info("enqueueing compose run",
		zap.String("target", req.Target),
		zap.Float64("radius_deg", req.RadiusDeg))

	runID, err := h.workflowRunner.RunAsync(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to enqueue compose run", zap.Error(err))
		http.Error(w, fmt.Sprintf("Failed to enqueue workflow: %v", err), http.StatusInternalServerError)
		return
	}

	seenCount := 0
	if h.tracker != nil {
		version := req.Versions[pipeline.DerivedTypeComposite]
		if n, derr := h.tracker.Record(r.Context(), req.Target, req.Job, version); derr != nil {
			h.logger.Warn("dedupe record failed", zap.Error(derr))
		} else {
			seenCount = n
		}
	}

	h.logger.Info("compose run enqueued", zap.String("run_id", runID), zap.Int("seen_count", seenCount))

	resp := pipeline.ComposeResponse{
		RunID:           runID,
		DedupeSeenCount: seenCount,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

// HandleStatus handles GET /v1/runs/{runID} - returns workflow status
func (h *AsyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := r.URL.Path[len("/v1/runs/"):]
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}

	status, err := h.workflowRunner.GetStatus(r.Context(), runID)
	if err != nil {
		h.logger.Warn("failed to get run status", zap.String("run_id", runID), zap.Error(err))
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}
