package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dbos-inc/dbos-transact-golang/dbos"

	"github.com/astroview/hubble-pipeline/internal/dbosruntime"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// WorkflowContext contains context for workflow execution
type WorkflowContext struct {
	Ctx     context.Context
	Request pipeline.ComposeRequest
	RunID   string
}

// WorkflowResult contains the result of workflow execution. Outcome reports
// the defined end state (composited, no_observations, insufficient_bands, ...)
// and Notes carry the user-visible diagnostics collected along the way.
type WorkflowResult struct {
	Success bool
	Outcome string
	Error   error
	Notes   []pipeline.Note
	Outputs map[string]interface{}
}

// Workflow defines the interface for compose workflows
type Workflow interface {
	// Execute runs the workflow
	Execute(wctx *WorkflowContext) (*WorkflowResult, error)

	// Name returns the workflow name
	Name() string
}

// WorkflowRunner executes workflows
type WorkflowRunner struct {
	workflows   map[string]Workflow
	dbosRuntime *dbosruntime.Runtime
}

// NewWorkflowRunner creates a new workflow runner. A nil runtime yields a
// synchronous-only runner (used by the CLI and in tests).
func NewWorkflowRunner(dbosRuntime *dbosruntime.Runtime) *WorkflowRunner {
	runner := &WorkflowRunner{
		workflows:   make(map[string]Workflow),
		dbosRuntime: dbosRuntime,
	}

	if dbosRuntime != nil {
		dbos.RegisterWorkflow(dbosRuntime.Context(), runner.executeWorkflowDBOS)
	}

	return runner
}

// Register registers a workflow for a job type
func (r *WorkflowRunner) Register(job string, workflow Workflow) {
	r.workflows[job] = workflow
}

// Run executes a workflow synchronously
func (r *WorkflowRunner) Run(wctx *WorkflowContext) (*WorkflowResult, error) {
	workflow, ok := r.workflows[wctx.Request.Job]
	if !ok {
		return &WorkflowResult{
			Success: false,
			Error:   pipeline.ErrWorkflowNotFound,
		}, pipeline.ErrWorkflowNotFound
	}

	return workflow.Execute(wctx)
}

// RunAsync enqueues a workflow for durable async execution via DBOS
func (r *WorkflowRunner) RunAsync(ctx context.Context, req pipeline.ComposeRequest) (string, error) {
	if r.dbosRuntime == nil {
		return "", errors.New("DBOS runtime not initialized")
	}

	// Workflow ID gives exactly-once semantics per enqueue
	workflowID := fmt.Sprintf("%s-%s-%d", req.Job, req.Target, time.Now().UnixNano())

	handle, err := dbos.RunWorkflow[pipeline.ComposeRequest, *WorkflowResult](
		r.dbosRuntime.Context(),
		r.executeWorkflowDBOS,
		req,
		dbos.WithWorkflowID(workflowID),
		dbos.WithQueue(r.dbosRuntime.QueueName()),
	)
	if err != nil {
		return "", err
	}

	return handle.GetWorkflowID(), nil
}

// executeWorkflowDBOS is the DBOS workflow function wrapping the registered
// workflows
func (r *WorkflowRunner) executeWorkflowDBOS(dbosCtx dbos.DBOSContext, req pipeline.ComposeRequest) (*WorkflowResult, error) {
	workflow, ok := r.workflows[req.Job]
	if !ok {
		return &WorkflowResult{
			Success: false,
			Error:   pipeline.ErrWorkflowNotFound,
		}, pipeline.ErrWorkflowNotFound
	}

	workflowID, err := dbosCtx.GetWorkflowID()
	if err != nil {
		return &WorkflowResult{
			Success: false,
			Error:   err,
		}, err
	}

	// DBOSContext implements context.Context
	wctx := &WorkflowContext{
		Ctx:     dbosCtx,
		Request: req,
		RunID:   workflowID,
	}

	return workflow.Execute(wctx)
}

// GetStatus retrieves the recorded status of an async run
func (r *WorkflowRunner) GetStatus(ctx context.Context, runID string) (*dbosruntime.WorkflowStatusInfo, error) {
	if r.dbosRuntime == nil {
		return nil, errors.New("status tracking requires DBOS runtime")
	}
	return r.dbosRuntime.GetWorkflowStatus(ctx, runID)
}
