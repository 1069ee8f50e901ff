package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/astroview/hubble-pipeline/internal/dbosruntime"
	"github.com/astroview/hubble-pipeline/internal/workflows"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// Client provides a client-only API for enqueueing composite runs without
// executing them. Workers must be running separately to pick them up.
type Client struct {
	runtime *dbosruntime.Runtime
	runner  *workflows.WorkflowRunner
}

// NewClient creates a client that can start composite runs but doesn't
// execute them
func NewClient(cfg Config) (*Client, error) {
	dbosRuntime, err := dbosruntime.NewRuntime(context.Background(), dbosruntime.Config{
		DatabaseURL: cfg.DatabaseURL,
		AppName:     cfg.AppName,
		QueueName:   cfg.QueueName,
		Concurrency: 0, // Client mode: don't process workflows
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DBOS: %w", err)
	}

	workflowRunner := workflows.NewWorkflowRunner(dbosRuntime)

	// Launch DBOS with no workflows registered (client mode)
	if err := dbosRuntime.Launch(); err != nil {
		return nil, fmt.Errorf("failed to launch DBOS: %w", err)
	}

	return &Client{
		runtime: dbosRuntime,
		runner:  workflowRunner,
	}, nil
}

// RunComposite enqueues a composite run for workers to execute
func (c *Client) RunComposite(ctx context.Context, target string, radiusDeg, stretch, q float64) (string, error) {
	return c.runner.RunAsync(ctx, pipeline.ComposeRequest{
		Target:    target,
		RadiusDeg: radiusDeg,
		Stretch:   stretch,
		Q:         q,
		Job:       pipeline.JobComposite,
		Versions: map[string]int{
			pipeline.DerivedTypeComposite: 1,
		},
	})
}

// Shutdown gracefully shuts down the client
func (c *Client) Shutdown(timeout time.Duration) {
	if c.runtime != nil {
		c.runtime.Shutdown(timeout)
	}
}
