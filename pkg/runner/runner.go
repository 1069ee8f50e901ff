// Package runner provides a high-level embedded API for running composite
// workflows via DBOS.
package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/internal/bands"
	"github.com/astroview/hubble-pipeline/internal/catalog"
	"github.com/astroview/hubble-pipeline/internal/dbosruntime"
	"github.com/astroview/hubble-pipeline/internal/mast"
	"github.com/astroview/hubble-pipeline/internal/storage"
	"github.com/astroview/hubble-pipeline/internal/workflows"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// Config holds the configuration for initializing the composite runner
type Config struct {
	DatabaseURL        string // DBOS PostgreSQL connection string
	AppName            string // Application name for DBOS
	QueueName          string // DBOS queue name
	Concurrency        int    // Number of concurrent workers
	ApplicationVersion string // Optional: override binary hash for version matching

	MastBaseURL string // Archive endpoint, empty for production MAST
	CacheDir    string // FITS download cache directory
	OutputDir   string // Composite artifact directory

	Logger *zap.Logger // Optional; defaults to a no-op logger
}

// Runner provides a high-level API for running composite workflows via DBOS
type Runner struct {
	runtime *dbosruntime.Runtime
	runner  *workflows.WorkflowRunner
}

// New creates and initializes a new composite runner with DBOS integration
func New(cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dbosRuntime, err := dbosruntime.NewRuntime(context.Background(), dbosruntime.Config{
		DatabaseURL:        cfg.DatabaseURL,
		AppName:            cfg.AppName,
		QueueName:          cfg.QueueName,
		Concurrency:        cfg.Concurrency,
		ApplicationVersion: cfg.ApplicationVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DBOS: %w", err)
	}

	workflowRunner := workflows.NewWorkflowRunner(dbosRuntime)

	workflow, err := BuildCompositeWorkflow(cfg, logger)
	if err != nil {
		return nil, err
	}
	workflowRunner.Register(pipeline.JobComposite, workflow)

	// Launch DBOS (must be after workflow registration)
	if err := dbosRuntime.Launch(); err != nil {
		return nil, fmt.Errorf("failed to launch DBOS: %w", err)
	}

	return &Runner{
		runtime: dbosRuntime,
		runner:  workflowRunner,
	}, nil
}

// BuildCompositeWorkflow wires the pipeline components from configuration.
// Exposed so the CLI can run the same workflow synchronously without DBOS.
func BuildCompositeWorkflow(cfg Config, logger *zap.Logger) (*workflows.CompositeWorkflow, error) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = "./fits-cache"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./composites"
	}

	cache, err := storage.NewFileCache(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	writer, err := storage.NewFilesystemWriter(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize output directory: %w", err)
	}

	archive := mast.NewClient(cfg.MastBaseURL, logger)
	locator := catalog.NewLocator(archive, archive, archive, logger)
	filter := catalog.NewProductFilter(archive, logger)
	loader := bands.NewLoader(archive, cache, bands.Config{}, logger)

	return workflows.NewCompositeWorkflow(locator, filter, loader, writer, logger), nil
}

// RunComposite enqueues a composite workflow and returns its run ID
func (r *Runner) RunComposite(ctx context.Context, target string, radiusDeg, stretch, q float64) (string, error) {
	return r.runner.RunAsync(ctx, pipeline.ComposeRequest{
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

// GetStatus retrieves the status of an enqueued run
func (r *Runner) GetStatus(ctx context.Context, runID string) (*dbosruntime.WorkflowStatusInfo, error) {
	return r.runner.GetStatus(ctx, runID)
}

// Shutdown gracefully shuts down the runner
func (r *Runner) Shutdown(timeout time.Duration) {
	if r.runtime != nil {
		r.runtime.Shutdown(timeout)
	}
}
