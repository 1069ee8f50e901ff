// hubble-compose builds an RGB composite for an astronomical target in one
// synchronous run: locate observations in the archive, download three FITS
// bands, composite, write a PNG.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/astroview/hubble-pipeline/internal/bands"
	"github.com/astroview/hubble-pipeline/internal/catalog"
	"github.com/astroview/hubble-pipeline/internal/compose"
	"github.com/astroview/hubble-pipeline/internal/mast"
	"github.com/astroview/hubble-pipeline/internal/storage"
	"github.com/astroview/hubble-pipeline/internal/workflows"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// popularTargets maps well-known objects to archive-friendly names
var popularTargets = map[string]string{
	"Messier 51 (Whirlpool Galaxy)":  "M51",
	"Messier 101 (Pinwheel Galaxy)":  "M101",
	"Messier 81 (Bode's Galaxy)":     "M81",
	"Messier 82 (Cigar Galaxy)":      "M82",
	"Messier 104 (Sombrero Galaxy)":  "M104",
	"Messier 16 (Eagle Nebula)":      "M16",
	"Messier 42 (Orion Nebula)":      "M42",
	"NGC 891":                        "NGC 891",
	"NGC 1300":                       "NGC 1300",
}

var (
	logger *zap.Logger

	target      string
	radiusDeg   float64
	stretch     float64
	qFactor     float64
	cacheDir    string
	outputDir   string
	mastURL     string
	maxRetries  int
	backoff     time.Duration
	timeout     time.Duration
	demo        bool
	listTargets bool
	debug       bool
)

var rootCmd = &cobra.Command{
	Use:   "hubble-compose",
	Short: "Build an RGB composite from Hubble archive imagery",
	Long: `hubble-compose queries the MAST archive for observations of a target,
downloads up to three calibrated FITS images and composites them into a
single RGB PNG using an asinh (Lupton-style) stretch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		config := zap.NewProductionConfig()
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runCompose,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&target, "target", "t", "M51", "object name to compose")
	flags.Float64VarP(&radiusDeg, "radius", "r", pipeline.DefaultRadiusDeg, "search radius in degrees")
	flags.Float64Var(&stretch, "stretch", pipeline.DefaultStretch, "asinh softening scale (brightens faint features)")
	flags.Float64Var(&qFactor, "q", pipeline.DefaultQ, "asinh nonlinearity factor (compresses bright regions)")
	flags.StringVar(&cacheDir, "cache-dir", envOr("FITS_CACHE_DIR", "./fits-cache"), "FITS download cache directory")
	flags.StringVar(&outputDir, "out", envOr("COMPOSITE_DIR", "./composites"), "composite output directory")
	flags.StringVar(&mastURL, "mast-url", os.Getenv("MAST_BASE_URL"), "archive endpoint (default production MAST)")
	flags.IntVar(&maxRetries, "max-retries", 2, "download attempt budget per band")
	flags.DurationVar(&backoff, "backoff", time.Second, "wait between download attempts")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "per-attempt download timeout")
	flags.BoolVar(&demo, "demo", false, "composite synthetic bands instead of archive data")
	flags.BoolVar(&listTargets, "list-targets", false, "print the popular target list and exit")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
}

func runCompose(cmd *cobra.Command, args []string) error {
	if listTargets {
		printTargets()
		return nil
	}
	if demo {
		return runDemo()
	}

	writer, err := storage.NewFilesystemWriter(outputDir)
	if err != nil {
		return err
	}
	cache, err := storage.NewFileCache(cacheDir)
	if err != nil {
		return err
	}

	archive := mast.NewClient(mastURL, logger)
	locator := catalog.NewLocator(archive, archive, archive, logger)
	filter := catalog.NewProductFilter(archive, logger)
	loader := bands.NewLoader(archive, cache, bands.Config{
		MaxRetries: maxRetries,
		Backoff:    backoff,
		Timeout:    timeout,
	}, logger)

	workflowRunner := workflows.NewWorkflowRunner(nil)
	workflowRunner.Register(pipeline.JobComposite,
		workflows.NewCompositeWorkflow(locator, filter, loader, writer, logger))

	wctx := &workflows.WorkflowContext{
		Ctx: context.Background(),
		Request: pipeline.ComposeRequest{
			Target:    target,
			RadiusDeg: radiusDeg,
			Stretch:   stretch,
			Q:         qFactor,
			Job:       pipeline.JobComposite,
		},
		RunID: uuid.New().String(),
	}

	result, err := workflowRunner.Run(wctx)
	if result != nil {
		printNotes(result.Notes)
	}
	if err != nil {
		return err
	}

	switch result.Outcome {
	case pipeline.OutcomeComposited:
		fmt.Printf("composite written: %v\n", result.Outputs["artifact"])
	case pipeline.OutcomeSkipped:
		fmt.Println("composite already exists; use a new version to recompute")
	case pipeline.OutcomeNoObservations, pipeline.OutcomeNoProducts:
		fmt.Println("no archive data found; try a larger radius, a popular target, or --demo")
	case pipeline.OutcomeInsufficientBands:
		fmt.Println("fewer than 3 bands available; no composite produced")
	}
	return nil
}

// runDemo composites synthetic bands so the stretch controls can be explored
// without archive access
func runDemo() error {
	r, g, b := compose.DemoBands(512, time.Now().UnixNano())

	img, err := compose.Compose(r, g, b, compose.Options{Stretch: stretch, Q: qFactor})
	if err != nil {
		return err
	}

	encoded, err := img.EncodePNG()
	if err != nil {
		return err
	}

	writer, err := storage.NewFilesystemWriter(outputDir)
	if err != nil {
		return err
	}
	path, err := writer.PutComposite(context.Background(), "demo", pipeline.DerivedTypeComposite, 1,
		bytes.NewReader(encoded), map[string]string{
			"target":  "demo",
			"stretch": fmt.Sprint(stretch),
			"q":       fmt.Sprint(qFactor),
		})
	if err != nil {
		return err
	}

	fmt.Printf("demo composite written: %s\n", path)
	return nil
}

func printTargets() {
	names := make([]string, 0, len(popularTargets))
	for name := range popularTargets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-32s %s\n", popularTargets[name], name)
	}
}

func printNotes(notes []pipeline.Note) {
	for _, n := range notes {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("hubble-compose: %v", err)
	}
}
