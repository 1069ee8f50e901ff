// Package workflows wires the pipeline components into end-to-end compose
// runs: locate observations, filter products, load three bands, composite,
// write the artifact.
package workflows

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/internal/bands"
	"github.com/astroview/hubble-pipeline/internal/catalog"
	"github.com/astroview/hubble-pipeline/internal/compose"
	"github.com/astroview/hubble-pipeline/internal/metrics"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// bandNames label the three channels in load order
var bandNames = [3]string{"red", "green", "blue"}

// ObservationLocator resolves a target to dataset IDs
type ObservationLocator interface {
	Locate(ctx context.Context, name string, radiusDeg float64) ([]catalog.DatasetID, []pipeline.Note)
}

// ProductFilter narrows dataset IDs to science-image FITS references
type ProductFilter interface {
	FilterProducts(ctx context.Context, ids []catalog.DatasetID) ([]catalog.ProductRef, []catalog.Product, []pipeline.Note)
}

// BandLoader downloads and decodes one band image
type BandLoader interface {
	Load(ctx context.Context, ref catalog.ProductRef) (*bands.BandImage, error)
}

// CompositeWriter stores finished composite artifacts
type CompositeWriter interface {
	HasComposite(ctx context.Context, target, derivedType string, version int) (bool, error)
	PutComposite(ctx context.Context, target, derivedType string, version int, r io.Reader, meta map[string]string) (string, error)
}

// CompositeWorkflow runs one compose request to a defined end state. The
// worst observable outcome is "no image produced, with an explanatory note";
// it never surfaces an unhandled fault.
type CompositeWorkflow struct {
	locator ObservationLocator
	filter  ProductFilter
	loader  BandLoader
	writer  CompositeWriter
	logger  *zap.Logger
}

// NewCompositeWorkflow creates a new RGB composite workflow
func NewCompositeWorkflow(locator ObservationLocator, filter ProductFilter, loader BandLoader, writer CompositeWriter, logger *zap.Logger) *CompositeWorkflow {
	return &CompositeWorkflow{
		locator: locator,
		filter:  filter,
		loader:  loader,
		writer:  writer,
		logger:  logger,
	}
}

// Name returns the workflow name
func (w *CompositeWorkflow) Name() string {
	return "CompositeWorkflow"
}

// Execute runs the compose pipeline
func (w *CompositeWorkflow) Execute(wctx *WorkflowContext) (*WorkflowResult, error) {
	log := w.logger.With(zap.String("run_id", wctx.RunID), zap.String("target", wctx.Request.Target))
	log.Info("starting composite workflow")

	// Step 1: Validate request
	if err := w.validateRequest(&wctx.Request); err != nil {
		log.Warn("validation failed", zap.Error(err))
		return &WorkflowResult{
			Success: false,
			Error:   fmt.Errorf("%w: %v", pipeline.ErrInvalidRequest, err),
		}, err
	}
	req := wctx.Request
	version := req.Versions[pipeline.DerivedTypeComposite]

	// Step 2: Skip if the artifact already exists for this target/version
	exists, err := w.writer.HasComposite(wctx.Ctx, req.Target, pipeline.DerivedTypeComposite, version)
	if err != nil {
		log.Warn("failed to check existing artifact", zap.Error(err))
		// Continue anyway; recomputing is safe
	} else if exists {
		log.Info("composite already exists, skipping", zap.Int("version", version))
		metrics.CompositeRuns.WithLabelValues(pipeline.OutcomeSkipped).Inc()
		return &WorkflowResult{
			Success: true,
			Outcome: pipeline.OutcomeSkipped,
			Outputs: map[string]interface{}{
				"target":  req.Target,
				"version": version,
			},
		}, nil
	}

	var notes []pipeline.Note

	// Step 3: Locate observations
	ids, locNotes := w.locator.Locate(wctx.Ctx, req.Target, req.RadiusDeg)
	notes = append(notes, locNotes...)
	if len(ids) == 0 {
		log.Info("no observations located")
		metrics.CompositeRuns.WithLabelValues(pipeline.OutcomeNoObservations).Inc()
		return &WorkflowResult{
			Success: true,
			Outcome: pipeline.OutcomeNoObservations,
			Notes:   notes,
		}, nil
	}

	// Step 4: Filter products down to science-image FITS references
	refs, products, filterNotes := w.filter.FilterProducts(wctx.Ctx, ids)
	notes = append(notes, filterNotes...)
	if len(refs) == 0 {
		log.Info("no usable products", zap.Int("listed", len(products)))
		metrics.CompositeRuns.WithLabelValues(pipeline.OutcomeNoProducts).Inc()
		return &WorkflowResult{
			Success: true,
			Outcome: pipeline.OutcomeNoProducts,
			Notes:   notes,
			Outputs: map[string]interface{}{"products": products},
		}, nil
	}

	if len(refs) < 3 {
		notes = append(notes, pipeline.Warnf("found only %d FITS files, need at least 3 for an RGB composite", len(refs)))
		metrics.CompositeRuns.WithLabelValues(pipeline.OutcomeInsufficientBands).Inc()
		return &WorkflowResult{
			Success: true,
			Outcome: pipeline.OutcomeInsufficientBands,
			Notes:   notes,
			Outputs: map[string]interface{}{"products": products},
		}, nil
	}

	// Step 5: Load the first three references as R/G/B. The loads are
	// independent; compositing is strictly ordered after all three.
	loaded := make([]*bands.BandImage, 3)
	missing := 0
	for i := 0; i < 3; i++ {
		band, err := w.loader.Load(wctx.Ctx, refs[i])
		if err != nil {
			log.Warn("band unavailable",
				zap.String("band", bandNames[i]),
				zap.String("file", refs[i].Filename),
				zap.Error(err))
			notes = append(notes, pipeline.Warnf("failed to load %s band (%s): %v", bandNames[i], refs[i].Filename, err))
			missing++
			continue
		}
		loaded[i] = band
	}

	if missing > 0 {
		notes = append(notes, pipeline.Errorf("insufficient bands: %d of 3 loaded", 3-missing))
		metrics.CompositeRuns.WithLabelValues(pipeline.OutcomeInsufficientBands).Inc()
		return &WorkflowResult{
			Success: true,
			Outcome: pipeline.OutcomeInsufficientBands,
			Notes:   notes,
			Outputs: map[string]interface{}{"products": products},
		}, nil
	}

	// Step 6: Composite
	img, err := compose.Compose(
		loaded[0].Pixels, loaded[1].Pixels, loaded[2].Pixels,
		compose.Options{Stretch: req.Stretch, Q: req.Q},
	)
	if err != nil {
		log.Error("composition failed", zap.Error(err))
		notes = append(notes, pipeline.Errorf("RGB composition failed: %v", err))
		metrics.CompositeRuns.WithLabelValues("error").Inc()
		return &WorkflowResult{
			Success: false,
			Error:   err,
			Notes:   notes,
		}, err
	}
	log.Info("composite built", zap.Int("width", img.Width), zap.Int("height", img.Height))

	// Step 7: Encode and write the artifact
	encoded, err := img.EncodePNG()
	if err != nil {
		log.Error("encode failed", zap.Error(err))
		metrics.CompositeRuns.WithLabelValues("error").Inc()
		return &WorkflowResult{
			Success: false,
			Error:   err,
			Notes:   notes,
		}, err
	}

	meta := map[string]string{
		"target":  req.Target,
		"width":   strconv.Itoa(img.Width),
		"height":  strconv.Itoa(img.Height),
		"stretch": strconv.FormatFloat(req.Stretch, 'g', -1, 64),
		"q":       strconv.FormatFloat(req.Q, 'g', -1, 64),
		"red":     refs[0].Filename,
		"green":   refs[1].Filename,
		"blue":    refs[2].Filename,
	}

	path, err := w.writer.PutComposite(wctx.Ctx, req.Target, pipeline.DerivedTypeComposite, version, bytes.NewReader(encoded), meta)
	if err != nil {
		log.Error("artifact write failed", zap.Error(err))
		metrics.CompositeRuns.WithLabelValues("error").Inc()
		return &WorkflowResult{
			Success: false,
			Error:   fmt.Errorf("artifact write failed: %w", err),
			Notes:   notes,
		}, err
	}

	log.Info("composite workflow completed", zap.String("artifact", path))
	notes = append(notes, pipeline.Infof("composite written to %s", path))
	metrics.CompositeRuns.WithLabelValues(pipeline.OutcomeComposited).Inc()

	return &WorkflowResult{
		Success: true,
		Outcome: pipeline.OutcomeComposited,
		Notes:   notes,
		Outputs: map[string]interface{}{
			"target":   req.Target,
			"artifact": path,
			"width":    img.Width,
			"height":   img.Height,
			"version":  version,
		},
	}, nil
}

// validateRequest checks the compose parameters and applies defaults
func (w *CompositeWorkflow) validateRequest(req *pipeline.ComposeRequest) error {
	if req.Target == "" {
		return fmt.Errorf("target is required")
	}
	req.WithDefaults()
	if req.RadiusDeg <= 0 {
		return fmt.Errorf("radius must be positive, got %g", req.RadiusDeg)
	}
	if req.Stretch < 0 {
		return fmt.Errorf("stretch must not be negative, got %g", req.Stretch)
	}
	if req.Q < 0 {
		return fmt.Errorf("Q must not be negative, got %g", req.Q)
	}
	if req.Versions == nil {
		req.Versions = map[string]int{}
	}
	v, ok := req.Versions[pipeline.DerivedTypeComposite]
	if !ok {
		req.Versions[pipeline.DerivedTypeComposite] = 1
	} else if v < 1 {
		return fmt.Errorf("invalid composite version: %d", v)
	}
	return nil
}
