package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/internal/metrics"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// MaxDatasets bounds the number of dataset IDs handed downstream to keep the
// product listing from fanning out
const MaxDatasets = 10

// Locator resolves an object name and search radius to a bounded list of
// dataset identifiers. A transport fault never propagates: the locator
// degrades to an empty list and reports what happened as notes.
type Locator struct {
	catalog  ObjectQuerier
	region   RegionQuerier
	resolver NameResolver
	logger   *zap.Logger
}

// NewLocator creates a locator over the given catalog collaborators
func NewLocator(catalog ObjectQuerier, region RegionQuerier, resolver NameResolver, logger *zap.Logger) *Locator {
	return &Locator{
		catalog:  catalog,
		region:   region,
		resolver: resolver,
		logger:   logger,
	}
}

// Locate queries the catalog by object name, falling back to coordinate
// resolution when the name query comes back empty. An empty result is not an
// error; the caller decides how to present "no data".
func (l *Locator) Locate(ctx context.Context, name string, radiusDeg float64) ([]DatasetID, []pipeline.Note) {
	var notes []pipeline.Note

	notes = append(notes, pipeline.Infof("querying archive for %q (radius %.3g deg)", name, radiusDeg))

	obs, err := l.catalog.QueryObject(ctx, name, radiusDeg)
	if err != nil {
		err = collabErr("query object", err)
		l.logger.Warn("object query failed", zap.String("target", name), zap.Error(err))
		metrics.LocateQueries.WithLabelValues("error").Inc()
		return nil, append(notes, pipeline.Errorf("archive query failed: %v", err))
	}

	if len(obs) == 0 {
		notes = append(notes, pipeline.Warnf("no observations found for %q, trying with coordinates", name))

		coord, rerr := l.resolver.ResolveName(ctx, name)
		if rerr != nil {
			rerr = collabErr("resolve name", rerr)
			l.logger.Warn("name resolution failed", zap.String("target", name), zap.Error(rerr))
			metrics.LocateQueries.WithLabelValues("error").Inc()
			return nil, append(notes, pipeline.Errorf("could not resolve %q to coordinates", name))
		}

		obs, err = l.region.QueryRegion(ctx, coord, radiusDeg)
		if err != nil {
			err = collabErr("query region", err)
			l.logger.Warn("region query failed",
				zap.String("target", name),
				zap.Float64("ra", coord.RA),
				zap.Float64("dec", coord.Dec),
				zap.Error(err))
			metrics.LocateQueries.WithLabelValues("error").Inc()
			return nil, append(notes, pipeline.Errorf("archive query failed: %v", err))
		}
	}

	if len(obs) == 0 {
		l.logger.Info("no observations", zap.String("target", name))
		metrics.LocateQueries.WithLabelValues("empty").Inc()
		return nil, append(notes, pipeline.Warnf("no observations found for %q in the archive", name))
	}

	notes = append(notes, pipeline.Infof("found %d observations", len(obs)))
	metrics.LocateQueries.WithLabelValues("ok").Inc()

	ids := make([]DatasetID, 0, MaxDatasets)
	for _, o := range obs {
		if len(ids) == MaxDatasets {
			break
		}
		ids = append(ids, o.ObsID)
	}

	l.logger.Info("located datasets",
		zap.String("target", name),
		zap.Int("observations", len(obs)),
		zap.Int("datasets", len(ids)))

	return ids, notes
}
