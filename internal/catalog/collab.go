package catalog

import (
	"fmt"

	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// collabErr maps a collaborator fault onto the shared taxonomy. Every call
// into the external catalog service goes through this mapping so the
// retry/fallback policy is defined once, not per call site.
func collabErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, pipeline.ErrTransientIO, err)
}
