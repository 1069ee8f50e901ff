package pipeline

// ComposeRequest represents a request to build an RGB composite for a target
type ComposeRequest struct {
	Target    string            `json:"target"`            // object name, e.g. "M51"
	RadiusDeg float64           `json:"radius_deg"`        // search radius in degrees
	Stretch   float64           `json:"stretch,omitempty"` // asinh softening scale
	Q         float64           `json:"q,omitempty"`       // asinh nonlinearity factor
	Job       string            `json:"job"`
	Versions  map[string]int    `json:"versions"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ComposeResponse represents the response from triggering composition
type ComposeResponse struct {
	RunID           string `json:"run_id"`
	DedupeSeenCount int    `json:"dedupe_seen_count"`
}

// JobType constants
const (
	JobComposite = "rgb_composite"
)

// DerivedType constants
const (
	DerivedTypeComposite = "rgb_composite"
)

// Outcome values reported by a completed composite run
const (
	OutcomeComposited        = "composited"
	OutcomeSkipped           = "skipped"
	OutcomeNoObservations    = "no_observations"
	OutcomeNoProducts        = "no_products"
	OutcomeInsufficientBands = "insufficient_bands"
)

// Defaults for the image-processing controls, matching the exposed slider
// ranges: stretch in [0.1, 2.0], Q in [1, 20], radius in [0.01, 1.0] degrees.
const (
	DefaultStretch   = 0.5
	DefaultQ         = 10.0
	DefaultRadiusDeg = 0.1
)

// WithDefaults fills in default stretch/Q/radius for a request
func (r *ComposeRequest) WithDefaults() {
	if r.Stretch == 0 {
		r.Stretch = DefaultStretch
	}
	if r.Q == 0 {
		r.Q = DefaultQ
	}
	if r.RadiusDeg == 0 {
		r.RadiusDeg = DefaultRadiusDeg
	}
}
