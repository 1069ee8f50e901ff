// Package metrics holds the Prometheus collectors shared by the pipeline
// components. The worker exposes them on /metrics; the CLI registers them but
// never serves them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LocateQueries counts locator runs by result: ok, empty, error
	LocateQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubble_locate_queries_total",
		Help: "Observation locator queries by result.",
	}, []string{"result"})

	// BandLoadAttempts counts individual band download/decode attempts
	BandLoadAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hubble_band_load_attempts_total",
		Help: "Band load attempts, including retries.",
	})

	// BandLoadFailures counts bands that stayed unavailable after retries
	BandLoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hubble_band_load_failures_total",
		Help: "Bands unavailable after exhausting the retry budget.",
	})

	// DownloadDuration observes product download time in seconds
	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hubble_download_duration_seconds",
		Help:    "FITS product download duration.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	// CompositeRuns counts composite workflow completions by outcome
	CompositeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hubble_composite_runs_total",
		Help: "Composite workflow completions by outcome.",
	}, []string{"outcome"})
)
