package bands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/astroview/hubble-pipeline/internal/catalog"
	"github.com/astroview/hubble-pipeline/internal/metrics"
	"github.com/astroview/hubble-pipeline/internal/storage"
	"github.com/astroview/hubble-pipeline/pkg/pipeline"
)

// Downloader fetches product bytes by reference URI
type Downloader interface {
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Config holds the retry policy for band loads. MaxRetries is the total
// attempt budget, so MaxRetries=2 means two attempts and no third.
type Config struct {
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

// WithDefaults fills in default values for unset fields
func (c *Config) WithDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.Backoff == 0 {
		c.Backoff = time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Loader downloads and decodes band images with bounded retry and an
// idempotent local cache keyed by product URI
type Loader struct {
	downloader Downloader
	cache      *storage.FileCache
	cfg        Config
	logger     *zap.Logger
}

// NewLoader creates a band loader
func NewLoader(downloader Downloader, cache *storage.FileCache, cfg Config, logger *zap.Logger) *Loader {
	cfg.WithDefaults()
	return &Loader{
		downloader: downloader,
		cache:      cache,
		cfg:        cfg,
		logger:     logger,
	}
}

// Load fetches and decodes the referenced FITS file. Transient faults are
// retried up to the configured budget with a fixed backoff; a file with no
// usable image extension fails immediately. The returned error wraps
// pipeline.ErrBandUnavailable in every failure case.
func (l *Loader) Load(ctx context.Context, ref catalog.ProductRef) (*BandImage, error) {
	var lastErr error

	for attempt := 0; attempt < l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(l.cfg.Backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s: %v", pipeline.ErrBandUnavailable, ref.Filename, ctx.Err())
			}
		}

		metrics.BandLoadAttempts.Inc()

		band, err := l.attempt(ctx, ref)
		if err == nil {
			return band, nil
		}

		if errors.Is(err, ErrNoImageData) {
			// Content problem: retrying would re-decode the same bytes
			metrics.BandLoadFailures.Inc()
			return nil, fmt.Errorf("%w: %s: %v", pipeline.ErrBandUnavailable, ref.Filename, err)
		}

		lastErr = fmt.Errorf("%w: %v", pipeline.ErrTransientIO, err)
		l.logger.Warn("band load attempt failed",
			zap.String("file", ref.Filename),
			zap.Int("attempt", attempt+1),
			zap.Int("budget", l.cfg.MaxRetries),
			zap.Error(err))
	}

	metrics.BandLoadFailures.Inc()
	return nil, fmt.Errorf("%w: %s: %v", pipeline.ErrBandUnavailable, ref.Filename, lastErr)
}

// attempt performs one download-and-decode cycle. Cache hits skip the
// download entirely.
func (l *Loader) attempt(ctx context.Context, ref catalog.ProductRef) (*BandImage, error) {
	path := l.cache.Path(ref.URI)

	if !l.cache.Has(ref.URI) {
		downloaded, err := l.download(ctx, ref.URI)
		if err != nil {
			return nil, err
		}
		path = downloaded
	} else {
		l.logger.Debug("cache hit", zap.String("file", ref.Filename))
	}

	return DecodeFile(path)
}

func (l *Loader) download(ctx context.Context, uri string) (string, error) {
	dctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	start := time.Now()
	body, err := l.downloader.Fetch(dctx, uri)
	if err != nil {
		return "", err
	}
	defer body.Close()

	path, err := l.cache.Put(uri, body)
	if err != nil {
		return "", err
	}

	metrics.DownloadDuration.Observe(time.Since(start).Seconds())
	l.logger.Info("downloaded product",
		zap.String("uri", uri),
		zap.Duration("elapsed", time.Since(start)))
	return path, nil
}
