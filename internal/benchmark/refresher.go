package benchmark

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/modelmux/modelmux/internal/metrics"
)

// Source abstracts the benchmark client for testing.
type Source interface {
	FetchText(ctx context.Context) ([]TextModelSpec, error)
	FetchMedia(ctx context.Context, category Category) ([]MediaModelSpec, error)
}

// Sink receives fetched snapshots. Implemented by the metric registry.
type Sink interface {
	RefreshText(specs []TextModelSpec)
	RefreshMedia(specs []MediaModelSpec)
	PurgeStale(maxAge time.Duration) int
}

// RefresherConfig controls the refresh loop.
type RefresherConfig struct {
	Interval     time.Duration
	MaxDataAge   time.Duration
	StaleCleanup bool
}

// Refresher periodically synchronizes the registry from the benchmark
// source. Category fetches run in parallel and are joined before any
// registry mutation; categories that succeeded are applied even when
// another category failed, and the first failure is returned.
type Refresher struct {
	source Source
	sink   Sink
	cfg    RefresherConfig
	logger *slog.Logger
}

// NewRefresher creates a refresher.
func NewRefresher(source Source, sink Sink, cfg RefresherConfig, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{source: source, sink: sink, cfg: cfg, logger: logger}
}

// RefreshAll fetches every category and applies the results.
// Not safe for concurrent use with itself.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	start := time.Now()

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		firstErr    error
		text        []TextModelSpec
		textOK      bool
		media       []MediaModelSpec
		mediaFailed bool
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		specs, err := r.source.FetchText(ctx)
		if err != nil {
			fail(err)
			return
		}
		mu.Lock()
		text = specs
		textOK = true
		mu.Unlock()
	}()

	for _, category := range MediaCategories() {
		wg.Add(1)
		go func(category Category) {
			defer wg.Done()
			specs, err := r.source.FetchMedia(ctx, category)
			if err != nil {
				fail(err)
				mu.Lock()
				mediaFailed = true
				mu.Unlock()
				return
			}
			mu.Lock()
			media = append(media, specs...)
			mu.Unlock()
		}(category)
	}

	wg.Wait()

	if textOK {
		r.sink.RefreshText(text)
	}
	// The media family is only re-synchronized when every category came
	// back; a partial media snapshot would purge models that are merely
	// missing from the failed category.
	if !mediaFailed {
		r.sink.RefreshMedia(media)
	}

	if r.cfg.StaleCleanup && r.cfg.MaxDataAge > 0 {
		if purged := r.sink.PurgeStale(r.cfg.MaxDataAge); purged > 0 {
			r.logger.Info("purged stale models", "count", purged)
		}
	}

	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	if firstErr != nil {
		metrics.RefreshFailures.Inc()
		r.logger.Error("benchmark refresh incomplete", "error", firstErr, "elapsed", time.Since(start))
		return firstErr
	}
	r.logger.Info("benchmark refresh complete",
		"text_models", len(text),
		"media_models", len(media),
		"elapsed", time.Since(start),
	)
	return nil
}

// Run refreshes on the configured interval until ctx is canceled.
// An immediate refresh is performed before the first tick.
func (r *Refresher) Run(ctx context.Context) {
	interval := r.cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	if err := r.RefreshAll(ctx); err != nil {
		r.logger.Warn("initial benchmark refresh failed, retaining existing data", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RefreshAll(ctx); err != nil {
				r.logger.Warn("benchmark refresh failed, retaining existing data", "error", err)
			}
		}
	}
}
