// Package pipeline coordinates one fetch cycle: fan out one normalize call
// per requested source, join all of them, and hand successes to the
// persistence collaborator. Failures stay local to their source; the
// orchestrator itself never returns an error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/observability"
	"github.com/couchcryptid/space-weather-ingest/internal/source"
)

// Store is the persistence collaborator. Both writes are append-only: each
// call creates one new record and must tolerate concurrent writers, one per
// in-flight source.
type Store interface {
	SaveReport(ctx context.Context, report domain.NormalizedReport) error
	SaveFetchLog(ctx context.Context, entry domain.FetchLog) error
}

// Summary is the aggregate outcome of one fetch cycle. Results preserves
// the caller's source order regardless of completion order. A partially
// failed cycle is a normal outcome, not an error.
type Summary struct {
	Results           []domain.FetchResult
	SuccessfulReports []domain.NormalizedReport
	Errors            []error
	TotalTime         time.Duration
}

// Orchestrator fans fetches out across sources and owns the FetchResult
// lifetime for one cycle. Reports belong to the store once saved.
type Orchestrator struct {
	normalizers map[domain.Source]source.Normalizer
	store       Store
	logger      *slog.Logger
	metrics     *observability.Metrics
	ran         atomic.Bool
}

// New creates an Orchestrator. A nil store disables persistence regardless
// of the persist flag passed to FetchAll.
func New(normalizers map[domain.Source]source.Normalizer, store Store, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		normalizers: normalizers,
		store:       store,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once at least one fetch cycle has completed.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ran.Load() {
		return errors.New("no fetch cycle completed yet")
	}
	return nil
}

// FetchAll runs one cycle over the requested sources, all started
// concurrently. It waits for every source to finish; one source's failure
// or timeout never aborts its siblings, and persistence failures never
// convert a successful fetch into a failed one.
func (o *Orchestrator) FetchAll(ctx context.Context, sources []domain.Source, persist bool) Summary {
	start := time.Now()
	o.metrics.CycleActive.Set(1)
	defer o.metrics.CycleActive.Set(0)

	results := make([]domain.FetchResult, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i] = o.fetchOne(ctx, src, persist)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers record failures in their result slot

	summary := Summary{Results: results}
	for _, res := range results {
		if res.Success {
			summary.SuccessfulReports = append(summary.SuccessfulReports, *res.Report)
			continue
		}
		summary.Errors = append(summary.Errors, fmt.Errorf("%s: %w", res.Source, res.Err))
	}
	summary.TotalTime = time.Since(start)

	o.metrics.CycleDuration.Observe(summary.TotalTime.Seconds())
	o.ran.Store(true)

	o.logger.Info("fetch cycle complete",
		"sources", len(sources),
		"succeeded", len(summary.SuccessfulReports),
		"failed", len(summary.Errors),
		"total_time", summary.TotalTime,
	)
	return summary
}

// fetchOne wraps a single normalize call with timing, metrics, and optional
// persistence. It never panics or propagates errors; the result carries the
// outcome.
func (o *Orchestrator) fetchOne(ctx context.Context, src domain.Source, persist bool) domain.FetchResult {
	normalizer, ok := o.normalizers[src]
	if !ok {
		err := fmt.Errorf("no normalizer registered for source %q", src)
		o.metrics.FetchesTotal.WithLabelValues(string(src), "failure").Inc()
		return domain.FetchResult{Source: src, Err: err}
	}

	started := time.Now()
	report, err := normalizer.Normalize(ctx)
	elapsed := time.Since(started)

	o.metrics.FetchDuration.WithLabelValues(string(src)).Observe(elapsed.Seconds())

	if err != nil {
		o.metrics.FetchesTotal.WithLabelValues(string(src), "failure").Inc()
		o.logger.Warn("source fetch failed", "source", src, "error", err, "response_time", elapsed)
		if persist {
			o.saveFetchLog(ctx, domain.FetchLog{
				Source:         src,
				Success:        false,
				ResponseTimeMs: elapsed.Milliseconds(),
				ErrorMessage:   err.Error(),
				CreatedAt:      domain.Clock().Now().UTC(),
			})
		}
		return domain.FetchResult{Source: src, Err: err, ResponseTime: elapsed}
	}

	o.metrics.FetchesTotal.WithLabelValues(string(src), "success").Inc()
	o.metrics.QualityScore.WithLabelValues(string(src)).Observe(report.QualityScore)
	if n := len(report.ProcessingErrors); n > 0 {
		o.metrics.ParseDegradations.WithLabelValues(string(src)).Add(float64(n))
	}

	if persist {
		o.saveReport(ctx, report)
		o.saveFetchLog(ctx, domain.FetchLog{
			Source:         src,
			URL:            report.SourceURL,
			Success:        true,
			ResponseTimeMs: elapsed.Milliseconds(),
			DataPoints:     1,
			CreatedAt:      domain.Clock().Now().UTC(),
		})
	}

	return domain.FetchResult{
		Source:       src,
		Success:      true,
		Report:       &report,
		ResponseTime: elapsed,
	}
}

// saveReport hands a report to the store. Failures are logged and counted
// only; fetch success is independent of persistence success.
func (o *Orchestrator) saveReport(ctx context.Context, report domain.NormalizedReport) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveReport(ctx, report); err != nil {
		o.metrics.PersistErrors.Inc()
		o.logger.Error("persist report failed", "source", report.Source, "error", err)
		return
	}
	o.metrics.ReportsPersisted.Inc()
}

func (o *Orchestrator) saveFetchLog(ctx context.Context, entry domain.FetchLog) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveFetchLog(ctx, entry); err != nil {
		o.metrics.PersistErrors.Inc()
		o.logger.Error("persist fetch log failed", "source", entry.Source, "error", err)
	}
}

// MergeFlareCatalogs fetches the primary and secondary flare catalogs
// concurrently and reconciles them with the minute-window deduplicator.
// A single failed catalog degrades to a one-sided merge with a warning;
// an error is returned only when both catalogs fail.
func (o *Orchestrator) MergeFlareCatalogs(ctx context.Context, primary, secondary source.FlareCatalog) ([]domain.FlareEvent, error) {
	var (
		primaryEvents, secondaryEvents []domain.FlareEvent
		primaryErr, secondaryErr       error
	)

	var g errgroup.Group
	g.Go(func() error {
		primaryEvents, primaryErr = primary.Flares(ctx)
		return nil
	})
	g.Go(func() error {
		secondaryEvents, secondaryErr = secondary.Flares(ctx)
		return nil
	})
	g.Wait() //nolint:errcheck // errors captured per catalog

	if primaryErr != nil && secondaryErr != nil {
		return nil, fmt.Errorf("both flare catalogs failed: primary: %v; secondary: %w", primaryErr, secondaryErr)
	}
	if primaryErr != nil {
		o.logger.Warn("primary flare catalog failed, merging secondary only", "error", primaryErr)
	}
	if secondaryErr != nil {
		o.logger.Warn("secondary flare catalog failed, merging primary only", "error", secondaryErr)
	}

	merged := domain.MergeFlareEvents(primaryEvents, secondaryEvents)
	if dropped := len(primaryEvents) + len(secondaryEvents) - len(merged); dropped > 0 {
		o.metrics.FlareDuplicates.Add(float64(dropped))
	}
	return merged, nil
}
