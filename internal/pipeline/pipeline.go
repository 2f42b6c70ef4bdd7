// Package pipeline runs one fetch, aggregate and load pass over the DIVI
// daily reports.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/couchcryptid/divi-occupancy-etl/internal/observability"
)

// Fetcher brings the local report cache up to date.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Loader writes one aggregation to a destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, agg domain.Aggregate) error
}

// Pipeline orchestrates the fetch, aggregate and load stages.
type Pipeline struct {
	fetcher    Fetcher
	aggregator *ReportAggregator
	loaders    []Loader
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Pipeline. fetcher may be nil to aggregate the cache as is.
func New(fetcher Fetcher, source ReportSource, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:    fetcher,
		aggregator: NewReportAggregator(source, metrics, logger),
		loaders:    loaders,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run executes the stages once. The first error aborts the run; loaders that
// already ran keep their output.
func (p *Pipeline) Run(ctx context.Context) error {
	start := clock.Now()
	p.logger.Info("pipeline started", "fetch", p.fetcher != nil, "loaders", len(p.loaders))

	if p.fetcher != nil {
		if err := p.stage("fetch", func() error { return p.fetcher.Fetch(ctx) }); err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
	} else {
		p.logger.Info("fetching disabled, using cached reports")
	}

	var agg domain.Aggregate
	err := p.stage("aggregate", func() error {
		var err error
		agg, err = p.aggregator.Aggregate(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	err = p.stage("load", func() error {
		for _, l := range p.loaders {
			if err := l.Load(ctx, agg); err != nil {
				return fmt.Errorf("%s: %w", l.Name(), err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	p.metrics.LastSuccess.Set(float64(clock.Now().Unix()))
	p.logger.Info("pipeline finished", "duration", clock.Since(start))
	return nil
}

func (p *Pipeline) stage(name string, fn func() error) error {
	start := clock.Now()
	err := fn()
	elapsed := clock.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		p.logger.Error("stage failed", "stage", name, "error", err)
		return err
	}
	p.logger.Debug("stage finished", "stage", name, "duration", elapsed)
	return nil
}
