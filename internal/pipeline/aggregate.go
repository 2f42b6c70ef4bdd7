package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/divi-occupancy-etl/internal/domain"
	"github.com/couchcryptid/divi-occupancy-etl/internal/observability"
)

// ErrNoReports is returned when not a single report could be aggregated. The
// run stops before any output is replaced.
var ErrNoReports = errors.New("no reports to aggregate")

// ReportSource lists and opens the cached daily reports.
type ReportSource interface {
	List() ([]domain.ReportFile, error)
	Open(f domain.ReportFile) (io.ReadCloser, error)
}

// ReportAggregator folds every listed report into one domain.Aggregate.
type ReportAggregator struct {
	source  ReportSource
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewReportAggregator creates a ReportAggregator over source.
func NewReportAggregator(source ReportSource, metrics *observability.Metrics, logger *slog.Logger) *ReportAggregator {
	return &ReportAggregator{source: source, metrics: metrics, logger: logger}
}

// Aggregate parses the reports in listing order. Files whose name is not an
// ISO date and the excluded dates are skipped; any parse error aborts.
func (a *ReportAggregator) Aggregate(ctx context.Context) (domain.Aggregate, error) {
	files, err := a.source.List()
	if err != nil {
		return domain.Aggregate{}, err
	}

	agg := domain.NewAggregator()
	processed := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return domain.Aggregate{}, err
		}
		switch {
		case !domain.IsISODate(f.Date):
			a.logger.Warn("skipping report with unexpected name", "file", f.Path)
			a.metrics.ReportsSkipped.WithLabelValues("invalid_name").Inc()
			continue
		case domain.IsExcludedDate(f.Date):
			a.logger.Info("skipping excluded report", "date", f.Date)
			a.metrics.ReportsSkipped.WithLabelValues("excluded").Inc()
			continue
		}

		rows, err := a.parse(f)
		if err != nil {
			return domain.Aggregate{}, err
		}
		for _, row := range rows {
			if err := agg.Add(row); err != nil {
				return domain.Aggregate{}, fmt.Errorf("report %s: %w", f.Date, err)
			}
		}
		processed++
		a.metrics.ReportsProcessed.Inc()
		a.metrics.RowsAggregated.Add(float64(len(rows)))
		a.logger.Debug("report aggregated", "date", f.Date, "rows", len(rows))
	}

	if processed == 0 {
		return domain.Aggregate{}, ErrNoReports
	}
	result := agg.Result()
	a.metrics.Districts.Set(float64(len(result.Districts)))
	a.logger.Info("reports aggregated",
		"reports", processed,
		"rows", agg.Rows(),
		"districts", len(result.Districts),
	)
	return result, nil
}

func (a *ReportAggregator) parse(f domain.ReportFile) ([]domain.DistrictRow, error) {
	rc, err := a.source.Open(f)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return domain.ParseReport(rc, f.Date)
}
