package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for one ETL run.
type Metrics struct {
	// Fetch metrics.
	ListingLinks    prometheus.Gauge
	ReportsListed   prometheus.Gauge
	FetchRequests   *prometheus.CounterVec   // labels: kind={listing,report}, result={hit,miss,error}
	FetchDuration   *prometheus.HistogramVec // labels: kind={listing,report}
	DownloadedBytes prometheus.Counter

	// Aggregation metrics.
	ReportsProcessed prometheus.Counter
	ReportsSkipped   *prometheus.CounterVec // labels: reason={excluded,invalid_name}
	RowsAggregated   prometheus.Counter
	Districts        prometheus.Gauge

	// Run metrics.
	StageDuration    *prometheus.HistogramVec // labels: stage={fetch,aggregate,load}
	RecordsPublished prometheus.Counter
	LastSuccess      prometheus.Gauge
}

// NewMetrics creates and registers all job metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ListingLinks,
		m.ReportsListed,
		m.FetchRequests,
		m.FetchDuration,
		m.DownloadedBytes,
		m.ReportsProcessed,
		m.ReportsSkipped,
		m.RowsAggregated,
		m.Districts,
		m.StageDuration,
		m.RecordsPublished,
		m.LastSuccess,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ListingLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "divi_etl",
			Name:      "listing_links",
			Help:      "Report links found on the archive listing page.",
		}),
		ReportsListed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "divi_etl",
			Name:      "reports_listed",
			Help:      "Distinct report dates left after keeping the latest link per day.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "divi_etl",
			Name:      "fetch_requests_total",
			Help:      "Cached fetches by kind and result.",
		}, []string{"kind", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "divi_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of archive HTTP requests that missed the cache.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		DownloadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "divi_etl",
			Name:      "downloaded_bytes_total",
			Help:      "Bytes downloaded from the archive.",
		}),
		ReportsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "divi_etl",
			Name:      "reports_processed_total",
			Help:      "Daily report files folded into the aggregates.",
		}),
		ReportsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "divi_etl",
			Name:      "reports_skipped_total",
			Help:      "Daily report files skipped, by reason.",
		}, []string{"reason"}),
		RowsAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "divi_etl",
			Name:      "rows_aggregated_total",
			Help:      "District rows folded into the aggregates.",
		}),
		Districts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "divi_etl",
			Name:      "districts",
			Help:      "Districts present in the exported index.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "divi_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "divi_etl",
			Name:      "records_published_total",
			Help:      "Region records written to the Kafka sink.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "divi_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote all outputs.",
		}),
	}
}

// WriteTextfile dumps the default registry in the text exposition format for
// the node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
