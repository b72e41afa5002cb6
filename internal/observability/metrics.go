package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "epi_reports"

// Metrics holds the Prometheus collectors for report loading, aggregation
// and export.
type Metrics struct {
	ReportsLoaded      prometheus.Counter
	ReportLoadErrors   *prometheus.CounterVec // labels: kind={not_found,malformed,degenerate,internal}
	ReportLoadDuration prometheus.Histogram
	ReportCacheLookups *prometheus.CounterVec // labels: result={hit,miss}

	AggregationsTotal   *prometheus.CounterVec   // labels: form={wide,long,full}, outcome={success,error}
	AggregationEntities prometheus.Histogram
	AggregationDuration *prometheus.HistogramVec // labels: form

	MessagesPublished prometheus.Counter
	ArchiveLastDay    prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_loaded_total",
			Help:      "Total report files loaded successfully.",
		}),
		ReportLoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_load_errors_total",
			Help:      "Report load failures by kind.",
		}, []string{"kind"}),
		ReportLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_load_duration_seconds",
			Help:      "Time to read and type a single report file.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		ReportCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_lookups_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		AggregationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Aggregation calls by form and outcome.",
		}, []string{"form", "outcome"}),
		AggregationEntities: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_entities",
			Help:      "Number of entities merged per aggregation.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250},
		}),
		AggregationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a complete aggregation, loading included.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"form"}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Total aggregated rows written to the export topic.",
		}),
		ArchiveLastDay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_last_day_timestamp_seconds",
			Help:      "Unix time of the last reliable day in the daily archive.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsLoaded,
		m.ReportLoadErrors,
		m.ReportLoadDuration,
		m.ReportCacheLookups,
		m.AggregationsTotal,
		m.AggregationEntities,
		m.AggregationDuration,
		m.MessagesPublished,
		m.ArchiveLastDay,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
