// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Upload metrics
	FilesUploaded    prometheus.Counter
	UploadErrors     *prometheus.CounterVec
	RowsParsed       prometheus.Counter
	DuplicateUploads prometheus.Counter

	// Run metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	TradesPerRun    prometheus.Histogram
	InstrumentsSeen prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "portfolio_lab"
	}

	return &Metrics{
		// Upload metrics
		FilesUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Total number of CSV files accepted into batches",
		}),
		UploadErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "errors_total",
			Help:      "Total number of rejected uploads by reason",
		}, []string{"reason"}),
		RowsParsed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "rows_parsed_total",
			Help:      "Total number of raw CSV rows parsed",
		}),
		DuplicateUploads: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "duplicates_total",
			Help:      "Total number of uploads rejected as duplicate content",
		}),

		// Run metrics
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Total number of portfolio runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Portfolio run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		TradesPerRun: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "trades_per_run",
			Help:      "Number of normalized trades per portfolio run",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
		}),
		InstrumentsSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "instruments_total",
			Help:      "Total number of instrument files processed across runs",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful portfolio run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordUpload records an accepted upload and its parsed row count.
func RecordUpload(rows int) {
	DefaultMetrics.FilesUploaded.Inc()
	DefaultMetrics.RowsParsed.Add(float64(rows))
}

// RecordUploadError records a rejected upload.
func RecordUploadError(reason string) {
	DefaultMetrics.UploadErrors.WithLabelValues(reason).Inc()
}

// RecordDuplicateUpload records an upload rejected as duplicate content.
func RecordDuplicateUpload() {
	DefaultMetrics.DuplicateUploads.Inc()
	DefaultMetrics.UploadErrors.WithLabelValues("duplicate").Inc()
}

// RecordRun records a completed portfolio run.
func RecordRun(status string, durationSeconds float64, trades, instruments int) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
	DefaultMetrics.TradesPerRun.Observe(float64(trades))
	DefaultMetrics.InstrumentsSeen.Add(float64(instruments))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
