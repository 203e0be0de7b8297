package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	RecordsFetched    prometheus.Counter
	RowsStored        prometheus.Gauge
	PagesFailedTotal  prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	BootstrapFailures prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	recordsFetched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_records_fetched_total",
			Help: "Total number of records extracted from API pages.",
		},
	)
	rowsStored := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_rows_stored",
			Help: "Rows currently published in the shared table.",
		},
	)
	pagesFailed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_failed_total",
			Help: "Pages skipped because the fetch failed.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	bootstrapFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_bootstrap_failures_total",
			Help: "Cookie warm-up requests that failed.",
		},
	)

	registry.MustRegister(requests, requestDuration, recordsFetched, rowsStored, pagesFailed, errorsTotal, bootstrapFailures)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		RecordsFetched:    recordsFetched,
		RowsStored:        rowsStored,
		PagesFailedTotal:  pagesFailed,
		ErrorsTotal:       errorsTotal,
		BootstrapFailures: bootstrapFailures,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddRecords counts records extracted from a page.
func (m *Metrics) AddRecords(n int) {
	if m == nil {
		return
	}
	m.RecordsFetched.Add(float64(n))
}

// SetRows publishes the current table size.
func (m *Metrics) SetRows(n int) {
	if m == nil {
		return
	}
	m.RowsStored.Set(float64(n))
}

// PageFailed counts a skipped page under its error type.
func (m *Metrics) PageFailed(errorType string) {
	if m == nil {
		return
	}
	m.PagesFailedTotal.Inc()
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncBootstrapFailure counts a failed warm-up.
func (m *Metrics) IncBootstrapFailure() {
	if m == nil {
		return
	}
	m.BootstrapFailures.Inc()
	m.ErrorsTotal.WithLabelValues("bootstrap").Inc()
}
