// Package metrics provides Prometheus metrics for the note engine, the HTTP
// surface and the inbox importer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/starford/notesd/internal/apperr"
)

const (
	bucketStart1ms = 0.001
	bucketFactor2  = 2
	bucketCount15  = 15
)

// Metrics contains the Prometheus collectors for notesd. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	notesStored       prometheus.Gauge
	searchResults     prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	sseClients          prometheus.Gauge

	inboxImportsTotal *prometheus.CounterVec

	collectors []prometheus.Collector
}

// New creates the metrics and registers them, together with the Go runtime
// and process collectors, on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry the metrics were registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesd_operations_total",
			Help: "Total number of note operations",
		},
		[]string{"operation", "status"}, // status: success, error
	)
	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notesd_operation_duration_seconds",
			Help:    "Time taken for note operations",
			Buckets: prometheus.ExponentialBuckets(bucketStart1ms, bucketFactor2, bucketCount15),
		},
		[]string{"operation"},
	)
	m.operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesd_operation_errors_total",
			Help: "Total number of failed note operations by error kind",
		},
		[]string{"operation", "error_type"},
	)
	m.notesStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notesd_notes_stored",
		Help: "Number of notes currently stored",
	})
	m.searchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "notesd_search_results",
		Help:    "Number of notes returned per search page",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notesd_http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.sseClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notesd_sse_clients",
		Help: "Number of connected event stream clients",
	})

	m.inboxImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesd_inbox_imports_total",
			Help: "Total number of inbox files processed",
		},
		[]string{"status"}, // status: imported, failed
	)

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.operationErrors,
		m.notesStored,
		m.searchResults,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.sseClients,
		m.inboxImportsTotal,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordOperation records the outcome and duration of a facade operation.
func (m *Metrics) RecordOperation(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		m.operationErrors.WithLabelValues(operation, apperr.Kind(err)).Inc()
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// SetNotesStored sets the stored note gauge.
func (m *Metrics) SetNotesStored(n int) {
	if m == nil {
		return
	}
	m.notesStored.Set(float64(n))
}

// AddNotesStored moves the stored note gauge by delta.
func (m *Metrics) AddNotesStored(delta int) {
	if m == nil {
		return
	}
	m.notesStored.Add(float64(delta))
}

// RecordSearchResults records the size of a search page.
func (m *Metrics) RecordSearchResults(n int) {
	if m == nil {
		return
	}
	m.searchResults.Observe(float64(n))
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SSEClientConnected and SSEClientDisconnected track open event streams.
func (m *Metrics) SSEClientConnected() {
	if m == nil {
		return
	}
	m.sseClients.Inc()
}

func (m *Metrics) SSEClientDisconnected() {
	if m == nil {
		return
	}
	m.sseClients.Dec()
}

// RecordInboxImport records one processed inbox file.
func (m *Metrics) RecordInboxImport(status string) {
	if m == nil {
		return
	}
	m.inboxImportsTotal.WithLabelValues(status).Inc()
}
