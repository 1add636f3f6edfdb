package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floreser"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// HTTP metrics.
	HTTPRequests        *prometheus.CounterVec   // labels: route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: route

	// Dataset metrics.
	DatasetLoads        *prometheus.CounterVec // labels: outcome={success,error}
	DatasetLoadDuration prometheus.Histogram
	DatasetRecords      prometheus.Gauge
	DatasetRowWarnings  prometheus.Gauge
	DatasetCache        *prometheus.CounterVec // labels: result={hit,miss}

	// Boundary GeoJSON metrics.
	BoundaryRequests      *prometheus.CounterVec // labels: outcome={success,error,canceled,rejected}
	BoundaryCache         *prometheus.CounterVec // labels: result={hit,miss}
	BoundaryFetchDuration prometheus.Histogram
	CircuitBreakerState   *prometheus.GaugeVec // labels: name; 0=closed 1=half-open 2=open

	// Background refresh metrics.
	RefreshRunning         prometheus.Gauge
	RefreshErrors          prometheus.Counter
	DatasetEventsPublished prometheus.Counter
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.register(prometheus.DefaultRegisterer)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	m.register(prometheus.NewRegistry())
	return m
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route pattern.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route"}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset file reads by outcome.",
		}, []string{"outcome"}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a full dataset read and parse.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Number of records in the most recently loaded dataset.",
		}),
		DatasetRowWarnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_row_warnings",
			Help:      "Rows in the last loaded dataset that were skipped or had unparsable fields.",
		}),
		DatasetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_cache_total",
			Help:      "Dataset snapshot lookups by result.",
		}, []string{"result"}),
		BoundaryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundary_requests_total",
			Help:      "Upstream boundary GeoJSON fetches by outcome.",
		}, []string{"outcome"}),
		BoundaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundary_cache_total",
			Help:      "Boundary GeoJSON cache lookups by result.",
		}, []string{"result"}),
		BoundaryFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "boundary_fetch_duration_seconds",
			Help:      "Upstream boundary GeoJSON request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"name"}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_running",
			Help:      "1 when the background dataset refresher is active, 0 when stopped.",
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Background refresh cycles that failed.",
		}),
		DatasetEventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_events_published_total",
			Help:      "Dataset reload events written to Kafka.",
		}),
	}
}

func (m *Metrics) register(r prometheus.Registerer) {
	r.MustRegister(
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.DatasetRecords,
		m.DatasetRowWarnings,
		m.DatasetCache,
		m.BoundaryRequests,
		m.BoundaryCache,
		m.BoundaryFetchDuration,
		m.CircuitBreakerState,
		m.RefreshRunning,
		m.RefreshErrors,
		m.DatasetEventsPublished,
	)
}
