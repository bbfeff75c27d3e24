// Package metrics defines the Prometheus collectors used by the search
// server and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	ZeroResultRequests prometheus.Gauge
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	CacheBreakerState  prometheus.Gauge

	DocumentsAddedTotal   *prometheus.CounterVec
	DocumentsRemovedTotal *prometheus.CounterVec
	DuplicatesRemoved     prometheus.Counter
	IndexedDocuments      prometheus.Gauge
	IndexedWords          prometheus.Gauge
	IngestEventsTotal     *prometheus.CounterVec
	IngestPublishedTotal  *prometheus.CounterVec

	RateLimitedTotal prometheus.Counter
}

// New creates all collectors and registers them on reg. Passing
// prometheus.DefaultRegisterer exposes them through Handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Ranking latency in seconds by execution mode.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
			},
		),
		ZeroResultRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "search_zero_result_requests",
				Help: "Zero-result queries within the trailing request window.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		CacheBreakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cache_circuit_state",
				Help: "Redis cache circuit breaker state (0 closed, 1 open, 2 half-open).",
			},
		),
		DocumentsAddedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_added_total",
				Help: "Documents added to the index by outcome.",
			},
			[]string{"status"},
		),
		DocumentsRemovedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_removed_total",
				Help: "Document removals by execution mode.",
			},
			[]string{"mode"},
		),
		DuplicatesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "documents_duplicates_removed_total",
				Help: "Documents removed as duplicates of a lower id.",
			},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Number of live documents in the index.",
			},
		),
		IndexedWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_words",
				Help: "Number of distinct words in the index.",
			},
		),
		IngestEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_events_total",
				Help: "Ingest events consumed by operation and outcome.",
			},
			[]string{"op", "status"},
		),
		IngestPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_published_total",
				Help: "Ingest events published to Kafka by operation and outcome.",
			},
			[]string{"op", "status"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.ZeroResultRequests,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheBreakerState,
		m.DocumentsAddedTotal,
		m.DocumentsRemovedTotal,
		m.DuplicatesRemoved,
		m.IndexedDocuments,
		m.IndexedWords,
		m.IngestEventsTotal,
		m.IngestPublishedTotal,
		m.RateLimitedTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
