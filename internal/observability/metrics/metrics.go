package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics records data-plane HTTP activity.
type APIMetrics struct {
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	rateLimits *prometheus.CounterVec
}

// IngestMetrics records per-pipeline ingestion activity.
type IngestMetrics struct {
	records  *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	apiOnce    sync.Once
	apiReg     *APIMetrics
	ingestOnce sync.Once
	ingestReg  *IngestMetrics
)

// API returns the lazily-initialised HTTP metrics registry.
func API() *APIMetrics {
	apiOnce.Do(func() {
		apiReg = &APIMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "canpoli",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests segmented by route, method, and status.",
			}, []string{"route", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "canpoli",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for HTTP handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
			rateLimits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "canpoli",
				Subsystem: "http",
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the fixed-window rate limiter.",
			}, []string{"tier"}),
		}
		prometheus.MustRegister(apiReg.requests, apiReg.latency, apiReg.rateLimits)
	})
	return apiReg
}

// Observe records a completed HTTP request.
func (m *APIMetrics) Observe(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RateLimited records a 429 rejection for the given tier ("free" or "paid").
func (m *APIMetrics) RateLimited(tier string) {
	if m == nil {
		return
	}
	m.rateLimits.WithLabelValues(tier).Inc()
}

// Ingest returns the lazily-initialised ingestion metrics registry.
func Ingest() *IngestMetrics {
	ingestOnce.Do(func() {
		ingestReg = &IngestMetrics{
			records: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "canpoli",
				Subsystem: "ingest",
				Name:      "records_total",
				Help:      "Records written by ingestion pipelines.",
			}, []string{"pipeline", "kind"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "canpoli",
				Subsystem: "ingest",
				Name:      "errors_total",
				Help:      "Errors recorded by ingestion pipelines.",
			}, []string{"pipeline"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "canpoli",
				Subsystem: "ingest",
				Name:      "pipeline_duration_seconds",
				Help:      "Wall-clock duration of pipeline runs.",
				Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
			}, []string{"pipeline"}),
		}
		prometheus.MustRegister(ingestReg.records, ingestReg.errors, ingestReg.duration)
	})
	return ingestReg
}

// Records adds written-record counts for a pipeline.
func (m *IngestMetrics) Records(pipeline, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(pipeline, kind).Add(float64(n))
}

// Errors adds error counts for a pipeline.
func (m *IngestMetrics) Errors(pipeline string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.errors.WithLabelValues(pipeline).Add(float64(n))
}

// Duration records a pipeline run duration.
func (m *IngestMetrics) Duration(pipeline string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(pipeline).Observe(elapsed.Seconds())
}
