package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the pipeline.
// All methods are nil-safe so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	StageDuration  *prometheus.HistogramVec
	StageItems     *prometheus.GaugeVec
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	UpstreamErrors *prometheus.CounterVec
	Requests       *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etfnav_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"stage", "result"},
		),

		StageItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "etfnav_stage_output_items",
				Help: "Number of rows emitted by the last run of each stage",
			},
			[]string{"stage"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfnav_cache_hits_total",
				Help: "Total number of cache hits by cache type",
			},
			[]string{"cache_type"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfnav_cache_misses_total",
				Help: "Total number of cache misses by cache type",
			},
			[]string{"cache_type"},
		),

		UpstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfnav_upstream_errors_total",
				Help: "Total number of failed upstream fetches by provider",
			},
			[]string{"provider"},
		),

		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfnav_requests_total",
				Help: "Total number of recommendation and backtest requests",
			},
			[]string{"kind", "result"},
		),
	}

	m.registry.MustRegister(
		m.StageDuration,
		m.StageItems,
		m.CacheHits,
		m.CacheMisses,
		m.UpstreamErrors,
		m.Requests,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records a stage duration and its output size
func (m *Metrics) ObserveStage(stage string, d time.Duration, items int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StageDuration.WithLabelValues(stage, result).Observe(d.Seconds())
	m.StageItems.WithLabelValues(stage).Set(float64(items))
}

// CacheHit increments the hit counter for a cache type
func (m *Metrics) CacheHit(cacheType string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// CacheMiss increments the miss counter for a cache type
func (m *Metrics) CacheMiss(cacheType string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}

// UpstreamError increments the error counter for a provider
func (m *Metrics) UpstreamError(provider string) {
	if m == nil {
		return
	}
	m.UpstreamErrors.WithLabelValues(provider).Inc()
}

// Request counts a handled request
func (m *Metrics) Request(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Requests.WithLabelValues(kind, result).Inc()
}
