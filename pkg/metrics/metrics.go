// Package metrics implements the observability hooks with Prometheus
// collectors.
//
// A [Registry] owns its own prometheus.Registry, so tests and multiple
// servers in one process never collide on metric names:
//
//	m := metrics.NewRegistry()
//	m.Install()
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flowsankey/pkg/observability"
)

const namespace = "flowsankey"

// Registry holds all metrics for the application.
type Registry struct {
	// Pipeline Metrics
	GraphNodes      prometheus.Histogram
	GraphLinks      prometheus.Histogram
	ExcludedLinks   prometheus.Counter
	BuildDuration   prometheus.Histogram
	RendersTotal    *prometheus.CounterVec
	RenderDuration  *prometheus.HistogramVec
	RendersInFlight prometheus.Gauge

	// Layout Metrics
	MemoLookups    *prometheus.CounterVec
	LayoutDuration prometheus.Histogram
	LayoutColumns  prometheus.Histogram

	// Cache Metrics
	CacheOps       *prometheus.CounterVec
	CacheSizeBytes *prometheus.HistogramVec

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric initialized plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initPipelineMetrics()
	r.initLayoutMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

// Install registers r as the process-wide observability hooks.
func (r *Registry) Install() {
	observability.SetPipelineHooks(r)
	observability.SetLayoutHooks(r)
	observability.SetCacheHooks(r)
	observability.SetHTTPHooks(r)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

func (r *Registry) initPipelineMetrics() {
	f := promauto.With(r.registry)

	r.GraphNodes = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "graph_nodes",
		Help:      "Number of nodes per built graph",
		Buckets:   []float64{2, 5, 10, 20, 50, 100},
	})
	r.GraphLinks = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "graph_links",
		Help:      "Number of links per built graph",
		Buckets:   []float64{1, 5, 10, 20, 50, 100, 200},
	})
	r.ExcludedLinks = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "graph_excluded_links_total",
		Help:      "Links excluded from layout because they close a cycle",
	})
	r.BuildDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "graph_build_duration_seconds",
		Help:      "Graph build latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	r.RendersTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renders_total",
		Help:      "Pipeline runs by outcome",
	}, []string{"status"})
	r.RenderDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Pipeline run latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
	r.RendersInFlight = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "renders_in_flight",
		Help:      "Pipeline runs currently executing",
	})
}

func (r *Registry) initLayoutMetrics() {
	f := promauto.With(r.registry)

	r.MemoLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "layout_memo_lookups_total",
		Help:      "Layout memo lookups by result",
	}, []string{"result"})
	r.LayoutDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_duration_seconds",
		Help:      "Layout computation latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	r.LayoutColumns = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_columns",
		Help:      "Number of columns per computed layout",
		Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
	})
}

func (r *Registry) initCacheMetrics() {
	f := promauto.With(r.registry)

	r.CacheOps = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_operations_total",
		Help:      "Artifact cache operations by key type and result",
	}, []string{"type", "result"})
	r.CacheSizeBytes = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cache_entry_size_bytes",
		Help:      "Size of cache entries written",
		Buckets:   []float64{1000, 10000, 100000, 1000000, 10000000},
	}, []string{"type"})
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)

	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	r.HTTPRequestsInFlight = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Current number of HTTP requests being processed",
	})
}
