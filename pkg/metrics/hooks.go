package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/matzehuels/flowsankey/pkg/observability"
)

var (
	_ observability.PipelineHooks = (*Registry)(nil)
	_ observability.LayoutHooks   = (*Registry)(nil)
	_ observability.CacheHooks    = (*Registry)(nil)
	_ observability.HTTPHooks     = (*Registry)(nil)
)

func (r *Registry) OnBuildComplete(_ context.Context, nodes, links, excluded int, d time.Duration) {
	r.GraphNodes.Observe(float64(nodes))
	r.GraphLinks.Observe(float64(links))
	r.ExcludedLinks.Add(float64(excluded))
	r.BuildDuration.Observe(d.Seconds())
}

func (r *Registry) OnRenderStart(context.Context, []string) {
	r.RendersInFlight.Inc()
}

func (r *Registry) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	r.RendersInFlight.Dec()
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.RendersTotal.WithLabelValues(status).Inc()
	r.RenderDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (r *Registry) OnMemoHit(context.Context)  { r.MemoLookups.WithLabelValues("hit").Inc() }
func (r *Registry) OnMemoMiss(context.Context) { r.MemoLookups.WithLabelValues("miss").Inc() }

func (r *Registry) OnLayoutComplete(_ context.Context, _, columns int, d time.Duration) {
	r.LayoutColumns.Observe(float64(columns))
	r.LayoutDuration.Observe(d.Seconds())
}

func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheOps.WithLabelValues(keyType, "set").Inc()
	r.CacheSizeBytes.WithLabelValues(keyType).Observe(float64(size))
}

func (r *Registry) OnRequest(context.Context, string, string) {
	r.HTTPRequestsInFlight.Inc()
}

func (r *Registry) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	r.HTTPRequestsInFlight.Dec()
	code := strconv.Itoa(status)
	r.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}
