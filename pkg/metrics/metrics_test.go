package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/matzehuels/flowsankey/pkg/observability"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.RendersTotal == nil || r.MemoLookups == nil || r.CacheOps == nil || r.HTTPRequestsTotal == nil {
		t.Fatal("metrics not initialized")
	}
	// Independent registries must not collide.
	if NewRegistry().GetPrometheusRegistry() == r.GetPrometheusRegistry() {
		t.Error("registries share a prometheus registry")
	}
}

func TestPipelineHooks(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.OnBuildComplete(ctx, 10, 9, 1, time.Millisecond)
	r.OnRenderStart(ctx, []string{"svg"})
	if got := gaugeValue(t, r.RendersInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	r.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, nil)
	r.OnRenderStart(ctx, []string{"png"})
	r.OnRenderComplete(ctx, []string{"png"}, time.Millisecond, errors.New("boom"))

	if got := gaugeValue(t, r.RendersInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := counterValue(t, r.RendersTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok renders = %v, want 1", got)
	}
	if got := counterValue(t, r.RendersTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error renders = %v, want 1", got)
	}
	if got := counterValue(t, r.ExcludedLinks); got != 1 {
		t.Errorf("excluded links = %v, want 1", got)
	}
}

func TestLayoutAndCacheHooks(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.OnMemoMiss(ctx)
	r.OnMemoHit(ctx)
	r.OnMemoHit(ctx)
	r.OnLayoutComplete(ctx, 10, 4, time.Millisecond)
	r.OnCacheMiss(ctx, "artifact")
	r.OnCacheSet(ctx, "artifact", 2048)
	r.OnCacheHit(ctx, "artifact")

	tests := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"memo hit", r.MemoLookups.WithLabelValues("hit"), 2},
		{"memo miss", r.MemoLookups.WithLabelValues("miss"), 1},
		{"cache hit", r.CacheOps.WithLabelValues("artifact", "hit"), 1},
		{"cache miss", r.CacheOps.WithLabelValues("artifact", "miss"), 1},
		{"cache set", r.CacheOps.WithLabelValues("artifact", "set"), 1},
	}
	for _, tt := range tests {
		if got := counterValue(t, tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHTTPHooks(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.OnRequest(ctx, "POST", "/v1/render")
	r.OnResponse(ctx, "POST", "/v1/render", 200, 10*time.Millisecond)

	if got := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("POST", "/v1/render", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
	if got := gaugeValue(t, r.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestInstall(t *testing.T) {
	r := NewRegistry()
	r.Install()
	t.Cleanup(func() {
		observability.SetPipelineHooks(observability.NoopPipelineHooks{})
		observability.SetLayoutHooks(observability.NoopLayoutHooks{})
		observability.SetCacheHooks(observability.NoopCacheHooks{})
		observability.SetHTTPHooks(observability.NoopHTTPHooks{})
	})

	observability.Layout().OnMemoHit(context.Background())
	if got := counterValue(t, r.MemoLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("memo hits after Install = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.OnMemoHit(context.Background())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(string(body), `flowsankey_layout_memo_lookups_total{result="hit"} 1`) {
		t.Errorf("metrics output missing memo counter:\n%.500s", body)
	}
}
