package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowsankey/pkg/balance"
	"github.com/matzehuels/flowsankey/pkg/cache"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/httputil"
	"github.com/matzehuels/flowsankey/pkg/layout"
	"github.com/matzehuels/flowsankey/pkg/observability"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/render/sink"
	"github.com/matzehuels/flowsankey/pkg/scene"
)

const cacheKeyType = "artifact"

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the layout memo and the
// logger - it doesn't store pipeline results. Multiple goroutines can
// safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Memo   *layout.Memo
	Logger *log.Logger

	// Images downloads http(s) image sources for PNG output. When nil,
	// remote images are drawn as placeholders.
	Images *httputil.Fetcher

	// TTL is the lifetime of cached artifacts. Zero uses cache.TTLArtifact.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Memo:   layout.NewMemo(),
		Logger: logger,
	}
}

// Execute runs the complete build → layout → scene → render pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	result = &Result{
		Balance:   balance.Check(opts.Rows),
		Artifacts: make(map[string][]byte, len(opts.Formats)),
	}
	if !result.Balance.OK() {
		r.Logger.Warn("rows do not balance",
			"imbalanced", len(result.Balance.Imbalanced()),
			"issues", len(result.Balance.Issues))
	}

	result.InputHash, err = opts.InputHash()
	if err != nil {
		return nil, err
	}

	if !opts.Refresh {
		if cached, ok := r.cachedArtifacts(ctx, result.InputHash, opts); ok {
			result.Artifacts = cached
			result.CacheInfo.RenderHit = true
			r.Logger.Info("served from cache", "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 1: Build
	buildStart := time.Now()
	g := BuildGraph(ctx, opts.Rows, opts.Classifier())
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.LinkCount = g.LinkCount()
	result.Stats.Excluded = len(g.Cycles())

	r.Logger.Info("built graph",
		"nodes", g.NodeCount(),
		"links", g.LinkCount(),
		"duration", result.Stats.BuildTime)
	if n := len(g.Cycles()); n > 0 {
		r.Logger.Warn("excluded links closing cycles", "count", n)
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	settings := *opts.Settings
	l, hit := ComputeLayout(ctx, r.Memo, g, settings)
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"columns", l.ColumnCount(),
		"memo", hit,
		"duration", result.Stats.LayoutTime)

	// Stage 3+4: Scene and render
	renderStart := time.Now()
	result.Scene = scene.Build(g, l, settings, nil, scene.WithLanguage(opts.LanguageTag()))
	artifacts, err := r.Render(ctx, g, result.Scene, settings, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// cachedArtifacts returns every requested format from the cache, or false
// when any is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, inputHash string, opts Options) (map[string][]byte, bool) {
	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, cacheKeyType)
			return nil, false
		}
		observability.Cache().OnCacheHit(ctx, cacheKeyType)
		out[format] = data
	}
	return out, true
}

// Render serializes sc into every requested format concurrently and
// caches each artifact.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, sc *scene.Scene, s override.ReportSettings, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	inputHash, err := opts.InputHash()
	if err != nil {
		return nil, err
	}

	loader := sink.WithImageLoader(ImageLoader(ctx, r.Images))

	var mu sync.Mutex
	artifacts := make(map[string][]byte, len(opts.Formats))

	eg, ctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		eg.Go(func() error {
			data, err := RenderFormat(ctx, format, g, sc, s, opts.Scale, loader)
			if err != nil {
				return fmt.Errorf("%s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()

			key := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts(format))
			if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
				r.Logger.Warn("cache write failed", "format", format, "error", err)
				return nil
			}
			observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLArtifact
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
