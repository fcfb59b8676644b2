package layout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/flowsankey/pkg/cache"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/observability"
)

// Key returns the memo key of a layout: a hash of the graph content and
// every option that affects geometry, including the sibling ranks the
// options report for the graph.
func Key(g *graph.Graph, opts Options) string {
	opts = opts.WithDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "canvas %v %v %v\n", opts.Width, opts.Height, opts.Margins)
	fmt.Fprintf(&b, "nodes %v %v %v\n", opts.NodeWidth, opts.NodePadding, opts.Scale)
	fmt.Fprintf(&b, "text %v %v\n", opts.LabelSize, opts.ValueSize)
	fmt.Fprintf(&b, "iter %d align %s\n", opts.Iterations, opts.Align)
	if g != nil {
		for _, n := range g.Nodes() {
			fmt.Fprintf(&b, "n %q\n", n.Name)
		}
		for _, l := range g.Links() {
			fmt.Fprintf(&b, "l %d %d %v %t\n", l.Source, l.Target, l.Value, l.Excluded)
		}
		if opts.Ranks != nil {
			for i := range g.Nodes() {
				p := g.DominantParent(i)
				if p < 0 {
					continue
				}
				if r, ok := opts.Ranks(i, p); ok {
					fmt.Fprintf(&b, "r %d %d %v\n", i, p, r)
				}
			}
		}
	}
	return cache.Hash([]byte(b.String()))
}

// Memo caches the most recent layout. It is safe for concurrent use.
type Memo struct {
	mu     sync.Mutex
	key    string
	layout *Layout
	hits   int
	misses int
}

// NewMemo creates an empty memo.
func NewMemo() *Memo { return &Memo{} }

// Compute returns the cached layout when the key matches, otherwise it
// computes and caches a new one.
func (m *Memo) Compute(ctx context.Context, g *graph.Graph, opts Options) *Layout {
	l, _ := m.Get(ctx, g, opts)
	return l
}

// Get is Compute that also reports whether the layout came from the memo.
func (m *Memo) Get(ctx context.Context, g *graph.Graph, opts Options) (*Layout, bool) {
	key := Key(g, opts)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.layout != nil && m.key == key {
		m.hits++
		observability.Layout().OnMemoHit(ctx)
		return m.layout, true
	}

	m.misses++
	observability.Layout().OnMemoMiss(ctx)
	start := time.Now()
	l := Compute(g, opts)
	observability.Layout().OnLayoutComplete(ctx, len(l.Nodes), l.ColumnCount(), time.Since(start))

	m.key, m.layout = key, l
	return l, false
}

// Stats returns the number of hits and misses so far.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

// Invalidate drops the cached layout.
func (m *Memo) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key, m.layout = "", nil
}
