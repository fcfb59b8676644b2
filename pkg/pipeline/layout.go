package pipeline

import (
	"context"

	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// ComputeLayout lays g out with the geometry options and sibling ranks of
// s and reports whether the memo already held it. A nil memo computes
// without caching.
func ComputeLayout(ctx context.Context, m *layout.Memo, g *graph.Graph, s override.ReportSettings) (*layout.Layout, bool) {
	opts := s.LayoutOptions(g)
	if m == nil {
		return layout.Compute(g, opts), false
	}
	return m.Get(ctx, g, opts)
}
