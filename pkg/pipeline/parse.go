package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/observability"
)

// BuildGraph classifies and interns the valid rows. Invalid rows are left
// out of the graph; they still appear in the balance report.
func BuildGraph(ctx context.Context, rows []flow.Row, c *flow.Classifier) *graph.Graph {
	start := time.Now()
	g := graph.BuildWith(rows, c)
	observability.Pipeline().OnBuildComplete(ctx, g.NodeCount(), g.LinkCount(), len(g.Cycles()), time.Since(start))
	return g
}
