package cli

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
	"github.com/matzehuels/flowsankey/pkg/store"
)

// maxSuggestDistance is the largest edit distance offered as a suggestion
// for a misspelled node name.
const maxSuggestDistance = 4

// diagram is the stored state with its derived graph and layout. Commands
// that edit settings apply reducer commands against it and save.
type diagram struct {
	port     *store.Port
	state    store.Loaded
	graph    *graph.Graph
	layout   *layout.Layout
	settings override.ReportSettings
}

// openDiagram loads the stored state and lays it out. The caller closes
// the returned diagram.
func (c *CLI) openDiagram(ctx context.Context) (*diagram, error) {
	port, st, err := c.loadState(ctx)
	if err != nil {
		return nil, err
	}
	g := pipeline.BuildGraph(ctx, st.Rows, c.classifier())
	l, _ := pipeline.ComputeLayout(ctx, nil, g, st.Settings)
	return &diagram{port: port, state: st, graph: g, layout: l, settings: st.Settings}, nil
}

func (d *diagram) Close() error { return d.port.Close() }

// apply runs cmd through the reducer and reports whether anything changed.
// The layout is recomputed so later commands see the new geometry.
func (d *diagram) apply(ctx context.Context, cmd override.Command) bool {
	s, changed := override.Apply(d.settings, cmd, override.Env{Graph: d.graph, Layout: d.layout})
	if !changed {
		return false
	}
	d.settings = s
	d.layout, _ = pipeline.ComputeLayout(ctx, nil, d.graph, s)
	return true
}

// save persists the current settings.
func (d *diagram) save(ctx context.Context) error {
	return d.port.SaveSettings(ctx, d.settings)
}

// commandBuilder returns the reducer commands to run against the current
// settings.
type commandBuilder func(override.ReportSettings) []override.Command

// fixed returns a builder that ignores the current settings.
func fixed(cmds ...override.Command) commandBuilder {
	return func(override.ReportSettings) []override.Command { return cmds }
}

// applySettings opens the diagram, applies the built commands in order and
// saves when anything changed. A non-empty node name must exist in the
// graph. An empty command list is an input error.
func (c *CLI) applySettings(ctx context.Context, node string, build commandBuilder) (bool, error) {
	d, err := c.openDiagram(ctx)
	if err != nil {
		return false, err
	}
	defer d.Close()

	if node != "" {
		if err := resolveNode(d.graph, node); err != nil {
			return false, err
		}
	}

	cmds := build(d.settings)
	if len(cmds) == 0 {
		return false, ferrors.New(ferrors.ErrCodeInvalidInput, "nothing to set")
	}
	changed := false
	for _, cmd := range cmds {
		if d.apply(ctx, cmd) {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	if err := d.save(ctx); err != nil {
		return false, err
	}
	c.Logger.Debug("saved settings", "node", node, "commands", len(cmds))
	return true, nil
}

// resolveNode checks that name is a node of g. Unknown names fail with
// ErrCodeNodeNotFound and the closest existing names as suggestions.
func resolveNode(g *graph.Graph, name string) error {
	if err := ferrors.ValidateNodeName(name); err != nil {
		return err
	}
	if _, ok := g.Index(name); ok {
		return nil
	}
	if s := suggestNodes(g, name, 3); len(s) > 0 {
		return ferrors.New(ferrors.ErrCodeNodeNotFound, "unknown node %q (did you mean %s?)", name, quoteAll(s))
	}
	return ferrors.New(ferrors.ErrCodeNodeNotFound, "unknown node %q", name)
}

// suggestNodes returns up to n node names close to query. Names that
// contain query as a fuzzy subsequence come first; otherwise names within
// a small edit distance are offered.
func suggestNodes(g *graph.Graph, query string, n int) []string {
	names := make([]string, g.NodeCount())
	for i, node := range g.Nodes() {
		names[i] = node.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	if len(ranks) == 0 {
		q := strings.ToLower(query)
		for i, name := range names {
			if d := fuzzy.LevenshteinDistance(q, strings.ToLower(name)); d <= maxSuggestDistance {
				ranks = append(ranks, fuzzy.Rank{Source: query, Target: name, Distance: d, OriginalIndex: i})
			}
		}
	}
	sort.Stable(ranks)

	out := make([]string, 0, n)
	for _, r := range ranks {
		if len(out) == n {
			break
		}
		out = append(out, r.Target)
	}
	return out
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = `"` + s + `"`
	}
	return strings.Join(q, ", ")
}
