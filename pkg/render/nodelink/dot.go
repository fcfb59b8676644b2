package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Values adds current and previous values to node and link labels.
	Values bool
	// Align selects the column assignment used for ranks.
	Align graph.Align
	// Settings supplies node and link colors. Nil uses flow-type colors.
	Settings *override.ReportSettings
}

// ToDOT converts a flow graph to Graphviz DOT format. Nodes sharing a column
// share a rank, so Graphviz lays the graph out left to right in the same
// columns as the Sankey diagram. Links excluded while breaking cycles are
// drawn dashed.
func ToDOT(g *graph.Graph, opts Options) string {
	s := override.Defaults()
	if opts.Settings != nil {
		s = *opts.Settings
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fill := override.Lighten(override.NodeColor(s, n.Name, "#ffffff"), 0.6)
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n", n.Name, nodeLabel(n, opts.Values), fill)
	}

	buf.WriteString("\n")
	columns := g.AssignColumns(opts.Align)
	for _, col := range byColumn(columns) {
		if len(col) < 2 {
			continue
		}
		names := make([]string, len(col))
		for k, i := range col {
			names[k] = strconv.Quote(g.Node(i).Name)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(names, "; "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		src, dst := g.Node(l.Source).Name, g.Node(l.Target).Name
		attrs := []string{fmt.Sprintf("color=%q", override.LinkColor(s, src, dst, l.FlowType))}
		if opts.Values {
			attrs = append(attrs, fmt.Sprintf("label=%q", formatValue(l.Value)))
		}
		if l.Excluded {
			attrs = append(attrs, "style=dashed", "constraint=false")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", src, dst, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n graph.Node, values bool) string {
	if !values {
		return n.Name
	}
	return fmt.Sprintf("%s\n%s (%s)", n.Name, formatValue(n.Value()), formatValue(n.PreviousValue()))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func byColumn(columns []int) [][]int {
	out := make([][]int, graph.ColumnCount(columns))
	for i, c := range columns {
		out[c] = append(out[c], i)
	}
	return out
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-based svg tag with a plain pixel
// viewBox so the output scales like the Sankey SVG.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
