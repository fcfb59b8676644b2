package layout

import (
	"math"

	"github.com/matzehuels/flowsankey/pkg/graph"
)

// Compute lays out g. An empty graph yields an empty layout.
func Compute(g *graph.Graph, opts Options) *Layout {
	opts = opts.WithDefaults()
	out := &Layout{Width: opts.Width, Height: opts.Height, Margins: opts.Margins}
	if g == nil || g.Empty() {
		return out
	}

	e := newEngine(g, opts)
	e.run()

	out.Nodes = e.nodes
	out.Columns = e.columns
	out.Ky = e.ky
	out.Padding = e.py
	out.Links = make([]LinkBand, 0, len(e.bands))
	for li, l := range g.Links() {
		if l.Excluded {
			continue
		}
		out.Links = append(out.Links, e.bands[li])
	}
	return out
}

// engine holds the working state of one computation. Link slices are
// indexed by graph link index; in and out hold the active links of each
// node in band order.
type engine struct {
	g    *graph.Graph
	opts Options

	x0, y0, x1, y1 float64
	py, ky         float64

	nodes   []NodeBox
	columns [][]int
	in, out [][]int
	width   []float64
	bands   []LinkBand
}

func newEngine(g *graph.Graph, opts Options) *engine {
	x0, y0, x1, y1 := opts.Interior()
	return &engine{
		g:     g,
		opts:  opts,
		x0:    x0,
		y0:    y0,
		x1:    x1,
		y1:    y1,
		nodes: make([]NodeBox, g.NodeCount()),
		in:    make([][]int, g.NodeCount()),
		out:   make([][]int, g.NodeCount()),
		width: make([]float64, g.LinkCount()),
		bands: make([]LinkBand, g.LinkCount()),
	}
}

func (e *engine) run() {
	cols := e.g.AssignColumns(e.opts.Align)
	e.computeNodeLinks()
	e.computeNodeValues(cols)
	e.computeColumns(cols)
	e.computeNodeDepths()
	e.computeNodeBreadths()
	e.computeLinkBreadths()
}

func (e *engine) computeNodeLinks() {
	for li, l := range e.g.Links() {
		if l.Excluded {
			continue
		}
		e.out[l.Source] = append(e.out[l.Source], li)
		e.in[l.Target] = append(e.in[l.Target], li)
	}
	for i := range e.nodes {
		e.sortLinks(e.out[i], func(l graph.Link) int { return l.Target })
		e.sortLinks(e.in[i], func(l graph.Link) int { return l.Source })
	}
}

func (e *engine) computeNodeValues(cols []int) {
	for i := range e.nodes {
		var in, out float64
		for _, li := range e.in[i] {
			in += e.g.Link(li).Value
		}
		for _, li := range e.out[i] {
			out += e.g.Link(li).Value
		}
		e.nodes[i] = NodeBox{Index: i, Column: cols[i], Value: max(in, out)}
	}
}

func (e *engine) computeColumns(cols []int) {
	e.columns = make([][]int, graph.ColumnCount(cols))
	for i := range e.nodes {
		c := cols[i]
		e.columns[c] = append(e.columns[c], i)
	}
	for _, column := range e.columns {
		e.sortColumn(column)
		e.renumber(column)
	}
}

func (e *engine) renumber(column []int) {
	for order, n := range column {
		e.nodes[n].Order = order
	}
}

// computeNodeDepths spreads columns evenly across the interior width.
func (e *engine) computeNodeDepths() {
	n := len(e.columns)
	kx := 0.0
	if n > 1 {
		kx = (e.x1 - e.x0 - e.opts.NodeWidth) / float64(n-1)
	}
	for i := range e.nodes {
		e.nodes[i].X0 = e.x0 + float64(e.nodes[i].Column)*kx
		e.nodes[i].X1 = e.nodes[i].X0 + e.opts.NodeWidth
	}
}

// minValueShare is the part of the interior height the fullest column
// keeps for node extents when padding has to shrink.
const minValueShare = 0.5

func (e *engine) computeNodeBreadths() {
	e.py = e.opts.Padding()
	maxN := 0
	for _, c := range e.columns {
		maxN = max(maxN, len(c))
	}
	if maxN > 1 {
		e.py = min(e.py, (e.y1-e.y0)*(1-minValueShare)/float64(maxN-1))
	}

	e.initializeNodeBreadths()

	iterations := e.opts.Iterations
	for i := range iterations {
		alpha := math.Pow(0.99, float64(i))
		beta := max(1-alpha, float64(i+1)/float64(iterations))
		e.relaxRightToLeft(alpha, beta)
		e.relaxLeftToRight(alpha, beta)
	}
}

func (e *engine) initializeNodeBreadths() {
	e.ky = math.Inf(1)
	for _, c := range e.columns {
		sum := 0.0
		for _, n := range c {
			sum += e.nodes[n].Value
		}
		if sum > 0 {
			e.ky = min(e.ky, (e.y1-e.y0-float64(len(c)-1)*e.py)/sum)
		}
	}
	if math.IsInf(e.ky, 0) || e.ky < 0 {
		e.ky = 0
	}

	for li, l := range e.g.Links() {
		if !l.Excluded {
			e.width[li] = l.Value * e.ky
		}
	}

	for _, c := range e.columns {
		y := e.y0
		for _, n := range c {
			e.nodes[n].Y0 = y
			e.nodes[n].Y1 = y + e.nodes[n].Value*e.ky
			y = e.nodes[n].Y1 + e.py
		}
		spread := (e.y1 - y + e.py) / float64(len(c)+1)
		for i, n := range c {
			e.nodes[n].Y0 += spread * float64(i+1)
			e.nodes[n].Y1 += spread * float64(i+1)
		}
	}
}

// relaxLeftToRight moves each node towards the weighted center of its
// incoming links.
func (e *engine) relaxLeftToRight(alpha, beta float64) {
	for ci := 1; ci < len(e.columns); ci++ {
		column := e.columns[ci]
		for _, target := range column {
			var y, w float64
			for _, li := range e.in[target] {
				l := e.g.Link(li)
				v := l.Value * float64(e.nodes[target].Column-e.nodes[l.Source].Column)
				y += e.targetTop(li) * v
				w += v
			}
			if !(w > 0) {
				continue
			}
			dy := (y/w - e.nodes[target].Y0) * alpha
			e.nodes[target].Y0 += dy
			e.nodes[target].Y1 += dy
		}
		e.resolveCollisions(column, beta)
	}
}

// relaxRightToLeft moves each node towards the weighted center of its
// outgoing links.
func (e *engine) relaxRightToLeft(alpha, beta float64) {
	for ci := len(e.columns) - 2; ci >= 0; ci-- {
		column := e.columns[ci]
		for _, source := range column {
			var y, w float64
			for _, li := range e.out[source] {
				l := e.g.Link(li)
				v := l.Value * float64(e.nodes[l.Target].Column-e.nodes[source].Column)
				y += e.sourceTop(li) * v
				w += v
			}
			if !(w > 0) {
				continue
			}
			dy := (y/w - e.nodes[source].Y0) * alpha
			e.nodes[source].Y0 += dy
			e.nodes[source].Y1 += dy
		}
		e.resolveCollisions(column, beta)
	}
}

func (e *engine) resolveCollisions(column []int, alpha float64) {
	if len(column) == 0 {
		return
	}
	i := len(column) >> 1
	subject := e.nodes[column[i]]
	e.resolveBottomToTop(column, subject.Y0-e.py, i-1, alpha)
	e.resolveTopToBottom(column, subject.Y1+e.py, i+1, alpha)
	e.resolveBottomToTop(column, e.y1, len(column)-1, alpha)
	e.resolveTopToBottom(column, e.y0, 0, alpha)
}

// resolveTopToBottom pushes overlapping nodes down.
func (e *engine) resolveTopToBottom(column []int, y float64, i int, alpha float64) {
	for ; i < len(column); i++ {
		n := &e.nodes[column[i]]
		if dy := (y - n.Y0) * alpha; dy > 1e-6 {
			n.Y0 += dy
			n.Y1 += dy
		}
		y = n.Y1 + e.py
	}
}

// resolveBottomToTop pushes overlapping nodes up.
func (e *engine) resolveBottomToTop(column []int, y float64, i int, alpha float64) {
	for ; i >= 0; i-- {
		n := &e.nodes[column[i]]
		if dy := (n.Y1 - y) * alpha; dy > 1e-6 {
			n.Y0 -= dy
			n.Y1 -= dy
		}
		y = n.Y0 - e.py
	}
}

// targetTop returns the target y0 that would make link li horizontal.
func (e *engine) targetTop(li int) float64 {
	l := e.g.Link(li)
	y := e.nodes[l.Source].Y0 - float64(len(e.out[l.Source])-1)*e.py/2
	for _, o := range e.out[l.Source] {
		if o == li {
			break
		}
		y += e.width[o] + e.py
	}
	for _, o := range e.in[l.Target] {
		if o == li {
			break
		}
		y -= e.width[o]
	}
	return y
}

// sourceTop returns the source y0 that would make link li horizontal.
func (e *engine) sourceTop(li int) float64 {
	l := e.g.Link(li)
	y := e.nodes[l.Target].Y0 - float64(len(e.in[l.Target])-1)*e.py/2
	for _, o := range e.in[l.Target] {
		if o == li {
			break
		}
		y += e.width[o] + e.py
	}
	for _, o := range e.out[l.Source] {
		if o == li {
			break
		}
		y -= e.width[o]
	}
	return y
}

func (e *engine) computeLinkBreadths() {
	for li, l := range e.g.Links() {
		e.bands[li] = LinkBand{Link: li, Source: l.Source, Target: l.Target, Width: e.width[li]}
	}
	for i, n := range e.nodes {
		y0, y1 := n.Y0, n.Y0
		for _, li := range e.out[i] {
			e.bands[li].Y0 = y0 + e.width[li]/2
			y0 += e.width[li]
		}
		for _, li := range e.in[i] {
			e.bands[li].Y1 = y1 + e.width[li]/2
			y1 += e.width[li]
		}
	}
}
