package graph

import (
	"github.com/matzehuels/flowsankey/pkg/flow"
)

// Node is a named vertex of the flow graph.
//
// In and Out aggregate the current period over incoming and outgoing links
// that are not excluded; PrevIn and PrevOut do the same for the previous
// period. Value therefore matches the node's drawn height.
type Node struct {
	Name    string
	Index   int
	In      float64
	Out     float64
	PrevIn  float64
	PrevOut float64
}

// Value is the node's current-period throughput: the larger of inflow and
// outflow.
func (n Node) Value() float64 { return max(n.In, n.Out) }

// PreviousValue is the node's previous-period throughput.
func (n Node) PreviousValue() float64 { return max(n.PrevIn, n.PrevOut) }

// Link is a directed flow between two node indices. There is exactly one
// link per valid row.
type Link struct {
	Source        int
	Target        int
	Value         float64
	PreviousValue float64
	FlowType      flow.FlowType
	// Row is the link's position among the valid rows.
	Row int
	// RowID is the originating row's ID.
	RowID string
	Key   string
	// Excluded marks a back link found while breaking cycles.
	Excluded bool
}

// Graph is the interned node/link view of a set of rows.
//
// The zero value is an empty graph. Use Build to create one from rows.
type Graph struct {
	nodes    []Node
	links    []Link
	index    map[string]int
	incoming [][]int
	outgoing [][]int
	cycles   []int
}

// Build creates a graph from rows using the default classifier.
func Build(rows []flow.Row) *Graph {
	return BuildWith(rows, nil)
}

// BuildWith creates a graph from rows, classifying links with c. A nil
// classifier uses the default vocabulary.
func BuildWith(rows []flow.Row, c *flow.Classifier) *Graph {
	classify := flow.Classify
	if c != nil {
		classify = c.Classify
	}

	g := &Graph{index: make(map[string]int)}
	for _, r := range rows {
		if !r.Valid() {
			continue
		}
		src := g.intern(r.SourceName())
		dst := g.intern(r.TargetName())

		li := len(g.links)
		g.links = append(g.links, Link{
			Source:        src,
			Target:        dst,
			Value:         r.CurrentPeriod,
			PreviousValue: r.PreviousPeriod,
			FlowType:      classify(r.SourceName(), r.TargetName()),
			Row:           li,
			RowID:         r.ID,
			Key:           r.Key(),
		})
		g.outgoing[src] = append(g.outgoing[src], li)
		g.incoming[dst] = append(g.incoming[dst], li)
	}
	g.breakCycles()
	g.aggregate()
	return g
}

func (g *Graph) aggregate() {
	for _, l := range g.links {
		if l.Excluded {
			continue
		}
		g.nodes[l.Source].Out += l.Value
		g.nodes[l.Source].PrevOut += l.PreviousValue
		g.nodes[l.Target].In += l.Value
		g.nodes[l.Target].PrevIn += l.PreviousValue
	}
}

func (g *Graph) intern(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[name] = i
	g.nodes = append(g.nodes, Node{Name: name, Index: i})
	g.incoming = append(g.incoming, nil)
	g.outgoing = append(g.outgoing, nil)
	return i
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// LinkCount returns the number of links, including excluded ones.
func (g *Graph) LinkCount() int { return len(g.links) }

// Empty reports whether the graph has no links.
func (g *Graph) Empty() bool { return len(g.links) == 0 }

// Nodes returns all nodes in first-seen order. The slice must not be
// modified.
func (g *Graph) Nodes() []Node { return g.nodes }

// Links returns all links in row order. The slice must not be modified.
func (g *Graph) Links() []Link { return g.links }

// Node returns the node with index i.
func (g *Graph) Node(i int) Node { return g.nodes[i] }

// Link returns the link with index i.
func (g *Graph) Link(i int) Link { return g.links[i] }

// Index returns the index of the node with the given trimmed name.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Incoming returns the indices of links ending at node i in row order.
func (g *Graph) Incoming(i int) []int { return g.incoming[i] }

// Outgoing returns the indices of links starting at node i in row order.
func (g *Graph) Outgoing(i int) []int { return g.outgoing[i] }

// Cycles returns the indices of links excluded to break cycles.
func (g *Graph) Cycles() []int { return g.cycles }

// DominantParent returns the source of the largest non-excluded incoming
// link of node i, or -1 if there is none. Ties keep the first link in row
// order.
func (g *Graph) DominantParent(i int) int {
	parent, best := -1, 0.0
	for _, li := range g.incoming[i] {
		l := g.links[li]
		if l.Excluded {
			continue
		}
		if parent == -1 || l.Value > best {
			parent, best = l.Source, l.Value
		}
	}
	return parent
}

// Sources returns the indices of nodes without active incoming links.
func (g *Graph) Sources() []int {
	var out []int
	for i := range g.nodes {
		if g.activeDegree(g.incoming[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Sinks returns the indices of nodes without active outgoing links.
func (g *Graph) Sinks() []int {
	var out []int
	for i := range g.nodes {
		if g.activeDegree(g.outgoing[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

func (g *Graph) activeDegree(links []int) int {
	n := 0
	for _, li := range links {
		if !g.links[li].Excluded {
			n++
		}
	}
	return n
}
