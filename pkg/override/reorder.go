package override

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
)

// Direction is a sibling move direction.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection parses "up" or "down" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("invalid direction %q: want up or down", s)
}

// SiblingGroup is the set of nodes in one column that share a dominant
// parent, in their laid-out top-to-bottom order.
type SiblingGroup struct {
	Parent  int
	Members []int
}

// Position returns the position of node i within the group, or -1.
func (sg SiblingGroup) Position(i int) int {
	for pos, m := range sg.Members {
		if m == i {
			return pos
		}
	}
	return -1
}

// Siblings returns the sibling group of node i. The group is empty when the
// node has no dominant parent.
func Siblings(g *graph.Graph, l *layout.Layout, i int) SiblingGroup {
	p := g.DominantParent(i)
	if p < 0 {
		return SiblingGroup{Parent: -1}
	}
	group := SiblingGroup{Parent: p}
	for _, n := range l.Columns[l.Nodes[i].Column] {
		if g.DominantParent(n) == p {
			group.Members = append(group.Members, n)
		}
	}
	return group
}

// MoveNodeByDirection swaps the named node with its neighbor in its sibling
// group and writes the whole group, renumbered 0..n-1, into the parent's
// ChildrenOrder. The second result is false when nothing moved: the node is
// unknown, has no dominant parent, has no siblings, or is already first
// (up) or last (down). s is never modified.
func MoveNodeByDirection(s ReportSettings, g *graph.Graph, l *layout.Layout, name string, dir Direction) (ReportSettings, bool) {
	i, ok := g.Index(name)
	if !ok || l.Empty() {
		return s, false
	}
	group := Siblings(g, l, i)
	if len(group.Members) < 2 {
		return s, false
	}
	pos := group.Position(i)
	next := pos - 1
	if dir == Down {
		next = pos + 1
	}
	if next < 0 || next >= len(group.Members) {
		return s, false
	}

	members := append([]int(nil), group.Members...)
	members[pos], members[next] = members[next], members[pos]

	out := s.Clone()
	parent := g.Node(group.Parent).Name
	out.update(parent, func(n *NodeSettings) {
		if n.ChildrenOrder == nil {
			n.ChildrenOrder = make(map[string]float64, len(members))
		}
		for rank, m := range members {
			n.ChildrenOrder[g.Node(m).Name] = float64(rank)
		}
	})
	return out, true
}

// Ranks returns the layout rank function for s: a child's rank is the entry
// for it in its dominant parent's ChildrenOrder. Entries under other
// parents are ignored.
func Ranks(s ReportSettings, g *graph.Graph) layout.RankFunc {
	if g == nil || len(s.Nodes) == 0 {
		return nil
	}
	ranks := make(map[int]float64)
	for i, n := range g.Nodes() {
		p := g.DominantParent(i)
		if p < 0 {
			continue
		}
		order := s.Nodes[g.Node(p).Name].ChildrenOrder
		if r, ok := order[n.Name]; ok {
			ranks[i] = r
		}
	}
	if len(ranks) == 0 {
		return nil
	}
	return func(child, parent int) (float64, bool) {
		if g.DominantParent(child) != parent {
			return 0, false
		}
		r, ok := ranks[child]
		return r, ok
	}
}
