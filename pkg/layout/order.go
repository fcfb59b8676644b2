package layout

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/matzehuels/flowsankey/pkg/graph"
)

// sortColumn orders a column by first-seen index, then sorts each ranked
// sibling group within the slots it occupies.
func (e *engine) sortColumn(column []int) {
	slices.SortStableFunc(column, func(a, b int) int {
		if c := cmp.Compare(a, b); c != 0 {
			return c
		}
		return strings.Compare(e.g.Node(a).Name, e.g.Node(b).Name)
	})
	if e.opts.Ranks == nil {
		return
	}

	slots := make(map[int][]int)
	var parents []int
	for pos, n := range column {
		p := e.g.DominantParent(n)
		if p < 0 {
			continue
		}
		if _, ok := slots[p]; !ok {
			parents = append(parents, p)
		}
		slots[p] = append(slots[p], pos)
	}

	for _, p := range parents {
		positions := slots[p]
		if len(positions) < 2 {
			continue
		}
		members := make([]int, len(positions))
		ranked := false
		for i, pos := range positions {
			members[i] = column[pos]
			if _, ok := e.opts.Ranks(members[i], p); ok {
				ranked = true
			}
		}
		if !ranked {
			continue
		}
		slices.SortStableFunc(members, func(a, b int) int {
			return e.compareSiblings(a, b, p)
		})
		for i, pos := range positions {
			column[pos] = members[i]
		}
	}
}

// compareSiblings orders two children of parent by explicit rank (unranked
// last), then first-seen index, then name.
func (e *engine) compareSiblings(a, b, parent int) int {
	ra, ok := e.opts.Ranks(a, parent)
	if !ok || math.IsNaN(ra) {
		ra = math.Inf(1)
	}
	rb, ok := e.opts.Ranks(b, parent)
	if !ok || math.IsNaN(rb) {
		rb = math.Inf(1)
	}
	if c := cmp.Compare(ra, rb); c != 0 {
		return c
	}
	if c := cmp.Compare(a, b); c != 0 {
		return c
	}
	return strings.Compare(e.g.Node(a).Name, e.g.Node(b).Name)
}

// sortLinks orders a node's links by originating row, then by the name of
// the node at the other end.
func (e *engine) sortLinks(links []int, neighbor func(graph.Link) int) {
	slices.SortStableFunc(links, func(a, b int) int {
		la, lb := e.g.Link(a), e.g.Link(b)
		if c := cmp.Compare(la.Row, lb.Row); c != 0 {
			return c
		}
		return strings.Compare(e.g.Node(neighbor(la)).Name, e.g.Node(neighbor(lb)).Name)
	})
}
