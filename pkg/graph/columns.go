package graph

import "fmt"

// Align selects how nodes are assigned to columns.
type Align string

const (
	// AlignLeft places every node at its longest-path depth from the sources.
	AlignLeft Align = "left"
	// AlignJustify additionally moves nodes without outgoing links to the
	// last column.
	AlignJustify Align = "justify"
)

// ParseAlign parses an alignment name. The empty string means AlignLeft.
func ParseAlign(s string) (Align, error) {
	switch Align(s) {
	case "", AlignLeft:
		return AlignLeft, nil
	case AlignJustify:
		return AlignJustify, nil
	}
	return "", fmt.Errorf("unknown alignment %q", s)
}

// AssignColumns returns the column of every node, indexed by node index.
//
// Columns are computed with Kahn's algorithm over the non-excluded links:
// sources sit in column 0 and every other node sits one column right of its
// deepest parent. Excluded links are ignored, so the result is defined for
// any input.
func (g *Graph) AssignColumns(align Align) []int {
	n := len(g.nodes)
	columns := make([]int, n)
	inDegree := make([]int, n)
	queue := make([]int, 0, n)

	for i := range g.nodes {
		inDegree[i] = g.activeDegree(g.incoming[i])
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, li := range g.outgoing[curr] {
			l := g.links[li]
			if l.Excluded {
				continue
			}
			if col := columns[curr] + 1; col > columns[l.Target] {
				columns[l.Target] = col
			}
			inDegree[l.Target]--
			if inDegree[l.Target] == 0 {
				queue = append(queue, l.Target)
			}
		}
	}

	if align == AlignJustify {
		last := 0
		for _, c := range columns {
			last = max(last, c)
		}
		for i := range g.nodes {
			if g.activeDegree(g.outgoing[i]) == 0 {
				columns[i] = last
			}
		}
	}
	return columns
}

// ColumnCount returns the number of columns in an assignment.
func ColumnCount(columns []int) int {
	if len(columns) == 0 {
		return 0
	}
	last := 0
	for _, c := range columns {
		last = max(last, c)
	}
	return last + 1
}
