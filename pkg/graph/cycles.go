package graph

// breakCycles marks back links found by a depth-first search as excluded.
// The search starts from nodes without incoming links in first-seen order,
// then covers any node left unvisited (nodes only reachable through a
// cycle). Children are visited in row order, so the result is
// deterministic.
func (g *Graph) breakCycles() {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.nodes))

	var dfs func(node int)
	dfs = func(node int) {
		color[node] = gray
		for _, li := range g.outgoing[node] {
			child := g.links[li].Target
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				g.links[li].Excluded = true
				g.cycles = append(g.cycles, li)
			}
		}
		color[node] = black
	}

	for i := range g.nodes {
		if len(g.incoming[i]) == 0 && color[i] == white {
			dfs(i)
		}
	}
	for i := range g.nodes {
		if color[i] == white {
			dfs(i)
		}
	}
}
