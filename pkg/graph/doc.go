// Package graph turns flow rows into the node/link graph a Sankey diagram
// is drawn from.
//
// # Overview
//
// [Build] takes the user's rows, drops the invalid ones, and produces a
// [Graph] whose nodes are the distinct trimmed names in first-seen order and
// whose links are the valid rows themselves. Parallel rows between the same
// pair of nodes stay separate links; nothing is merged.
//
// Names are interned once per build: every node gets a dense integer index
// and links refer to nodes by index, so layout code never looks nodes up by
// string on hot paths.
//
//	g := graph.Build(rows)
//	i, _ := g.Index("Выручка")
//	for _, li := range g.Outgoing(i) {
//	    l := g.Link(li)
//	    fmt.Println(g.Node(l.Target).Name, l.Value, l.FlowType)
//	}
//
// # Topology
//
// Every link is classified with [flow.Classify] at build time. Cycles are
// tolerated: [Build] runs a depth-first search and marks back links as
// excluded. Excluded links are kept (and listed by [Graph.Cycles]) but are
// ignored by column assignment, dominant parents and layout.
//
// [Graph.AssignColumns] computes columns by longest path from the sources.
// With [AlignJustify] nodes without outgoing links move to the last column.
//
// # Dominant Parent
//
// A node's dominant parent is the source of its largest incoming link. Ties
// keep the link that appears first in row order. Sibling ordering and
// keyboard reordering both group nodes by dominant parent.
//
// # Concurrency
//
// A Graph is immutable after Build and safe for concurrent reads.
//
// [flow.Classify]: github.com/matzehuels/flowsankey/pkg/flow.Classify
package graph
