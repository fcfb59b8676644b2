// Package layout computes the geometry of a Sankey diagram.
//
// # Overview
//
// [Compute] places every node of a [graph.Graph] in a column and gives it a
// vertical extent proportional to its throughput. The algorithm is the
// standard layered Sankey heuristic:
//
//  1. Columns come from [graph.Graph.AssignColumns] and are spread evenly
//     across the canvas interior.
//  2. Nodes within a column start in first-seen order; sibling groups with
//     explicit ranks are then sorted in place (see Ordering).
//  3. The vertical scale ky is the largest that lets every column fit.
//  4. Nodes are stacked, then relaxed towards the weighted centers of their
//     neighbors for a fixed number of iterations, resolving collisions after
//     every pass. Relaxation moves nodes but never reorders them.
//  5. Link bands are stacked inside their nodes in row order.
//
// # Padding
//
// The gap between nodes must fit a label and two value lines:
//
//	padding = max(NodePadding*Scale, LabelSize + 2*ValueSize + 12)
//
// and is then capped so the fullest column still fits the interior.
//
// # Ordering
//
// A sibling group is the set of nodes in one column that share a dominant
// parent. When [Options.Ranks] reports a rank for any member, the group is
// sorted by (rank, first-seen index, name) with unranked members last. The
// sorted members are written back into the positions the group already
// occupied, so nodes outside the group never move.
//
// # Memoization
//
// [Memo] keeps the last layout and its [Key]. Dragging a node changes only
// the live offset, not the key, so pointer-move frames reuse the cached
// geometry.
//
// [graph.Graph]: github.com/matzehuels/flowsankey/pkg/graph.Graph
// [graph.Graph.AssignColumns]: github.com/matzehuels/flowsankey/pkg/graph.Graph.AssignColumns
package layout
