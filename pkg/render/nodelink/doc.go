// Package nodelink renders the structure of a flow graph as a node-link
// diagram using Graphviz.
//
// It complements the Sankey output when checking how rows connect: every
// node is a box, every row a labelled arrow, and back links removed while
// breaking cycles stay visible as dashed arrows.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Values: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools. Rendering uses [github.com/goccy/go-graphviz] in-process.
package nodelink
