// Package render groups the output renderers for flow diagrams.
//
// # Sankey Output
//
// The [sink] subpackage serializes a [scene.Scene] to SVG, PNG or JSON.
// The scene already carries final pixel geometry, so every sink draws the
// same picture:
//
//	sc := scene.Build(g, l, settings, nil)
//	svg := sink.RenderSVG(sc)
//	png, err := sink.RenderPNG(sc, sink.WithScale(2))
//
// # Structural View
//
// The [nodelink] subpackage renders the flow graph itself with Graphviz,
// one box per node and one arrow per row, which helps when checking how
// rows connect before tuning the Sankey layout:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Values: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [sink]: github.com/matzehuels/flowsankey/pkg/render/sink
// [nodelink]: github.com/matzehuels/flowsankey/pkg/render/nodelink
// [scene.Scene]: github.com/matzehuels/flowsankey/pkg/scene
package render
