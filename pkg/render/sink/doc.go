// Package sink serializes a [scene.Scene] into output formats.
//
// Sinks never compute geometry: every coordinate comes from the scene, so
// SVG, PNG and JSON output of the same scene agree pixel for pixel.
//
//	svg := sink.RenderSVG(sc)
//	png, err := sink.RenderPNG(sc, sink.WithScale(2))
//	js, err := sink.RenderJSON(sc)
//
// [scene.Scene]: github.com/matzehuels/flowsankey/pkg/scene
package sink
