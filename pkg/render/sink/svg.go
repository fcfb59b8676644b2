package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/flowsankey/pkg/fonts"
	"github.com/matzehuels/flowsankey/pkg/scene"
)

const selectionColor = "#2563eb"

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	selection bool
	ids       bool
}

// WithSelection outlines the selected node or image, as the editor shows it.
func WithSelection() SVGOption { return func(r *svgRenderer) { r.selection = true } }

// WithIDs adds id and data attributes to links and nodes for scripting.
func WithIDs() SVGOption { return func(r *svgRenderer) { r.ids = true } }

// RenderSVG writes sc as a standalone SVG document.
func RenderSVG(sc *scene.Scene, opts ...SVGOption) []byte {
	var r svgRenderer
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		sc.Width, sc.Height, sc.Width, sc.Height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", sc.Background)
	fmt.Fprintf(&buf, `  <g font-family="%s">`+"\n", escapeXML(fonts.Family))

	renderHeader(&buf, sc.Header)

	buf.WriteString(`  <g class="links" fill="none">` + "\n")
	for _, p := range sc.Links {
		r.renderLink(&buf, p)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes">` + "\n")
	for _, n := range sc.Nodes {
		r.renderNode(&buf, n)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="labels">` + "\n")
	for _, t := range sc.Labels {
		renderText(&buf, t)
	}
	buf.WriteString("  </g>\n")

	for _, img := range sc.Images {
		r.renderImage(&buf, img)
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func renderHeader(buf *bytes.Buffer, h scene.Header) {
	if h.Logo != nil {
		renderImageElement(buf, *h.Logo, "logo")
	}
	if h.Title != nil {
		renderText(buf, *h.Title)
	}
	if h.Subtitle != nil {
		renderText(buf, *h.Subtitle)
	}
	for _, t := range h.Periods {
		renderText(buf, t)
	}
}

func (r *svgRenderer) renderLink(buf *bytes.Buffer, p scene.Path) {
	buf.WriteString(`    <path`)
	if r.ids {
		fmt.Fprintf(buf, ` id="link-%d" data-source="%s" data-target="%s" data-flow="%s"`,
			p.Link, escapeXML(p.Source), escapeXML(p.Target), p.FlowType)
	}
	fmt.Fprintf(buf, ` d="%s" stroke="%s" stroke-width="%.2f" stroke-opacity="%.2f"><title>%s → %s</title></path>`+"\n",
		p.D, p.Color, p.Width, p.Opacity, escapeXML(p.Source), escapeXML(p.Target))
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, n scene.Rect) {
	buf.WriteString(`    <rect`)
	if r.ids {
		fmt.Fprintf(buf, ` id="node-%d" data-node="%s"`, n.Index, escapeXML(n.Node))
	}
	fmt.Fprintf(buf, ` x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"`, n.X, n.Y, n.Width, n.Height, n.Color)
	if r.selection && n.Selected {
		fmt.Fprintf(buf, ` stroke="%s" stroke-width="2"`, selectionColor)
	}
	fmt.Fprintf(buf, `><title>%s</title></rect>`+"\n", escapeXML(n.Node))
}

func (r *svgRenderer) renderImage(buf *bytes.Buffer, img scene.Image) {
	renderImageElement(buf, img, "image")
	if r.selection && img.Selected {
		fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="4 3"/>`+"\n",
			img.X, img.Y, img.Width, img.Height, selectionColor)
	}
}

func renderImageElement(buf *bytes.Buffer, img scene.Image, class string) {
	fmt.Fprintf(buf, `  <image class="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" href="%s" xlink:href="%s" preserveAspectRatio="xMidYMid meet"/>`+"\n",
		class, img.X, img.Y, img.Width, img.Height, escapeXML(img.Src), escapeXML(img.Src))
}

func renderText(buf *bytes.Buffer, t scene.Text) {
	weight := ""
	if t.Bold {
		weight = ` font-weight="bold"`
	}
	fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-size="%.1f" text-anchor="%s" fill="%s"%s>%s</text>`+"\n",
		t.X, t.Y, t.Size, t.Anchor, t.Color, weight, escapeXML(t.Content))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
