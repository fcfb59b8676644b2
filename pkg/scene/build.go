package scene

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/fonts"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// Drawing constants.
const (
	Background   = "#ffffff"
	TextColor    = "#1f2933"
	MutedColor   = "#6b7280"
	LinkOpacity  = 0.45
	labelGap     = 6.0
	lineGap      = 2.0
	headerTop    = 24.0
	logoGap      = 12.0
	defaultLogoH = 40.0
)

// Option configures [Build].
type Option func(*builder)

// WithLanguage sets the number formatting locale. The default is Russian.
func WithLanguage(tag language.Tag) Option {
	return func(b *builder) { b.format = NewFormatter(tag) }
}

// WithFormatter sets the formatter directly.
func WithFormatter(f *Formatter) Option {
	return func(b *builder) { b.format = f }
}

type builder struct {
	g      *graph.Graph
	l      *layout.Layout
	s      override.ReportSettings
	live   Live
	format *Formatter
	canvas override.Canvas

	offsets []override.Offset
}

// Build draws g with layout l and settings s. live may be nil. An empty
// layout yields a scene with the header and images only.
func Build(g *graph.Graph, l *layout.Layout, s override.ReportSettings, live *Live, opts ...Option) *Scene {
	b := &builder{g: g, l: l, s: s, canvas: s.Canvas()}
	if live != nil {
		b.live = *live
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.format == nil {
		b.format = NewFormatter(language.Russian)
	}

	sc := &Scene{
		Width:      s.Width,
		Height:     s.Height,
		Background: Background,
		Links:      []Path{},
		Nodes:      []Rect{},
		Labels:     []Text{},
		Images:     []Image{},
	}
	sc.Header = b.header()
	if g != nil && !l.Empty() {
		b.resolveOffsets()
		sc.Links = b.links()
		sc.Nodes = b.nodes()
		sc.Labels = b.labels()
	}
	sc.Images = b.images()
	return sc
}

// resolveOffsets clamps every node's committed or live offset against the
// current canvas. Stored offsets may predate a canvas change.
func (b *builder) resolveOffsets() {
	b.offsets = make([]override.Offset, b.g.NodeCount())
	for i, n := range b.g.Nodes() {
		off := b.s.Node(n.Name).Offset()
		if b.live.Node == n.Name {
			off = b.live.Offset
		}
		b.offsets[i] = override.ClampOffset(b.l.Node(i), off, b.canvas, b.scale())
	}
}

func (b *builder) scale() float64 {
	if b.s.LinkWidthScale > 0 {
		return b.s.LinkWidthScale
	}
	return 1
}

// nodeRect returns the on-screen rectangle of node i.
func (b *builder) nodeRect(i int) (x0, y0, x1, y1 float64) {
	return override.ScaledBox(b.l.Node(i), b.offsets[i], b.scale())
}

// endpoint maps a band center at a node onto the scaled, offset node.
func (b *builder) endpoint(i int, y float64) float64 {
	box := b.l.Node(i)
	cy := box.CenterY()
	return cy + (y-cy)*b.scale() + b.offsets[i].Y
}

func (b *builder) links() []Path {
	out := make([]Path, 0, len(b.l.Links))
	for _, band := range b.l.Links {
		link := b.g.Link(band.Link)
		src, dst := b.g.Node(band.Source), b.g.Node(band.Target)
		_, _, x0, _ := b.nodeRect(band.Source)
		x1, _, _, _ := b.nodeRect(band.Target)
		y0 := b.endpoint(band.Source, band.Y0)
		y1 := b.endpoint(band.Target, band.Y1)
		out = append(out, Path{
			Link:     band.Link,
			Source:   src.Name,
			Target:   dst.Name,
			FlowType: link.FlowType,
			D:        CurvePath(x0, y0, x1, y1),
			X0:       x0,
			Y0:       y0,
			X1:       x1,
			Y1:       y1,
			Width:    max(1, band.Width*b.scale()),
			Color:    override.LinkColor(b.s, src.Name, dst.Name, link.FlowType),
			Opacity:  LinkOpacity,
			Value:    link.Value,
		})
	}
	return out
}

// CurvePath returns the SVG path data of a horizontal link curve.
func CurvePath(x0, y0, x1, y1 float64) string {
	xm := (x0 + x1) / 2
	return fmt.Sprintf("M%.2f,%.2f C%.2f,%.2f %.2f,%.2f %.2f,%.2f", x0, y0, xm, y0, xm, y1, x1, y1)
}

func (b *builder) nodes() []Rect {
	out := make([]Rect, 0, b.g.NodeCount())
	for _, column := range b.l.Columns {
		for _, i := range column {
			n := b.g.Node(i)
			x0, y0, x1, y1 := b.nodeRect(i)
			out = append(out, Rect{
				Node:     n.Name,
				Index:    i,
				X:        x0,
				Y:        y0,
				Width:    x1 - x0,
				Height:   y1 - y0,
				Color:    override.NodeColor(b.s, n.Name, override.FlowColor(b.dominantFlow(i))),
				Selected: b.live.SelectedNode == n.Name,
			})
		}
	}
	return out
}

// dominantFlow returns the flow type of the largest active link into i, or
// out of i for sources.
func (b *builder) dominantFlow(i int) flow.FlowType {
	strongest := func(links []int) (flow.FlowType, bool) {
		best, found := 0.0, false
		var t flow.FlowType
		for _, li := range links {
			l := b.g.Link(li)
			if l.Excluded {
				continue
			}
			if !found || l.Value > best {
				t, best, found = l.FlowType, l.Value, true
			}
		}
		return t, found
	}
	if t, ok := strongest(b.g.Incoming(i)); ok {
		return t
	}
	if t, ok := strongest(b.g.Outgoing(i)); ok {
		return t
	}
	return flow.Expense
}

// labels draws name, current value and previous value with change for
// each node, to the right of the node except in the last column.
func (b *builder) labels() []Text {
	out := make([]Text, 0, 3*b.g.NodeCount())
	for _, column := range b.l.Columns {
		for _, i := range column {
			n := b.g.Node(i)
			ns := b.s.Node(n.Name)
			labelSize := pick(ns.LabelSize, b.s.LabelSize)
			valueSize := pick(ns.ValueSize, b.s.ValueSize)

			x0, y0, x1, y1 := b.nodeRect(i)
			x, anchor := x1+labelGap, AnchorStart
			if b.l.LastColumn(i) {
				x, anchor = x0-labelGap, AnchorEnd
			}
			block := labelSize + 2*valueSize + 2*lineGap
			top := (y0+y1)/2 - block/2

			y := top + labelSize
			out = append(out, Text{X: x, Y: y, Content: n.Name, Size: labelSize, Anchor: anchor, Bold: true, Color: TextColor, Node: n.Name})
			y += lineGap + valueSize
			out = append(out, Text{X: x, Y: y, Content: b.format.Value(n.Value(), b.s.Unit), Size: valueSize, Anchor: anchor, Color: TextColor, Node: n.Name})
			y += lineGap + valueSize
			out = append(out, Text{X: x, Y: y, Content: b.format.Annotation(n.Value(), n.PreviousValue(), b.s.Unit), Size: valueSize, Anchor: anchor, Color: MutedColor, Node: n.Name})
		}
	}
	return out
}

func pick(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}

func (b *builder) header() Header {
	var h Header
	m := b.canvas.Margins
	x := m.Left
	if logo := b.s.Logo; logo != nil && logo.Src != "" {
		hgt := pick(logo.Height, defaultLogoH)
		w := pick(logo.Width, hgt)
		h.Logo = &Image{Src: logo.Src, X: m.Left, Y: headerTop - 4, Width: w, Height: hgt}
		x += w + logoGap
	}

	right := b.s.Width - m.Right
	h.Periods = []Text{}
	periodsW := 0.0
	py := headerTop + b.s.LabelSize
	if b.s.CurrentLabel != "" {
		h.Periods = append(h.Periods, Text{X: right, Y: py, Content: b.s.CurrentLabel, Size: b.s.LabelSize, Anchor: AnchorEnd, Bold: true, Color: TextColor})
		periodsW = max(periodsW, fonts.Measure(b.s.CurrentLabel, b.s.LabelSize, true))
		py += b.s.LabelSize + lineGap*2
	}
	if b.s.PreviousLabel != "" {
		h.Periods = append(h.Periods, Text{X: right, Y: py, Content: b.s.PreviousLabel, Size: b.s.ValueSize, Anchor: AnchorEnd, Color: MutedColor})
		periodsW = max(periodsW, fonts.Measure(b.s.PreviousLabel, b.s.ValueSize, false))
	}

	avail := right - x - periodsW - logoGap
	titleSize := pick(b.s.TitleSize, 24)
	y := headerTop + titleSize
	if b.s.Title != "" {
		title := Truncate(b.s.Title, titleSize, true, avail)
		h.Title = &Text{X: x, Y: y, Content: title, Size: titleSize, Anchor: AnchorStart, Bold: true, Color: TextColor}
	}
	if b.s.Subtitle != "" {
		sub := Truncate(b.s.Subtitle, b.s.LabelSize, false, avail)
		h.Subtitle = &Text{X: x, Y: y + lineGap*3 + b.s.LabelSize, Content: sub, Size: b.s.LabelSize, Anchor: AnchorStart, Color: MutedColor}
	}
	return h
}

// Truncate shortens s with an ellipsis until it fits maxWidth at the given
// font size. A non-positive maxWidth leaves s unchanged.
func Truncate(s string, size float64, bold bool, maxWidth float64) string {
	if maxWidth <= 0 || fonts.Measure(s, size, bold) <= maxWidth {
		return s
	}
	r := []rune(s)
	for len(r) > 1 {
		r = r[:len(r)-1]
		if t := string(r) + "…"; fonts.Measure(t, size, bold) <= maxWidth {
			return t
		}
	}
	return "…"
}

func (b *builder) images() []Image {
	out := make([]Image, 0, len(b.s.Images))
	for _, img := range b.s.Images {
		im := Image{ID: img.ID, Src: img.Src, X: img.X, Y: img.Y, Width: img.Width, Height: img.Height}
		if b.live.Image == img.ID {
			r := b.live.ImageRect
			im.X, im.Y = r.X, r.Y
			im.Width = max(override.MinImageSize, r.Width)
			im.Height = max(override.MinImageSize, r.Height)
		}
		im.Selected = b.live.SelectedImage == img.ID
		out = append(out, im)
	}
	return out
}
