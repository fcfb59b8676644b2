// Package scene turns a computed layout and the user's overrides into a
// declarative, display-independent drawing.
//
// A [Scene] holds everything a sink needs with final pixel coordinates:
// the header, link paths, node rectangles, text and placed images. Sinks
// (SVG, PNG, JSON) only serialize it, and the interaction layer rebuilds it
// on every pointer move from the cached layout plus a [Live] transform, so
// dragging never recomputes the layout.
package scene

import (
	"math"

	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// Anchor is the horizontal alignment of a text item.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Text is a single line of text. Y is the baseline.
type Text struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"content"`
	Size    float64 `json:"size"`
	Anchor  Anchor  `json:"anchor"`
	Bold    bool    `json:"bold,omitempty"`
	Color   string  `json:"color"`
	// Node is set for node labels and value annotations.
	Node string `json:"node,omitempty"`
}

// Path is a link band drawn as a horizontal cubic Bézier curve from
// (X0,Y0) to (X1,Y1), stroked with Width.
type Path struct {
	Link     int           `json:"link"`
	Source   string        `json:"source"`
	Target   string        `json:"target"`
	FlowType flow.FlowType `json:"flowType"`
	D        string        `json:"d"`
	X0       float64       `json:"x0"`
	Y0       float64       `json:"y0"`
	X1       float64       `json:"x1"`
	Y1       float64       `json:"y1"`
	Width    float64       `json:"width"`
	Color    string        `json:"color"`
	Opacity  float64       `json:"opacity"`
	Value    float64       `json:"value"`
}

// Rect is a node rectangle.
type Rect struct {
	Node     string  `json:"node"`
	Index    int     `json:"index"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Color    string  `json:"color"`
	Selected bool    `json:"selected,omitempty"`
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Image is a placed image or the header logo.
type Image struct {
	ID       string  `json:"id,omitempty"`
	Src      string  `json:"src"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Selected bool    `json:"selected,omitempty"`
}

// Rect returns the image bounds.
func (i Image) Rect() Rect {
	return Rect{X: i.X, Y: i.Y, Width: i.Width, Height: i.Height}
}

// Header is the title block above the diagram.
type Header struct {
	Title    *Text  `json:"title,omitempty"`
	Subtitle *Text  `json:"subtitle,omitempty"`
	Periods  []Text `json:"periods"`
	Logo     *Image `json:"logo,omitempty"`
}

// Scene is a complete drawing.
type Scene struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Background string  `json:"background"`
	Header     Header  `json:"header"`
	Links      []Path  `json:"links"`
	Nodes      []Rect  `json:"nodes"`
	Labels     []Text  `json:"labels"`
	Images     []Image `json:"images"`
}

// Empty reports whether the scene has no diagram content.
func (s *Scene) Empty() bool { return s == nil || len(s.Nodes) == 0 }

// Node returns the rectangle of the named node.
func (s *Scene) Node(name string) (Rect, bool) {
	for _, r := range s.Nodes {
		if r.Node == name {
			return r, true
		}
	}
	return Rect{}, false
}

// Image returns the placed image with the given ID.
func (s *Scene) Image(id string) (Image, bool) {
	for _, img := range s.Images {
		if img.ID == id {
			return img, true
		}
	}
	return Image{}, false
}

// Finite reports whether every coordinate in the scene is a finite number.
func (s *Scene) Finite() bool {
	ok := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	for _, p := range s.Links {
		if !ok(p.X0, p.Y0, p.X1, p.Y1, p.Width) {
			return false
		}
	}
	for _, r := range s.Nodes {
		if !ok(r.X, r.Y, r.Width, r.Height) {
			return false
		}
	}
	for _, t := range s.Labels {
		if !ok(t.X, t.Y, t.Size) {
			return false
		}
	}
	for _, img := range s.Images {
		if !ok(img.X, img.Y, img.Width, img.Height) {
			return false
		}
	}
	return ok(s.Width, s.Height)
}

// Live is the transient state of an in-flight gesture and the current
// selection. The zero value draws committed settings only.
type Live struct {
	// Node, when set, is drawn at Offset instead of its committed offset.
	Node   string
	Offset override.Offset
	// Image, when set, is drawn at ImageRect instead of its stored bounds.
	Image     string
	ImageRect Image

	SelectedNode  string
	SelectedImage string
}
