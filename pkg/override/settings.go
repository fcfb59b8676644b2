package override

import (
	"maps"
	"slices"

	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
)

// Size limits.
const (
	MinImageSize  = 30.0
	MinNodeHeight = 8.0
)

// NodeSettings are the overrides of a single node. Zero fields mean "not
// set".
type NodeSettings struct {
	Color             string             `json:"color,omitempty" validate:"omitempty,color"`
	LabelSize         float64            `json:"labelSize,omitempty" validate:"omitempty,gte=6,lte=72"`
	ValueSize         float64            `json:"valueSize,omitempty" validate:"omitempty,gte=6,lte=72"`
	OffsetX           float64            `json:"offsetX,omitempty"`
	OffsetY           float64            `json:"offsetY,omitempty"`
	LinkColorPriority bool               `json:"linkColorPriority,omitempty"`
	ChildrenOrder     map[string]float64 `json:"childrenOrder,omitempty"`
}

// Offset returns the node's manual offset.
func (n NodeSettings) Offset() Offset { return Offset{X: n.OffsetX, Y: n.OffsetY} }

// clone deep-copies n. An empty ChildrenOrder becomes nil, matching what
// the JSON encoding reads back.
func (n NodeSettings) clone() NodeSettings {
	if len(n.ChildrenOrder) == 0 {
		n.ChildrenOrder = nil
	} else {
		n.ChildrenOrder = maps.Clone(n.ChildrenOrder)
	}
	return n
}

// Logo is the image drawn in the header.
type Logo struct {
	Src    string  `json:"src" validate:"required"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// PlacedImage is a free-floating image in canvas coordinates.
type PlacedImage struct {
	ID     string  `json:"id" validate:"required"`
	Src    string  `json:"src" validate:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"gte=30"`
	Height float64 `json:"height" validate:"gte=30"`
}

// ReportSettings is the persisted settings document.
type ReportSettings struct {
	Title          string                  `json:"title" validate:"max=200"`
	Subtitle       string                  `json:"subtitle" validate:"max=400"`
	CurrentLabel   string                  `json:"currentLabel" validate:"max=100"`
	PreviousLabel  string                  `json:"previousLabel" validate:"max=100"`
	Unit           string                  `json:"unit" validate:"max=32"`
	Width          float64                 `json:"width" validate:"gte=200,lte=10000"`
	Height         float64                 `json:"height" validate:"gte=200,lte=10000"`
	NodeWidth      float64                 `json:"nodeWidth" validate:"gte=2,lte=200"`
	NodePadding    float64                 `json:"nodePadding" validate:"gte=0,lte=500"`
	LinkWidthScale float64                 `json:"linkWidthScale" validate:"gt=0,lte=10"`
	LabelSize      float64                 `json:"labelSize" validate:"gte=6,lte=72"`
	ValueSize      float64                 `json:"valueSize" validate:"gte=6,lte=72"`
	TitleSize      float64                 `json:"titleSize" validate:"gte=8,lte=96"`
	Align          graph.Align             `json:"align" validate:"oneof=left justify"`
	Logo           *Logo                   `json:"logo,omitempty"`
	Images         []PlacedImage           `json:"images" validate:"dive"`
	Nodes          map[string]NodeSettings `json:"nodes" validate:"dive"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() ReportSettings {
	return ReportSettings{
		Title:          "Финансовый результат",
		CurrentLabel:   "Текущий период",
		PreviousLabel:  "Прошлый период",
		Unit:           "млн ₽",
		Width:          layout.DefaultWidth,
		Height:         layout.DefaultHeight,
		NodeWidth:      layout.DefaultNodeWidth,
		NodePadding:    layout.DefaultNodePadding,
		LinkWidthScale: 1,
		LabelSize:      layout.DefaultLabelSize,
		ValueSize:      layout.DefaultValueSize,
		TitleSize:      24,
		Align:          graph.AlignLeft,
		Images:         []PlacedImage{},
		Nodes:          map[string]NodeSettings{},
	}
}

// Clone returns a deep copy of s.
func (s ReportSettings) Clone() ReportSettings {
	if s.Logo != nil {
		logo := *s.Logo
		s.Logo = &logo
	}
	s.Images = slices.Clone(s.Images)
	if s.Images == nil {
		s.Images = []PlacedImage{}
	}
	nodes := make(map[string]NodeSettings, len(s.Nodes))
	for k, v := range s.Nodes {
		nodes[k] = v.clone()
	}
	s.Nodes = nodes
	return s
}

// Node returns the settings of the named node. Missing entries return the
// zero value.
func (s ReportSettings) Node(name string) NodeSettings {
	return s.Nodes[name]
}

// Image returns the placed image with the given ID.
func (s ReportSettings) Image(id string) (PlacedImage, bool) {
	for _, img := range s.Images {
		if img.ID == id {
			return img, true
		}
	}
	return PlacedImage{}, false
}

// Canvas returns the canvas the settings describe.
func (s ReportSettings) Canvas() Canvas {
	return Canvas{Width: s.Width, Height: s.Height, Margins: layout.DefaultMargins}
}

// LayoutOptions converts the settings into layout options for g. The
// sibling ranks come from the nodes' ChildrenOrder entries.
func (s ReportSettings) LayoutOptions(g *graph.Graph) layout.Options {
	return layout.Options{
		Width:       s.Width,
		Height:      s.Height,
		Margins:     layout.DefaultMargins,
		NodeWidth:   s.NodeWidth,
		NodePadding: s.NodePadding,
		Scale:       s.LinkWidthScale,
		LabelSize:   s.LabelSize,
		ValueSize:   s.ValueSize,
		Align:       s.Align,
		Ranks:       Ranks(s, g),
	}
}

// update applies fn to the named node entry, creating it if needed.
func (s *ReportSettings) update(name string, fn func(*NodeSettings)) {
	if s.Nodes == nil {
		s.Nodes = map[string]NodeSettings{}
	}
	n := s.Nodes[name]
	fn(&n)
	s.Nodes[name] = n
}
