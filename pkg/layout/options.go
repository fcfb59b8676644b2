package layout

import (
	"github.com/matzehuels/flowsankey/pkg/graph"
)

// Margins are the fixed distances between the canvas edge and the drawing
// interior. The top margin leaves room for the header.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DefaultMargins are the margins used by every diagram.
var DefaultMargins = Margins{Top: 100, Right: 40, Bottom: 40, Left: 40}

// textPadding is added to the label block when deriving node padding.
const textPadding = 12

// RankFunc reports the explicit sibling rank of child under parent.
type RankFunc func(child, parent int) (float64, bool)

// Options configure a layout computation.
type Options struct {
	Width       float64
	Height      float64
	Margins     Margins
	NodeWidth   float64
	NodePadding float64
	// Scale is the global link width scale.
	Scale      float64
	LabelSize  float64
	ValueSize  float64
	Iterations int
	Align      graph.Align
	Ranks      RankFunc
}

// Defaults for zero-valued options.
const (
	DefaultWidth       = 1200.0
	DefaultHeight      = 700.0
	DefaultNodeWidth   = 18.0
	DefaultNodePadding = 24.0
	DefaultLabelSize   = 13.0
	DefaultValueSize   = 11.0
	DefaultIterations  = 6
)

// DefaultOptions returns options with every field set to its default.
func DefaultOptions() Options {
	return Options{}.WithDefaults()
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Margins == (Margins{}) {
		o.Margins = DefaultMargins
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodePadding <= 0 {
		o.NodePadding = DefaultNodePadding
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.LabelSize <= 0 {
		o.LabelSize = DefaultLabelSize
	}
	if o.ValueSize <= 0 {
		o.ValueSize = DefaultValueSize
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.Align == "" {
		o.Align = graph.AlignLeft
	}
	return o
}

// Padding returns the uncapped vertical gap between nodes.
func (o Options) Padding() float64 {
	return max(o.NodePadding*o.Scale, o.LabelSize+2*o.ValueSize+textPadding)
}

// Interior returns the drawable rectangle inside the margins.
func (o Options) Interior() (x0, y0, x1, y1 float64) {
	return o.Margins.Left, o.Margins.Top, o.Width - o.Margins.Right, o.Height - o.Margins.Bottom
}
