package override

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/flowsankey/pkg/flow"
)

// DefaultFlowColors are the link colors used when no node color applies.
var DefaultFlowColors = map[flow.FlowType]string{
	flow.Revenue:         "#4A90D9",
	flow.AdjacentRevenue: "#7FB3E6",
	flow.Profit:          "#3FA34D",
	flow.Expense:         "#D9534F",
}

// FlowColor returns the default color of a flow type.
func FlowColor(t flow.FlowType) string {
	if c, ok := DefaultFlowColors[t]; ok {
		return c
	}
	return DefaultFlowColors[flow.Expense]
}

// LinkColor resolves the color of a link from source to target. The chain
// is: target color if the target has priority, source color if the source
// has priority, source color, target color, then the flow-type default.
func LinkColor(s ReportSettings, source, target string, t flow.FlowType) string {
	src, dst := s.Nodes[source], s.Nodes[target]
	switch {
	case dst.LinkColorPriority && dst.Color != "":
		return dst.Color
	case src.LinkColorPriority && src.Color != "":
		return src.Color
	case src.Color != "":
		return src.Color
	case dst.Color != "":
		return dst.Color
	}
	return FlowColor(t)
}

// NodeColor returns the fill of a node: its own color, else fallback.
func NodeColor(s ReportSettings, name, fallback string) string {
	if c := s.Nodes[name].Color; c != "" {
		return c
	}
	return fallback
}

// NormalizeColor returns c as lowercase "#rrggbb". Invalid colors are
// returned unchanged with ok=false.
func NormalizeColor(c string) (string, bool) {
	col, err := colorful.Hex(c)
	if err != nil {
		return c, false
	}
	return col.Hex(), true
}

// Lighten blends c toward white by t in [0,1] in Lab space. It is used for
// link fills so links read lighter than their nodes.
func Lighten(c string, t float64) string {
	col, err := colorful.Hex(c)
	if err != nil {
		return c
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return col.BlendLab(white, t).Clamped().Hex()
}
