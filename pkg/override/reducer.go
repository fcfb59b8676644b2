package override

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
)

// Env is the derived state commands may consult. Both fields may be nil;
// geometry-dependent commands then skip clamping or do nothing.
type Env struct {
	Graph  *graph.Graph
	Layout *layout.Layout
}

// Command is a single settings update. The set of commands is closed.
type Command interface {
	apply(s *ReportSettings, env Env) bool
}

// Apply applies cmd to a copy of s. The second result reports whether the
// settings changed; commands that cannot apply (an unknown image, a
// boundary reorder) are no-ops rather than errors.
func Apply(s ReportSettings, cmd Command, env Env) (ReportSettings, bool) {
	out := s.Clone()
	if !cmd.apply(&out, env) {
		return s, false
	}
	return out, true
}

// ApplyAll applies commands in order.
func ApplyAll(s ReportSettings, env Env, cmds ...Command) ReportSettings {
	for _, c := range cmds {
		s, _ = Apply(s, c, env)
	}
	return s
}

// SetColor sets a node's color. An empty color clears it; an unparsable
// one is ignored.
type SetColor struct {
	Node  string
	Color string
}

func (c SetColor) apply(s *ReportSettings, _ Env) bool {
	col := ""
	if c.Color != "" {
		var ok bool
		if col, ok = NormalizeColor(c.Color); !ok {
			return false
		}
	}
	s.update(c.Node, func(n *NodeSettings) { n.Color = col })
	return true
}

// SetLabelSize sets a node's label font size. Zero clears it.
type SetLabelSize struct {
	Node string
	Size float64
}

func (c SetLabelSize) apply(s *ReportSettings, _ Env) bool {
	s.update(c.Node, func(n *NodeSettings) { n.LabelSize = max(0, c.Size) })
	return true
}

// SetValueSize sets a node's value font size. Zero clears it.
type SetValueSize struct {
	Node string
	Size float64
}

func (c SetValueSize) apply(s *ReportSettings, _ Env) bool {
	s.update(c.Node, func(n *NodeSettings) { n.ValueSize = max(0, c.Size) })
	return true
}

// SetLinkColorPriority toggles whether a node's color wins on its links.
type SetLinkColorPriority struct {
	Node     string
	Priority bool
}

func (c SetLinkColorPriority) apply(s *ReportSettings, _ Env) bool {
	s.update(c.Node, func(n *NodeSettings) { n.LinkColorPriority = c.Priority })
	return true
}

// MoveNode stores a node's manual offset, clamped to the canvas when the
// node is laid out.
type MoveNode struct {
	Node   string
	Offset Offset
}

func (c MoveNode) apply(s *ReportSettings, env Env) bool {
	off := c.Offset
	if env.Graph != nil && !env.Layout.Empty() {
		if i, ok := env.Graph.Index(c.Node); ok {
			off = ClampOffset(env.Layout.Node(i), off, s.Canvas(), s.LinkWidthScale)
		}
	}
	s.update(c.Node, func(n *NodeSettings) {
		n.OffsetX, n.OffsetY = off.X, off.Y
	})
	return true
}

// ResetPosition clears a node's offset and leaves its other settings.
type ResetPosition struct {
	Node string
}

func (c ResetPosition) apply(s *ReportSettings, _ Env) bool {
	n, ok := s.Nodes[c.Node]
	if !ok || (n.OffsetX == 0 && n.OffsetY == 0) {
		return false
	}
	n.OffsetX, n.OffsetY = 0, 0
	s.Nodes[c.Node] = n
	return true
}

// ReorderSibling moves a node up or down within its sibling group.
type ReorderSibling struct {
	Node      string
	Direction Direction
}

func (c ReorderSibling) apply(s *ReportSettings, env Env) bool {
	if env.Graph == nil || env.Layout == nil {
		return false
	}
	out, ok := MoveNodeByDirection(*s, env.Graph, env.Layout, c.Node, c.Direction)
	if ok {
		*s = out
	}
	return ok
}

// AddImage places a new image. A missing ID is generated and the rect is
// clamped to the canvas.
type AddImage struct {
	Image PlacedImage
}

func (c AddImage) apply(s *ReportSettings, _ Env) bool {
	img := c.Image
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	s.Images = append(s.Images, ClampImage(img, s.Canvas()))
	return true
}

// MoveImage sets an image's top-left corner, clamped to the canvas.
type MoveImage struct {
	ID   string
	X, Y float64
}

func (c MoveImage) apply(s *ReportSettings, _ Env) bool {
	return s.updateImage(c.ID, func(img *PlacedImage) {
		img.X, img.Y = c.X, c.Y
		*img = ClampImage(*img, s.Canvas())
	})
}

// ResizeImage sets an image's size, at least MinImageSize per dimension
// and no larger than the room left on the canvas.
type ResizeImage struct {
	ID            string
	Width, Height float64
}

func (c ResizeImage) apply(s *ReportSettings, _ Env) bool {
	return s.updateImage(c.ID, func(img *PlacedImage) {
		img.Width, img.Height = c.Width, c.Height
		*img = ClampImageResize(*img, s.Canvas())
	})
}

// DeleteImage removes an image.
type DeleteImage struct {
	ID string
}

func (c DeleteImage) apply(s *ReportSettings, _ Env) bool {
	n := len(s.Images)
	s.Images = slices.DeleteFunc(s.Images, func(img PlacedImage) bool { return img.ID == c.ID })
	return len(s.Images) != n
}

// SetCanvas sets the canvas size. Non-positive dimensions are ignored.
type SetCanvas struct {
	Width, Height float64
}

func (c SetCanvas) apply(s *ReportSettings, _ Env) bool {
	if c.Width > 0 {
		s.Width = c.Width
	}
	if c.Height > 0 {
		s.Height = c.Height
	}
	return c.Width > 0 || c.Height > 0
}

// SetTitle sets the header text.
type SetTitle struct {
	Title, Subtitle             string
	CurrentLabel, PreviousLabel string
}

func (c SetTitle) apply(s *ReportSettings, _ Env) bool {
	s.Title, s.Subtitle = c.Title, c.Subtitle
	if c.CurrentLabel != "" {
		s.CurrentLabel = c.CurrentLabel
	}
	if c.PreviousLabel != "" {
		s.PreviousLabel = c.PreviousLabel
	}
	return true
}

// SetUnit sets the unit shown after values.
type SetUnit struct {
	Unit string
}

func (c SetUnit) apply(s *ReportSettings, _ Env) bool {
	s.Unit = c.Unit
	return true
}

// SetFontSizes sets the global font sizes. Zero fields are left alone.
type SetFontSizes struct {
	Label, Value, Title float64
}

func (c SetFontSizes) apply(s *ReportSettings, _ Env) bool {
	if c.Label > 0 {
		s.LabelSize = c.Label
	}
	if c.Value > 0 {
		s.ValueSize = c.Value
	}
	if c.Title > 0 {
		s.TitleSize = c.Title
	}
	return c.Label > 0 || c.Value > 0 || c.Title > 0
}

// SetLinkWidthScale sets the global link width scale.
type SetLinkWidthScale struct {
	Scale float64
}

func (c SetLinkWidthScale) apply(s *ReportSettings, _ Env) bool {
	if c.Scale <= 0 {
		return false
	}
	s.LinkWidthScale = c.Scale
	return true
}

// SetLogo sets or, with a nil Logo, removes the header logo.
type SetLogo struct {
	Logo *Logo
}

func (c SetLogo) apply(s *ReportSettings, _ Env) bool {
	if c.Logo == nil {
		had := s.Logo != nil
		s.Logo = nil
		return had
	}
	logo := *c.Logo
	s.Logo = &logo
	return true
}

// SetAlign sets the column alignment.
type SetAlign struct {
	Align graph.Align
}

func (c SetAlign) apply(s *ReportSettings, _ Env) bool {
	if c.Align != graph.AlignLeft && c.Align != graph.AlignJustify {
		return false
	}
	s.Align = c.Align
	return true
}

func (s *ReportSettings) updateImage(id string, fn func(*PlacedImage)) bool {
	for i := range s.Images {
		if s.Images[i].ID == id {
			fn(&s.Images[i])
			return true
		}
	}
	return false
}
