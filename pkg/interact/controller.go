package interact

import (
	"context"
	"math"

	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/scene"
)

// ClickThreshold is the largest pointer displacement, in pixels, that still
// counts as a click.
const ClickThreshold = 3.0

// HandleSize is the side of the square resize handle at an image's
// bottom-right corner.
const HandleSize = 12.0

// Point is a canvas position.
type Point struct {
	X, Y float64
}

// Kind is the kind of entity under the pointer.
type Kind int

const (
	Canvas Kind = iota
	Node
	Image
	Handle
)

func (k Kind) String() string {
	switch k {
	case Node:
		return "node"
	case Image:
		return "image"
	case Handle:
		return "handle"
	}
	return "canvas"
}

// Target identifies what a gesture acts on. ID is the node name or image
// ID; it is empty for the canvas.
type Target struct {
	Kind Kind
	ID   string
}

// State is the gesture state.
type State int

const (
	Idle State = iota
	Dragging
)

// Outcome describes how a gesture ended.
type Outcome int

const (
	None Outcome = iota
	Clicked
	Committed
)

// CommitFunc receives the settings after every committed change.
type CommitFunc func(override.ReportSettings)

// Option configures a Controller.
type Option func(*Controller)

// WithCommitHook sets the function called after each commit.
func WithCommitHook(fn CommitFunc) Option {
	return func(c *Controller) { c.onCommit = fn }
}

// WithSceneOptions passes options to every scene build.
func WithSceneOptions(opts ...scene.Option) Option {
	return func(c *Controller) { c.sceneOpts = opts }
}

// WithMemo shares a layout memo with the controller.
func WithMemo(m *layout.Memo) Option {
	return func(c *Controller) { c.memo = m }
}

// Controller runs gestures against one diagram. It is not safe for
// concurrent use; gestures are expected from a single pointer.
type Controller struct {
	g         *graph.Graph
	settings  override.ReportSettings
	memo      *layout.Memo
	onCommit  CommitFunc
	sceneOpts []scene.Option

	state       State
	target      Target
	start       Point
	startOffset override.Offset
	startImage  scene.Image
	live        scene.Live
}

// New creates a controller for g with settings s.
func New(g *graph.Graph, s override.ReportSettings, opts ...Option) *Controller {
	c := &Controller{g: g, settings: s}
	for _, opt := range opts {
		opt(c)
	}
	if c.memo == nil {
		c.memo = layout.NewMemo()
	}
	return c
}

// Settings returns the committed settings.
func (c *Controller) Settings() override.ReportSettings { return c.settings }

// Graph returns the current graph.
func (c *Controller) Graph() *graph.Graph { return c.g }

// State returns the gesture state.
func (c *Controller) State() State { return c.state }

// SetGraph replaces the graph after a row change. An in-flight gesture is
// dropped.
func (c *Controller) SetGraph(g *graph.Graph) {
	c.g = g
	c.reset()
}

// SetSettings replaces the settings without calling the commit hook.
func (c *Controller) SetSettings(s override.ReportSettings) {
	c.settings = s
}

// Layout returns the layout for the current graph and settings, reusing
// the memoized one when nothing layout-relevant changed.
func (c *Controller) Layout() *layout.Layout {
	return c.memo.Compute(context.Background(), c.g, c.settings.LayoutOptions(c.g))
}

// Scene draws the current state including any live gesture.
func (c *Controller) Scene() *scene.Scene {
	live := c.live
	return scene.Build(c.g, c.Layout(), c.settings, &live, c.sceneOpts...)
}

// Selection returns the selected node name and image ID. At most one is
// non-empty.
func (c *Controller) Selection() (node, image string) {
	return c.live.SelectedNode, c.live.SelectedImage
}

// HitTest returns the topmost target at p: image resize handles, then
// image bodies (last placed on top), then nodes, then the canvas.
func (c *Controller) HitTest(p Point) Target {
	sc := c.Scene()
	for i := len(sc.Images) - 1; i >= 0; i-- {
		img := sc.Images[i]
		if onHandle(img, p) {
			return Target{Kind: Handle, ID: img.ID}
		}
		if img.Rect().Contains(p.X, p.Y) {
			return Target{Kind: Image, ID: img.ID}
		}
	}
	for _, r := range sc.Nodes {
		if r.Contains(p.X, p.Y) {
			return Target{Kind: Node, ID: r.Node}
		}
	}
	return Target{Kind: Canvas}
}

func onHandle(img scene.Image, p Point) bool {
	x1, y1 := img.X+img.Width, img.Y+img.Height
	return p.X >= x1-HandleSize && p.X <= x1 && p.Y >= y1-HandleSize && p.Y <= y1
}

// PointerDown starts a gesture on t at p. It is ignored while another
// gesture is in flight, and for unknown nodes or images.
func (c *Controller) PointerDown(t Target, p Point) {
	if c.state == Dragging {
		return
	}
	switch t.Kind {
	case Node:
		if _, ok := c.g.Index(t.ID); !ok {
			return
		}
		c.startOffset = c.settings.Node(t.ID).Offset()
	case Image, Handle:
		img, ok := c.settings.Image(t.ID)
		if !ok {
			return
		}
		c.startImage = scene.Image{ID: img.ID, Src: img.Src, X: img.X, Y: img.Y, Width: img.Width, Height: img.Height}
	}
	c.state, c.target, c.start = Dragging, t, p
}

// PointerMove updates the live transform and returns the live scene. It
// returns the committed scene when no gesture is in flight.
func (c *Controller) PointerMove(p Point) *scene.Scene {
	if c.state == Dragging {
		c.track(p)
	}
	return c.Scene()
}

func (c *Controller) track(p Point) {
	dx, dy := p.X-c.start.X, p.Y-c.start.Y
	switch c.target.Kind {
	case Node:
		c.live.Node = c.target.ID
		c.live.Offset = c.clampNode(c.target.ID, override.Offset{X: c.startOffset.X + dx, Y: c.startOffset.Y + dy})
	case Image:
		r := c.startImage
		r.X, r.Y = r.X+dx, r.Y+dy
		c.live.Image, c.live.ImageRect = c.target.ID, c.clampImage(r, override.ClampImage)
	case Handle:
		r := c.startImage
		r.Width, r.Height = r.Width+dx, r.Height+dy
		c.live.Image, c.live.ImageRect = c.target.ID, c.clampImage(r, override.ClampImageResize)
	}
}

func (c *Controller) clampImage(r scene.Image, clamp func(override.PlacedImage, override.Canvas) override.PlacedImage) scene.Image {
	img := clamp(override.PlacedImage{ID: r.ID, Src: r.Src, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, c.settings.Canvas())
	r.X, r.Y, r.Width, r.Height = img.X, img.Y, img.Width, img.Height
	return r
}

func (c *Controller) clampNode(name string, off override.Offset) override.Offset {
	l := c.Layout()
	i, ok := c.g.Index(name)
	if !ok || l.Empty() {
		return off
	}
	return override.ClampOffset(l.Node(i), off, c.settings.Canvas(), c.settings.LinkWidthScale)
}

// PointerUp ends the gesture. A displacement below ClickThreshold toggles
// selection; anything larger commits the move or resize.
func (c *Controller) PointerUp(p Point) Outcome {
	if c.state != Dragging {
		return None
	}
	defer c.reset()

	if math.Hypot(p.X-c.start.X, p.Y-c.start.Y) < ClickThreshold {
		c.click(c.target)
		return Clicked
	}

	c.track(p)
	var cmd override.Command
	switch c.target.Kind {
	case Node:
		cmd = override.MoveNode{Node: c.target.ID, Offset: c.live.Offset}
	case Image:
		r := c.live.ImageRect
		cmd = override.MoveImage{ID: c.target.ID, X: r.X, Y: r.Y}
	case Handle:
		r := c.live.ImageRect
		cmd = override.ResizeImage{ID: c.target.ID, Width: r.Width, Height: r.Height}
	default:
		return None
	}
	if c.apply(cmd) {
		return Committed
	}
	return None
}

func (c *Controller) click(t Target) {
	sel := &c.live
	switch t.Kind {
	case Node:
		if sel.SelectedNode == t.ID {
			sel.SelectedNode = ""
		} else {
			sel.SelectedNode, sel.SelectedImage = t.ID, ""
		}
	case Image, Handle:
		if sel.SelectedImage == t.ID {
			sel.SelectedImage = ""
		} else {
			sel.SelectedNode, sel.SelectedImage = "", t.ID
		}
	default:
		sel.SelectedNode, sel.SelectedImage = "", ""
	}
}

// reset returns to Idle and drops the live transform, keeping selection.
func (c *Controller) reset() {
	c.state = Idle
	c.target = Target{}
	c.live.Node, c.live.Offset = "", override.Offset{}
	c.live.Image, c.live.ImageRect = "", scene.Image{}
}

// Apply runs cmd through the reducer and, if the settings changed, calls
// the commit hook.
func (c *Controller) Apply(cmd override.Command) bool {
	return c.apply(cmd)
}

func (c *Controller) apply(cmd override.Command) bool {
	s, changed := override.Apply(c.settings, cmd, override.Env{Graph: c.g, Layout: c.Layout()})
	if !changed {
		return false
	}
	c.settings = s
	if c.live.SelectedImage != "" {
		if _, ok := s.Image(c.live.SelectedImage); !ok {
			c.live.SelectedImage = ""
		}
	}
	if c.onCommit != nil {
		c.onCommit(s)
	}
	return true
}

// Select selects a node by name, clearing any image selection.
func (c *Controller) Select(name string) bool {
	if _, ok := c.g.Index(name); !ok {
		return false
	}
	c.live.SelectedNode, c.live.SelectedImage = name, ""
	return true
}

// SelectImage selects an image, clearing any node selection.
func (c *Controller) SelectImage(id string) bool {
	if _, ok := c.settings.Image(id); !ok {
		return false
	}
	c.live.SelectedNode, c.live.SelectedImage = "", id
	return true
}

// ClearSelection clears both selections.
func (c *Controller) ClearSelection() {
	c.live.SelectedNode, c.live.SelectedImage = "", ""
}

// MoveSelected reorders the selected node among its siblings.
func (c *Controller) MoveSelected(dir override.Direction) bool {
	if c.live.SelectedNode == "" {
		return false
	}
	return c.apply(override.ReorderSibling{Node: c.live.SelectedNode, Direction: dir})
}

// ResetSelected clears the selected node's manual offset.
func (c *Controller) ResetSelected() bool {
	if c.live.SelectedNode == "" {
		return false
	}
	return c.apply(override.ResetPosition{Node: c.live.SelectedNode})
}

// DeleteSelected removes the selected image.
func (c *Controller) DeleteSelected() bool {
	if c.live.SelectedImage == "" {
		return false
	}
	return c.apply(override.DeleteImage{ID: c.live.SelectedImage})
}

// Nudge moves the selected node by (dx, dy) pixels and commits.
func (c *Controller) Nudge(dx, dy float64) bool {
	name := c.live.SelectedNode
	if name == "" {
		return false
	}
	off := c.settings.Node(name).Offset()
	return c.apply(override.MoveNode{Node: name, Offset: override.Offset{X: off.X + dx, Y: off.Y + dy}})
}
