package layout

// NodeBox is the computed rectangle of a node, before overrides.
type NodeBox struct {
	Index  int
	X0, X1 float64
	Y0, Y1 float64
	Column int
	// Order is the node's position within its column, top to bottom.
	Order int
	Value float64
}

// Height returns the vertical span of the box.
func (b NodeBox) Height() float64 { return b.Y1 - b.Y0 }

// CenterX returns the horizontal center of the box.
func (b NodeBox) CenterX() float64 { return (b.X0 + b.X1) / 2 }

// CenterY returns the vertical center of the box.
func (b NodeBox) CenterY() float64 { return (b.Y0 + b.Y1) / 2 }

// LinkBand is the computed band of a link. Y0 and Y1 are the band centers
// at the source and target node.
type LinkBand struct {
	Link   int
	Source int
	Target int
	Y0, Y1 float64
	Width  float64
}

// Layout is the geometry of a diagram. Nodes is indexed by node index;
// Links holds one band per non-excluded link in row order.
type Layout struct {
	Width   float64
	Height  float64
	Margins Margins
	Nodes   []NodeBox
	Links   []LinkBand
	// Columns lists node indices per column, top to bottom.
	Columns [][]int
	Ky      float64
	Padding float64
}

// Empty reports whether the layout has nothing to draw.
func (l *Layout) Empty() bool { return l == nil || len(l.Nodes) == 0 }

// ColumnCount returns the number of columns.
func (l *Layout) ColumnCount() int { return len(l.Columns) }

// Node returns the box of node i.
func (l *Layout) Node(i int) NodeBox { return l.Nodes[i] }

// LastColumn reports whether node i sits in the rightmost column.
func (l *Layout) LastColumn(i int) bool {
	return l.Nodes[i].Column == len(l.Columns)-1
}
