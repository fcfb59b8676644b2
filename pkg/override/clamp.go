package override

import "github.com/matzehuels/flowsankey/pkg/layout"

// Offset is a manual translation in pixels.
type Offset struct {
	X, Y float64
}

// Canvas is the drawing surface offsets are clamped to.
type Canvas struct {
	Width, Height float64
	Margins       layout.Margins
}

// ScaledBox returns the rectangle a node occupies on screen: its layout
// height scaled by scale (at least MinNodeHeight) centered on the layout
// center, translated by off.
func ScaledBox(box layout.NodeBox, off Offset, scale float64) (x0, y0, x1, y1 float64) {
	h := max(MinNodeHeight, box.Height()*scale)
	cy := box.CenterY()
	return box.X0 + off.X, cy - h/2 + off.Y, box.X1 + off.X, cy + h/2 + off.Y
}

// ClampOffset reduces off so the node's scaled box stays inside the canvas
// interior. Each axis is corrected by the overflow amount only, right and
// bottom first, then left and top. Clamping a clamped offset returns it
// unchanged.
func ClampOffset(box layout.NodeBox, off Offset, canvas Canvas, scale float64) Offset {
	x0, y0, x1, y1 := ScaledBox(box, off, scale)
	m := canvas.Margins

	if over := x1 - (canvas.Width - m.Right); over > 0 {
		off.X -= over
		x0 -= over
	}
	if under := m.Left - x0; under > 0 {
		off.X += under
	}

	if over := y1 - (canvas.Height - m.Bottom); over > 0 {
		off.Y -= over
		y0 -= over
	}
	if under := m.Top - y0; under > 0 {
		off.Y += under
	}
	return off
}

// ClampImage keeps img inside [0,Width]×[0,Height]. The size is first
// bounded to [MinImageSize, canvas size], then the position is shifted
// back by the overflow.
func ClampImage(img PlacedImage, canvas Canvas) PlacedImage {
	img.Width = min(max(MinImageSize, img.Width), max(MinImageSize, canvas.Width))
	img.Height = min(max(MinImageSize, img.Height), max(MinImageSize, canvas.Height))
	img.X = max(0, min(img.X, canvas.Width-img.Width))
	img.Y = max(0, min(img.Y, canvas.Height-img.Height))
	return img
}

// ClampImageResize is ClampImage for a resize from the top-left corner:
// the size is limited to the room left of the image's position so the
// corner stays put where it can.
func ClampImageResize(img PlacedImage, canvas Canvas) PlacedImage {
	img.Width = min(img.Width, canvas.Width-max(0, img.X))
	img.Height = min(img.Height, canvas.Height-max(0, img.Y))
	return ClampImage(img, canvas)
}
