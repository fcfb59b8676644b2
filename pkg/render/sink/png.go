package sink

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/matzehuels/flowsankey/pkg/fonts"
	"github.com/matzehuels/flowsankey/pkg/scene"
)

// ErrEmptyCanvas is returned when the scene has no drawable area.
var ErrEmptyCanvas = errors.New("sink: canvas has zero size")

// ImageLoader resolves an image source to pixels.
type ImageLoader func(src string) (image.Image, error)

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale  float64
	loader ImageLoader
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithImageLoader replaces the loader used for placed images and the logo.
// The default decodes data URLs and reads local files.
func WithImageLoader(l ImageLoader) PNGOption {
	return func(r *pngRenderer) { r.loader = l }
}

// RenderPNG rasterizes sc. Images that cannot be loaded are drawn as a
// light placeholder box.
func RenderPNG(sc *scene.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0, loader: LoadImage}
	for _, opt := range opts {
		opt(&r)
	}
	w, h := int(sc.Width*r.scale+0.5), int(sc.Height*r.scale+0.5)
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyCanvas
	}

	dc := gg.NewContext(w, h)
	setColor(dc, sc.Background, 1)
	dc.Clear()

	if sc.Header.Logo != nil {
		r.drawImage(dc, *sc.Header.Logo)
	}
	for _, t := range headerTexts(sc.Header) {
		if err := r.drawText(dc, t); err != nil {
			return nil, err
		}
	}
	for _, p := range sc.Links {
		r.drawLink(dc, p)
	}
	for _, n := range sc.Nodes {
		setColor(dc, n.Color, 1)
		dc.DrawRectangle(n.X*r.scale, n.Y*r.scale, n.Width*r.scale, n.Height*r.scale)
		dc.Fill()
	}
	for _, t := range sc.Labels {
		if err := r.drawText(dc, t); err != nil {
			return nil, err
		}
	}
	for _, img := range sc.Images {
		r.drawImage(dc, img)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func headerTexts(h scene.Header) []scene.Text {
	var out []scene.Text
	if h.Title != nil {
		out = append(out, *h.Title)
	}
	if h.Subtitle != nil {
		out = append(out, *h.Subtitle)
	}
	return append(out, h.Periods...)
}

func (r *pngRenderer) drawLink(dc *gg.Context, p scene.Path) {
	s := r.scale
	xm := (p.X0 + p.X1) / 2
	setColor(dc, p.Color, p.Opacity)
	dc.SetLineWidth(p.Width * s)
	dc.MoveTo(p.X0*s, p.Y0*s)
	dc.CubicTo(xm*s, p.Y0*s, xm*s, p.Y1*s, p.X1*s, p.Y1*s)
	dc.Stroke()
}

func (r *pngRenderer) drawText(dc *gg.Context, t scene.Text) error {
	face, err := fonts.Face(t.Size*r.scale, t.Bold)
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	dc.SetFontFace(face)
	setColor(dc, t.Color, 1)
	ax := 0.0
	switch t.Anchor {
	case scene.AnchorMiddle:
		ax = 0.5
	case scene.AnchorEnd:
		ax = 1
	}
	dc.DrawStringAnchored(t.Content, t.X*r.scale, t.Y*r.scale, ax, 0)
	return nil
}

func (r *pngRenderer) drawImage(dc *gg.Context, img scene.Image) {
	s := r.scale
	w, h := int(img.Width*s+0.5), int(img.Height*s+0.5)
	if w <= 0 || h <= 0 {
		return
	}
	src, err := r.loader(img.Src)
	if err != nil || src == nil {
		dc.SetRGBA(0.9, 0.91, 0.93, 1)
		dc.DrawRectangle(img.X*s, img.Y*s, float64(w), float64(h))
		dc.Fill()
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	dc.DrawImage(dst, int(img.X*s+0.5), int(img.Y*s+0.5))
}

func setColor(dc *gg.Context, hex string, alpha float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		dc.SetRGBA(0, 0, 0, alpha)
		return
	}
	dc.SetRGBA(c.R, c.G, c.B, alpha)
}

// LoadImage decodes a base64 data URL or reads a local PNG or JPEG file.
func LoadImage(src string) (image.Image, error) {
	var data []byte
	if rest, ok := strings.CutPrefix(src, "data:"); ok {
		_, payload, found := strings.Cut(rest, ";base64,")
		if !found {
			return nil, errors.New("unsupported data URL")
		}
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URL: %w", err)
		}
		data = b
	} else {
		b, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return DecodeImage(data)
}

// DecodeImage decodes PNG or JPEG bytes.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
