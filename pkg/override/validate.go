package override

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		_, err := colorful.Hex(fl.Field().String())
		return err == nil
	})
}

// Validate checks s against its field constraints. Errors carry
// ErrCodeInvalidSettings and list every failing field.
func Validate(s ReportSettings) error {
	if err := validate.Struct(s); err != nil {
		return ferrors.FromValidation(ferrors.ErrCodeInvalidSettings, err)
	}
	for name, n := range s.Nodes {
		if !finite(n.OffsetX) || !finite(n.OffsetY) {
			return ferrors.New(ferrors.ErrCodeInvalidSettings, "node %q: offset must be finite", name)
		}
		for child, r := range n.ChildrenOrder {
			if !finite(r) {
				return ferrors.New(ferrors.ErrCodeInvalidSettings, "node %q: rank of %q must be finite", name, child)
			}
		}
	}
	return nil
}

// Normalize replaces out-of-range global fields with their defaults and
// drops node entries that fail validation, so stored settings always
// render. Valid settings are returned unchanged.
func Normalize(s ReportSettings) ReportSettings {
	if Validate(s) == nil {
		return s
	}
	d := Defaults()
	out := s.Clone()
	fix := func(v *float64, lo, hi, def float64) {
		if !finite(*v) || *v < lo || *v > hi {
			*v = def
		}
	}
	fix(&out.Width, 200, 10000, d.Width)
	fix(&out.Height, 200, 10000, d.Height)
	fix(&out.NodeWidth, 2, 200, d.NodeWidth)
	fix(&out.NodePadding, 0, 500, d.NodePadding)
	fix(&out.LabelSize, 6, 72, d.LabelSize)
	fix(&out.ValueSize, 6, 72, d.ValueSize)
	fix(&out.TitleSize, 8, 96, d.TitleSize)
	if !finite(out.LinkWidthScale) || out.LinkWidthScale <= 0 || out.LinkWidthScale > 10 {
		out.LinkWidthScale = d.LinkWidthScale
	}
	if out.Align != "left" && out.Align != "justify" {
		out.Align = d.Align
	}
	if out.Logo != nil && validate.Struct(out.Logo) != nil {
		out.Logo = nil
	}
	images := out.Images[:0]
	for _, img := range out.Images {
		if validate.Struct(img) == nil {
			images = append(images, img)
		}
	}
	out.Images = images
	for name, n := range out.Nodes {
		probe := Defaults()
		probe.Nodes = map[string]NodeSettings{name: n}
		if Validate(probe) != nil {
			delete(out.Nodes, name)
		}
	}
	return out
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
