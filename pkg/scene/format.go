package scene

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter formats values and period changes for annotations.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a formatter using the number conventions of tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// Value formats v with grouping, one decimal unless v is whole, followed
// by unit.
func (f *Formatter) Value(v float64, unit string) string {
	var s string
	if v == math.Trunc(v) {
		s = f.p.Sprintf("%.0f", v)
	} else {
		s = f.p.Sprintf("%.1f", v)
	}
	if unit = strings.TrimSpace(unit); unit != "" {
		s += " " + unit
	}
	return s
}

// Change formats the relative change from prev to cur as a signed
// percentage. It returns "" when prev is zero.
func (f *Formatter) Change(cur, prev float64) string {
	if prev == 0 || math.IsNaN(prev) || math.IsInf(prev, 0) {
		return ""
	}
	pct := (cur - prev) / math.Abs(prev) * 100
	sign := "+"
	if pct < 0 {
		sign = "−"
	}
	return sign + f.p.Sprintf("%.1f", math.Abs(pct)) + "%"
}

// Annotation returns the previous-period line of a node: the previous
// value and the change, or just the value when no change applies.
func (f *Formatter) Annotation(cur, prev float64, unit string) string {
	s := f.Value(prev, unit)
	if c := f.Change(cur, prev); c != "" {
		s += " · " + c
	}
	return s
}
