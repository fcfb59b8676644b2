package scene

import (
	"math"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
	"github.com/matzehuels/flowsankey/pkg/override"
)

const eps = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func build(rows []flow.Row, s override.ReportSettings, live *Live) *Scene {
	g := graph.Build(rows)
	l := layout.Compute(g, s.LayoutOptions(g))
	return Build(g, l, s, live, WithLanguage(language.English))
}

func TestBuild_Sample(t *testing.T) {
	rows := flow.SampleRows()
	s := override.Defaults()
	sc := build(rows, s, nil)

	g := graph.Build(rows)
	if len(sc.Nodes) != g.NodeCount() {
		t.Errorf("len(Nodes) = %d, want %d", len(sc.Nodes), g.NodeCount())
	}
	if len(sc.Links) != g.LinkCount() {
		t.Errorf("len(Links) = %d, want %d", len(sc.Links), g.LinkCount())
	}
	if len(sc.Labels) != 3*g.NodeCount() {
		t.Errorf("len(Labels) = %d, want %d", len(sc.Labels), 3*g.NodeCount())
	}
	if !sc.Finite() {
		t.Error("scene has non-finite coordinates")
	}

	m := layout.DefaultMargins
	for _, r := range sc.Nodes {
		if r.X < m.Left-eps || r.X+r.Width > s.Width-m.Right+eps ||
			r.Y < m.Top-eps || r.Y+r.Height > s.Height-m.Bottom+eps {
			t.Errorf("node %s outside interior: %+v", r.Node, r)
		}
	}
	for _, p := range sc.Links {
		src, _ := sc.Node(p.Source)
		dst, _ := sc.Node(p.Target)
		if !near(p.X0, src.X+src.Width) || !near(p.X1, dst.X) {
			t.Errorf("link %s->%s endpoints %v,%v not on node edges", p.Source, p.Target, p.X0, p.X1)
		}
		if p.Y0 < src.Y-eps || p.Y0 > src.Y+src.Height+eps {
			t.Errorf("link %s->%s starts outside its source", p.Source, p.Target)
		}
		if p.D == "" || p.Color == "" {
			t.Errorf("link %s->%s missing path or color", p.Source, p.Target)
		}
	}
}

func TestBuild_OffsetAndScale(t *testing.T) {
	s := override.Defaults()
	s.LinkWidthScale = 0.5
	s.Nodes["A"] = override.NodeSettings{OffsetX: 30, OffsetY: 50}
	sc := build([]flow.Row{{Source: "A", Target: "B", CurrentPeriod: 10}}, s, nil)

	a, _ := sc.Node("A")
	if !near(a.X, 70) || !near(a.Y, 290) || !near(a.Height, 280) {
		t.Errorf("A = %+v, want x=70 y=290 h=280", a)
	}
	b, _ := sc.Node("B")
	if !near(b.X, 1142) || !near(b.Y, 240) {
		t.Errorf("B = %+v, want x=1142 y=240", b)
	}

	p := sc.Links[0]
	if !near(p.X0, 88) || !near(p.Y0, 430) || !near(p.X1, 1142) || !near(p.Y1, 380) || !near(p.Width, 280) {
		t.Errorf("link = %+v", p)
	}
	if want := CurvePath(88, 430, 1142, 380); p.D != want {
		t.Errorf("D = %q, want %q", p.D, want)
	}
}

func TestBuild_LiveOffsetIsClamped(t *testing.T) {
	s := override.Defaults()
	s.LinkWidthScale = 0.5
	s.Nodes["A"] = override.NodeSettings{OffsetY: 50}
	live := &Live{Node: "A", Offset: override.Offset{Y: -1000}, SelectedNode: "A"}
	sc := build([]flow.Row{{Source: "A", Target: "B", CurrentPeriod: 10}}, s, live)

	a, _ := sc.Node("A")
	if !near(a.Y, 100) {
		t.Errorf("A.Y = %v, want 100", a.Y)
	}
	if !a.Selected {
		t.Error("A should be selected")
	}
	if b, _ := sc.Node("B"); b.Selected {
		t.Error("B should not be selected")
	}
}

func TestBuild_Colors(t *testing.T) {
	rows := []flow.Row{
		{Source: "Выручка", Target: "Валовая прибыль", CurrentPeriod: 10},
		{Source: "Валовая прибыль", Target: "Налоги", CurrentPeriod: 4},
	}
	s := override.Defaults()
	s.Nodes["Налоги"] = override.NodeSettings{Color: "#123456", LinkColorPriority: true}
	sc := build(rows, s, nil)

	if r, _ := sc.Node("Выручка"); r.Color != override.FlowColor(flow.Revenue) {
		t.Errorf("source node color = %s, want revenue default", r.Color)
	}
	if r, _ := sc.Node("Налоги"); r.Color != "#123456" {
		t.Errorf("explicit node color = %s", r.Color)
	}
	if sc.Links[0].Color != override.FlowColor(flow.Revenue) {
		t.Errorf("link 0 color = %s", sc.Links[0].Color)
	}
	if sc.Links[1].Color != "#123456" {
		t.Errorf("link 1 color = %s, want target priority color", sc.Links[1].Color)
	}
}

func TestBuild_Labels(t *testing.T) {
	s := override.Defaults()
	s.Unit = "$m"
	s.Nodes["B"] = override.NodeSettings{LabelSize: 20}
	sc := build([]flow.Row{{Source: "A", Target: "B", CurrentPeriod: 1200, PreviousPeriod: 1000}}, s, nil)

	var a, b []Text
	for _, l := range sc.Labels {
		switch l.Node {
		case "A":
			a = append(a, l)
		case "B":
			b = append(b, l)
		}
	}
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("labels per node = %d/%d, want 3", len(a), len(b))
	}
	if a[0].Anchor != AnchorStart || b[0].Anchor != AnchorEnd {
		t.Errorf("anchors = %s/%s, want start/end", a[0].Anchor, b[0].Anchor)
	}
	if b[0].Size != 20 || a[0].Size != s.LabelSize {
		t.Errorf("label sizes = %v/%v", a[0].Size, b[0].Size)
	}
	if a[1].Content != "1,200 $m" {
		t.Errorf("value = %q, want %q", a[1].Content, "1,200 $m")
	}
	if a[2].Content != "1,000 $m · +20.0%" {
		t.Errorf("annotation = %q", a[2].Content)
	}
}

func TestBuild_Empty(t *testing.T) {
	s := override.Defaults()
	s.Images = []override.PlacedImage{{ID: "i", Src: "x.png", X: 5, Y: 6, Width: 40, Height: 40}}
	sc := build(nil, s, nil)
	if !sc.Empty() || len(sc.Links) != 0 || len(sc.Labels) != 0 {
		t.Errorf("empty rows produced diagram content: %+v", sc)
	}
	if sc.Header.Title == nil || sc.Header.Title.Content != s.Title {
		t.Errorf("header title = %+v", sc.Header.Title)
	}
	if len(sc.Images) != 1 {
		t.Errorf("len(Images) = %d, want 1", len(sc.Images))
	}
}

func TestBuild_Header(t *testing.T) {
	s := override.Defaults()
	s.Subtitle = "FY2024"
	s.Logo = &override.Logo{Src: "logo.png", Width: 80, Height: 30}
	sc := build(nil, s, nil)

	h := sc.Header
	if h.Logo == nil || h.Logo.X != layout.DefaultMargins.Left {
		t.Fatalf("logo = %+v", h.Logo)
	}
	if h.Title.X != h.Logo.X+80+logoGap {
		t.Errorf("title x = %v, want right of logo", h.Title.X)
	}
	if h.Subtitle == nil || h.Subtitle.Y <= h.Title.Y {
		t.Errorf("subtitle = %+v", h.Subtitle)
	}
	if len(h.Periods) != 2 || h.Periods[0].Anchor != AnchorEnd {
		t.Errorf("periods = %+v", h.Periods)
	}
}

func TestBuild_LiveImage(t *testing.T) {
	s := override.Defaults()
	s.Images = []override.PlacedImage{{ID: "i", Src: "x.png", Width: 40, Height: 40}}
	live := &Live{Image: "i", ImageRect: Image{X: 10, Y: 20, Width: 5, Height: 90}, SelectedImage: "i"}
	sc := build(nil, s, live)
	img, _ := sc.Image("i")
	if img.X != 10 || img.Y != 20 || img.Width != override.MinImageSize || img.Height != 90 || !img.Selected {
		t.Errorf("image = %+v", img)
	}
}

func TestFormatter(t *testing.T) {
	f := NewFormatter(language.English)
	tests := []struct {
		got, want string
	}{
		{f.Value(1234.5, "$m"), "1,234.5 $m"},
		{f.Value(620, ""), "620"},
		{f.Change(110, 100), "+10.0%"},
		{f.Change(90, 100), "−10.0%"},
		{f.Change(5, 0), ""},
		{f.Annotation(5, 0, "u"), "0 u"},
	}
	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("case %d = %q, want %q", i, tt.got, tt.want)
		}
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 5, Height: 5}
	if !r.Contains(12, 15) || r.Contains(16, 12) {
		t.Error("Contains() mismatch")
	}
}

func TestTruncate(t *testing.T) {
	s := "Консолидированный финансовый результат группы компаний"
	if got := Truncate(s, 24, true, 0); got != s {
		t.Errorf("Truncate(maxWidth=0) = %q, want unchanged", got)
	}
	if got := Truncate("EBITDA", 12, false, 1000); got != "EBITDA" {
		t.Errorf("Truncate(fits) = %q", got)
	}
	got := Truncate(s, 24, true, 200)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) >= len([]rune(s)) {
		t.Errorf("Truncate(long) = %q, want shortened with ellipsis", got)
	}
}
