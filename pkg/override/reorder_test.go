package override

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
)

func row(src, dst string, cur float64) flow.Row {
	return flow.Row{Source: src, Target: dst, CurrentPeriod: cur}
}

func layoutFor(s ReportSettings, g *graph.Graph) *layout.Layout {
	return layout.Compute(g, s.LayoutOptions(g))
}

func column(g *graph.Graph, l *layout.Layout, c int) []string {
	var out []string
	for _, i := range l.Columns[c] {
		out = append(out, g.Node(i).Name)
	}
	return out
}

func fanOut() *graph.Graph {
	return graph.Build([]flow.Row{
		row("A", "B", 10),
		row("A", "C", 5),
		row("A", "D", 3),
	})
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"up", Up, false},
		{" DOWN ", Down, false},
		{"left", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestMoveNodeByDirection(t *testing.T) {
	g := fanOut()
	s := Defaults()
	l := layoutFor(s, g)

	got, ok := MoveNodeByDirection(s, g, l, "C", Up)
	if !ok {
		t.Fatal("MoveNodeByDirection() = false, want true")
	}
	want := map[string]float64{"C": 0, "B": 1, "D": 2}
	if order := got.Node("A").ChildrenOrder; !reflect.DeepEqual(order, want) {
		t.Errorf("ChildrenOrder = %v, want %v", order, want)
	}
	if len(s.Nodes) != 0 {
		t.Error("input settings were modified")
	}
	if names := column(g, layoutFor(got, g), 1); !reflect.DeepEqual(names, []string{"C", "B", "D"}) {
		t.Errorf("column 1 = %v, want [C B D]", names)
	}
}

func TestMoveNodeByDirection_NoOps(t *testing.T) {
	g := graph.Build([]flow.Row{
		row("A", "B", 10),
		row("A", "C", 5),
		row("X", "Y", 4),
	})
	s := Defaults()
	l := layoutFor(s, g)

	tests := []struct {
		name string
		node string
		dir  Direction
	}{
		{"unknown node", "Z", Up},
		{"no dominant parent", "A", Down},
		{"single child", "Y", Up},
		{"top boundary", "B", Up},
		{"bottom boundary", "C", Down},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MoveNodeByDirection(s, g, l, tt.node, tt.dir)
			if ok {
				t.Errorf("MoveNodeByDirection(%q, %s) = true, want false", tt.node, tt.dir)
			}
			if len(got.Nodes) != 0 {
				t.Errorf("settings changed: %v", got.Nodes)
			}
		})
	}
}

func TestSiblings_OnlySameParent(t *testing.T) {
	// B and C share column 1 but have different dominant parents.
	g := graph.Build([]flow.Row{
		row("A", "B", 10),
		row("X", "C", 5),
		row("A", "D", 2),
	})
	l := layoutFor(Defaults(), g)
	b, _ := g.Index("B")
	group := Siblings(g, l, b)
	var names []string
	for _, m := range group.Members {
		names = append(names, g.Node(m).Name)
	}
	if !reflect.DeepEqual(names, []string{"B", "D"}) {
		t.Errorf("Siblings(B) = %v, want [B D]", names)
	}
}

func TestRanks(t *testing.T) {
	g := fanOut()
	if Ranks(Defaults(), g) != nil {
		t.Error("Ranks() with no settings should be nil")
	}

	s := Defaults()
	s.Nodes["A"] = NodeSettings{ChildrenOrder: map[string]float64{"D": 0}}
	s.Nodes["B"] = NodeSettings{ChildrenOrder: map[string]float64{"C": 0}}
	ranks := Ranks(s, g)
	a, _ := g.Index("A")
	b, _ := g.Index("B")
	c, _ := g.Index("C")
	d, _ := g.Index("D")

	if r, ok := ranks(d, a); !ok || r != 0 {
		t.Errorf("rank(D) = %v, %v; want 0, true", r, ok)
	}
	if _, ok := ranks(c, a); ok {
		t.Error("C has no rank under A")
	}
	if _, ok := ranks(c, b); ok {
		t.Error("B is not the dominant parent of C")
	}
}

func TestReorderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("up then down restores sibling order", prop.ForAll(
		func(values []int, n, pick int) bool {
			n = min(n, len(values))
			if n < 2 {
				return true
			}
			rows := make([]flow.Row, n)
			for i, v := range values[:n] {
				rows[i] = row("P", fmt.Sprintf("C%d", i), float64(v))
			}
			g := graph.Build(rows)
			s := Defaults()
			before := column(g, layoutFor(s, g), 1)

			name := before[1+pick%(len(before)-1)]
			s, ok := MoveNodeByDirection(s, g, layoutFor(s, g), name, Up)
			if !ok {
				return false
			}
			s, ok = MoveNodeByDirection(s, g, layoutFor(s, g), name, Down)
			if !ok {
				return false
			}
			return reflect.DeepEqual(column(g, layoutFor(s, g), 1), before)
		},
		gen.SliceOfN(6, gen.IntRange(1, 100)),
		gen.IntRange(2, 6),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
