package balance

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/flowsankey/pkg/flow"
)

func row(src, dst string, cur, prev float64) flow.Row {
	return flow.Row{Source: src, Target: dst, CurrentPeriod: cur, PreviousPeriod: prev}
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestCheck_PureSourcesAndSinks(t *testing.T) {
	rep := Check([]flow.Row{row("A", "B", 10, 8), row("A", "C", 5, 5)})

	a, _ := rep.Node("A")
	if a.Role != Source || !a.CurrentOut.Equal(dec(15)) || !a.PreviousOut.Equal(dec(13)) {
		t.Errorf("A = %+v, want source with currentOut 15", a)
	}
	for _, name := range []string{"B", "C"} {
		if n, _ := rep.Node(name); n.Role != Sink {
			t.Errorf("%s role = %s, want sink", name, n.Role)
		}
	}
	if got := rep.Imbalanced(); len(got) != 0 {
		t.Errorf("Imbalanced() = %v, want none", got)
	}
	if !rep.Totals.Balanced || !rep.OK() {
		t.Errorf("report not OK: %+v", rep.Totals)
	}
}

func TestCheck_FlagsImbalance(t *testing.T) {
	rep := Check([]flow.Row{row("A", "B", 10, 0), row("B", "C", 4, 0)})

	b, _ := rep.Node("B")
	if b.Role != Intermediate || !b.Imbalanced {
		t.Fatalf("B = %+v, want imbalanced intermediate", b)
	}
	if !b.CurrentDiff().Equal(dec(6)) {
		t.Errorf("B diff = %s, want 6", b.CurrentDiff())
	}
	if got := rep.Imbalanced(); len(got) != 1 || got[0].Name != "B" {
		t.Errorf("Imbalanced() = %v, want [B]", got)
	}
	if rep.Totals.Balanced {
		t.Error("source outflow 10 vs sink inflow 4 should be unbalanced")
	}
}

func TestCheck_Epsilon(t *testing.T) {
	tests := []struct {
		name string
		out  float64
		want bool
	}{
		{"exact", 10, false},
		{"within epsilon", 9.9995, false},
		{"at epsilon", 9.999, false},
		{"beyond epsilon", 9.998, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := Check([]flow.Row{row("A", "B", 10, 0), row("B", "C", tt.out, 0)})
			b, _ := rep.Node("B")
			if b.Imbalanced != tt.want {
				t.Errorf("Imbalanced = %v, want %v", b.Imbalanced, tt.want)
			}
		})
	}
}

func TestCheck_PreviousPeriodImbalance(t *testing.T) {
	rep := Check([]flow.Row{row("A", "B", 10, 10), row("B", "C", 10, 7)})
	if b, _ := rep.Node("B"); !b.Imbalanced {
		t.Error("previous period difference should flag B")
	}
}

func TestCheck_DecimalExactness(t *testing.T) {
	rep := Check([]flow.Row{
		row("A", "B", 0.1, 0),
		row("A", "B", 0.2, 0),
		row("B", "C", 0.3, 0),
	})
	b, _ := rep.Node("B")
	if !b.CurrentIn.Equal(decimal.RequireFromString("0.3")) || b.Imbalanced {
		t.Errorf("B = %+v, want exact 0.3 in", b)
	}
}

func TestCheck_RowIssues(t *testing.T) {
	rows := []flow.Row{
		row("A", "B", 10, 5),
		row(" ", "B", 1, 1),
		row("A", "", 1, 1),
		row("A", "C", math.NaN(), 1),
		row("A", "C", 1, math.Inf(-1)),
		row("A", "D", -3, 1),
	}
	rep := Check(rows)

	want := []struct {
		row  int
		kind IssueKind
	}{
		{1, MissingSource},
		{2, MissingTarget},
		{3, NonFinite},
		{4, NonFinite},
		{5, Negative},
	}
	if len(rep.Issues) != len(want) {
		t.Fatalf("len(Issues) = %d, want %d: %+v", len(rep.Issues), len(want), rep.Issues)
	}
	for i, w := range want {
		if got := rep.Issues[i]; got.Row != w.row || got.Kind != w.kind || got.Message == "" {
			t.Errorf("Issues[%d] = %+v, want row %d kind %s", i, got, w.row, w.kind)
		}
	}

	a, _ := rep.Node("A")
	if !a.CurrentOut.Equal(dec(10)) {
		t.Errorf("A currentOut = %s, want 10 (clean rows only)", a.CurrentOut)
	}
	if _, ok := rep.Node("C"); ok {
		t.Error("C only appears in rejected rows")
	}
	if rep.OK() {
		t.Error("report with issues should not be OK")
	}
}

func TestCheck_Empty(t *testing.T) {
	rep := Check(nil)
	if len(rep.Nodes) != 0 || len(rep.Issues) != 0 || !rep.OK() {
		t.Errorf("Check(nil) = %+v", rep)
	}
}

func TestCheck_SampleRows(t *testing.T) {
	rep := Check(flow.SampleRows())
	if len(rep.Issues) != 0 {
		t.Errorf("sample rows have issues: %+v", rep.Issues)
	}
	if n, _ := rep.Node("Выручка"); n.Role != Source {
		t.Errorf("Выручка role = %s, want source", n.Role)
	}
	if n, _ := rep.Node("Валовая прибыль"); n.Role != Intermediate || n.Imbalanced {
		t.Errorf("Валовая прибыль = %+v, want balanced intermediate", n)
	}
}
