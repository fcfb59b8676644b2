// Package balance checks flow conservation over a set of rows.
//
// [Check] aggregates inflow and outflow per node for both periods with exact
// decimal arithmetic, classifies nodes as sources, sinks or intermediates,
// and reports intermediates whose inflow and outflow differ by more than
// [Epsilon]. Rows that cannot be aggregated are reported as [RowIssue]s;
// they never stop the check.
package balance

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/flowsankey/pkg/flow"
)

// Epsilon is the largest in/out difference still considered balanced.
var Epsilon = decimal.New(1, -3)

// Role describes where a node sits in the flow.
type Role string

const (
	Source       Role = "source"
	Sink         Role = "sink"
	Intermediate Role = "intermediate"
)

// IssueKind names a row-level problem.
type IssueKind string

const (
	MissingSource IssueKind = "missing_source"
	MissingTarget IssueKind = "missing_target"
	NonFinite     IssueKind = "non_finite"
	Negative      IssueKind = "negative"
)

// RowIssue is a problem found in a single row. Row is the row's position in
// the input.
type RowIssue struct {
	Row     int       `json:"row"`
	ID      string    `json:"id,omitempty"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// NodeBalance is the aggregate of one node.
type NodeBalance struct {
	Name        string          `json:"name"`
	Role        Role            `json:"role"`
	CurrentIn   decimal.Decimal `json:"currentIn"`
	CurrentOut  decimal.Decimal `json:"currentOut"`
	PreviousIn  decimal.Decimal `json:"previousIn"`
	PreviousOut decimal.Decimal `json:"previousOut"`
	Imbalanced  bool            `json:"imbalanced"`
}

// CurrentDiff returns inflow minus outflow for the current period.
func (n NodeBalance) CurrentDiff() decimal.Decimal { return n.CurrentIn.Sub(n.CurrentOut) }

// PreviousDiff returns inflow minus outflow for the previous period.
func (n NodeBalance) PreviousDiff() decimal.Decimal { return n.PreviousIn.Sub(n.PreviousOut) }

// Totals compares what leaves the sources with what reaches the sinks.
type Totals struct {
	CurrentSourceOut  decimal.Decimal `json:"currentSourceOut"`
	CurrentSinkIn     decimal.Decimal `json:"currentSinkIn"`
	PreviousSourceOut decimal.Decimal `json:"previousSourceOut"`
	PreviousSinkIn    decimal.Decimal `json:"previousSinkIn"`
	Balanced          bool            `json:"balanced"`
}

// Report is the result of [Check].
type Report struct {
	Nodes  []NodeBalance `json:"nodes"`
	Totals Totals        `json:"totals"`
	Issues []RowIssue    `json:"issues"`
}

// OK reports whether nothing was flagged.
func (r Report) OK() bool {
	return len(r.Issues) == 0 && r.Totals.Balanced && len(r.Imbalanced()) == 0
}

// Imbalanced returns the imbalanced nodes in first-seen order.
func (r Report) Imbalanced() []NodeBalance {
	var out []NodeBalance
	for _, n := range r.Nodes {
		if n.Imbalanced {
			out = append(out, n)
		}
	}
	return out
}

// Node returns the balance of the named node.
func (r Report) Node(name string) (NodeBalance, bool) {
	for _, n := range r.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeBalance{}, false
}

// Check validates rows and aggregates the ones without issues. Nodes are
// listed in first-seen order. Rows with a zero current value are aggregated
// even though they produce no link.
func Check(rows []flow.Row) Report {
	var (
		nodes         []NodeBalance
		hasIn, hasOut []bool
		index         = map[string]int{}
		rep           = Report{Issues: []RowIssue{}}
	)
	node := func(name string) int {
		i, ok := index[name]
		if !ok {
			i = len(nodes)
			index[name] = i
			nodes = append(nodes, NodeBalance{Name: name})
			hasIn = append(hasIn, false)
			hasOut = append(hasOut, false)
		}
		return i
	}

	for i, r := range rows {
		if issues := rowIssues(i, r); len(issues) > 0 {
			rep.Issues = append(rep.Issues, issues...)
			continue
		}
		cur := decimal.NewFromFloat(r.CurrentPeriod)
		prev := decimal.NewFromFloat(r.PreviousPeriod)

		si := node(r.SourceName())
		hasOut[si] = true
		nodes[si].CurrentOut = nodes[si].CurrentOut.Add(cur)
		nodes[si].PreviousOut = nodes[si].PreviousOut.Add(prev)

		ti := node(r.TargetName())
		hasIn[ti] = true
		nodes[ti].CurrentIn = nodes[ti].CurrentIn.Add(cur)
		nodes[ti].PreviousIn = nodes[ti].PreviousIn.Add(prev)
	}

	t := &rep.Totals
	for i := range nodes {
		n := &nodes[i]
		switch {
		case hasIn[i] && hasOut[i]:
			n.Role = Intermediate
			n.Imbalanced = n.CurrentDiff().Abs().GreaterThan(Epsilon) ||
				n.PreviousDiff().Abs().GreaterThan(Epsilon)
		case hasOut[i]:
			n.Role = Source
			t.CurrentSourceOut = t.CurrentSourceOut.Add(n.CurrentOut)
			t.PreviousSourceOut = t.PreviousSourceOut.Add(n.PreviousOut)
		default:
			n.Role = Sink
			t.CurrentSinkIn = t.CurrentSinkIn.Add(n.CurrentIn)
			t.PreviousSinkIn = t.PreviousSinkIn.Add(n.PreviousIn)
		}
	}
	t.Balanced = t.CurrentSourceOut.Sub(t.CurrentSinkIn).Abs().LessThanOrEqual(Epsilon) &&
		t.PreviousSourceOut.Sub(t.PreviousSinkIn).Abs().LessThanOrEqual(Epsilon)

	rep.Nodes = nodes
	if rep.Nodes == nil {
		rep.Nodes = []NodeBalance{}
	}
	return rep
}

func rowIssues(i int, r flow.Row) []RowIssue {
	var out []RowIssue
	add := func(kind IssueKind, format string, args ...any) {
		out = append(out, RowIssue{Row: i, ID: r.ID, Kind: kind, Message: fmt.Sprintf("row %d: ", i+1) + fmt.Sprintf(format, args...)})
	}
	if r.SourceName() == "" {
		add(MissingSource, "source is empty")
	}
	if r.TargetName() == "" {
		add(MissingTarget, "target is empty")
	}
	for _, v := range []struct {
		label string
		value float64
	}{{"current period", r.CurrentPeriod}, {"previous period", r.PreviousPeriod}} {
		switch {
		case math.IsNaN(v.value) || math.IsInf(v.value, 0):
			add(NonFinite, "%s value is not a finite number", v.label)
		case v.value < 0:
			add(Negative, "%s value %s is negative", v.label, decimal.NewFromFloat(v.value))
		}
	}
	return out
}
