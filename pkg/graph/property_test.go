package graph

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/flowsankey/pkg/flow"
)

var propNames = []string{"A", "B", "C", "D", "E", " A", "B "}

// rowsFromCodes maps generated integers onto rows over a small name set so
// collisions and cycles are common.
func rowsFromCodes(codes []int) []flow.Row {
	rows := make([]flow.Row, len(codes))
	for i, c := range codes {
		rows[i] = flow.Row{
			Source:        propNames[c%len(propNames)],
			Target:        propNames[(c/len(propNames))%len(propNames)],
			CurrentPeriod: float64(c%5) - 1,
		}
	}
	return rows
}

func TestGraphProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every node appears once", prop.ForAll(
		func(codes []int) bool {
			g := Build(rowsFromCodes(codes))
			seen := map[string]bool{}
			for i, n := range g.Nodes() {
				if seen[n.Name] || n.Index != i {
					return false
				}
				seen[n.Name] = true
				if j, ok := g.Index(n.Name); !ok || j != i {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.Property("one link per valid row", prop.ForAll(
		func(codes []int) bool {
			rows := rowsFromCodes(codes)
			return Build(rows).LinkCount() == len(flow.ValidRows(rows))
		},
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.Property("active links point to later columns", prop.ForAll(
		func(codes []int) bool {
			g := Build(rowsFromCodes(codes))
			cols := g.AssignColumns(AlignLeft)
			for _, l := range g.Links() {
				if !l.Excluded && cols[l.Target] <= cols[l.Source] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.TestingRun(t)
}
