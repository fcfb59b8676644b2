package override

import (
	"encoding/json"

	"github.com/matzehuels/flowsankey/pkg/graph"
)

// LegacyOrder holds the flat per-node "orderY" ranks written by older
// versions, keyed by node name.
type LegacyOrder map[string]float64

type legacyDocument struct {
	Nodes map[string]struct {
		OrderY *float64 `json:"orderY"`
	} `json:"nodes"`
}

// DecodeSettings parses a stored settings document on top of Defaults.
// Legacy orderY fields are returned separately for [Migrate]. Malformed or
// type-mismatched input returns an error and should be treated as "no
// saved settings".
func DecodeSettings(data []byte) (ReportSettings, LegacyOrder, error) {
	s := Defaults()
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), nil, err
	}
	var legacy legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil {
		return Defaults(), nil, err
	}
	if s.Images == nil {
		s.Images = []PlacedImage{}
	}
	if s.Nodes == nil {
		s.Nodes = map[string]NodeSettings{}
	}

	var order LegacyOrder
	for name, n := range legacy.Nodes {
		if n.OrderY == nil || !finite(*n.OrderY) {
			continue
		}
		if order == nil {
			order = LegacyOrder{}
		}
		order[name] = *n.OrderY
	}
	return Normalize(s), order, nil
}

// EncodeSettings serializes s. Legacy fields are never written.
func EncodeSettings(s ReportSettings) ([]byte, error) {
	return json.Marshal(s)
}

// Migrate rebuilds ChildrenOrder from legacy ranks. Children are grouped
// under their dominant parent in g; within every group that has at least
// one legacy rank, each child gets an entry. Children with a legacy rank
// keep it; the others are ranked after the group's maximum in first-seen
// order. Existing ChildrenOrder entries are never overwritten. s is not
// modified.
func Migrate(s ReportSettings, legacy LegacyOrder, g *graph.Graph) ReportSettings {
	if len(legacy) == 0 || g == nil {
		return s
	}
	groups := make(map[int][]int)
	var parents []int
	for i := range g.Nodes() {
		p := g.DominantParent(i)
		if p < 0 {
			continue
		}
		if _, ok := groups[p]; !ok {
			parents = append(parents, p)
		}
		groups[p] = append(groups[p], i)
	}

	out := s.Clone()
	for _, p := range parents {
		children := groups[p]
		next, seen := 0.0, false
		for _, c := range children {
			if r, ok := legacy[g.Node(c).Name]; ok {
				if !seen || r+1 > next {
					next = r + 1
				}
				seen = true
			}
		}
		if !seen {
			continue
		}
		ranks := make(map[string]float64, len(children))
		for _, c := range children {
			name := g.Node(c).Name
			if r, ok := legacy[name]; ok {
				ranks[name] = r
				continue
			}
			ranks[name] = next
			next++
		}
		out.update(g.Node(p).Name, func(n *NodeSettings) {
			if n.ChildrenOrder == nil {
				n.ChildrenOrder = make(map[string]float64, len(ranks))
			}
			for child, r := range ranks {
				if _, ok := n.ChildrenOrder[child]; !ok {
					n.ChildrenOrder[child] = r
				}
			}
		})
	}
	return out
}
