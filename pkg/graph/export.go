package graph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/flowsankey/pkg/flow"
)

// Document is the JSON form of a graph, used by structural exports.
type Document struct {
	Nodes []NodeDoc `json:"nodes"`
	Links []LinkDoc `json:"links"`
}

// NodeDoc is a serialized node.
type NodeDoc struct {
	Name          string  `json:"name"`
	Column        int     `json:"column"`
	Value         float64 `json:"value"`
	PreviousValue float64 `json:"previousValue"`
	Parent        string  `json:"parent,omitempty"`
}

// LinkDoc is a serialized link.
type LinkDoc struct {
	Source        string        `json:"source"`
	Target        string        `json:"target"`
	Value         float64       `json:"value"`
	PreviousValue float64       `json:"previousValue"`
	FlowType      flow.FlowType `json:"flowType"`
	Excluded      bool          `json:"excluded,omitempty"`
}

// Export converts the graph to its serialized form with columns assigned
// using align.
func (g *Graph) Export(align Align) Document {
	columns := g.AssignColumns(align)
	doc := Document{
		Nodes: make([]NodeDoc, len(g.nodes)),
		Links: make([]LinkDoc, len(g.links)),
	}
	for i, n := range g.nodes {
		nd := NodeDoc{
			Name:          n.Name,
			Column:        columns[i],
			Value:         n.Value(),
			PreviousValue: n.PreviousValue(),
		}
		if p := g.DominantParent(i); p >= 0 {
			nd.Parent = g.nodes[p].Name
		}
		doc.Nodes[i] = nd
	}
	for i, l := range g.links {
		doc.Links[i] = LinkDoc{
			Source:        g.nodes[l.Source].Name,
			Target:        g.nodes[l.Target].Name,
			Value:         l.Value,
			PreviousValue: l.PreviousValue,
			FlowType:      l.FlowType,
			Excluded:      l.Excluded,
		}
	}
	return doc
}

// WriteJSON writes the serialized graph as indented JSON.
func (g *Graph) WriteJSON(w io.Writer, align Align) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.Export(align)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
