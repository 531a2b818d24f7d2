package diagram

import (
	"sort"

	"github.com/rendis/flowscope/pkg/schema"
)

// Model is the intermediate representation the renderer consumes.
type Model struct {
	Title string
	Nodes []Node
	Edges []Edge
}

// Node is one renderable flow node.
type Node struct {
	ID    string
	Label string
	Kind  schema.NodeKind
}

// Edge is one labeled edge between two nodes.
type Edge struct {
	From   string
	To     string
	Branch string
}

// Build constructs a Model from a flow graph. Nodes keep document order;
// edges follow node order with branches sorted per node, so identical input
// renders identically.
func Build(g *schema.FlowGraph) *Model {
	if g == nil {
		return &Model{}
	}

	m := &Model{Title: g.ID}
	if g.Name != "" {
		m.Title = g.Name
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		label := n.Name
		if label == "" {
			label = n.ID
		}
		m.Nodes = append(m.Nodes, Node{ID: n.ID, Label: label, Kind: n.Kind})

		branches := make([]string, 0, len(n.Outgoing))
		for b := range n.Outgoing {
			branches = append(branches, b)
		}
		sort.Strings(branches)
		for _, b := range branches {
			m.Edges = append(m.Edges, Edge{From: n.ID, To: n.Outgoing[b], Branch: b})
		}
	}
	return m
}
