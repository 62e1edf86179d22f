package graph

import "github.com/alfredjeanlab/flowgraph/internal/model"

// Activate derives each node's IsActive flag from the completion state of
// its direct upstream nodes.
//
// Complete nodes are copied through untouched. An incomplete node is active
// when every edge targeting it has a source node that exists and is complete;
// a node with no incoming edges is active. Only direct dependencies count.
//
// Activate never mutates its arguments and returns a new slice.
func Activate(nodes []model.Node, edges []model.Edge) []model.Node {
	complete := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if _, seen := complete[n.ID]; !seen {
			complete[n.ID] = n.Data.IsComplete
		}
	}

	incoming := make(map[string][]string, len(nodes))
	for _, e := range edges {
		incoming[e.Target] = append(incoming[e.Target], e.Source)
	}

	out := make([]model.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if n.Data.IsComplete {
			continue
		}
		active := true
		for _, src := range incoming[n.ID] {
			// A missing source reads as incomplete.
			if !complete[src] {
				active = false
				break
			}
		}
		out[i].Data.IsActive = active
	}
	return out
}
