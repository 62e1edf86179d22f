package model

// Viewport is the renderer's pan/zoom state, persisted alongside the graph.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport is used when nothing was saved.
var DefaultViewport = Viewport{X: 0, Y: 0, Zoom: 1}

// Flow is a point-in-time snapshot of the whole editor state.
// Snapshots handed out by the graph are copies; mutating one has no effect
// on the graph.
type Flow struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Viewport Viewport `json:"viewport"`
}

// EmptyFlow returns a flow with no nodes, no edges and the default viewport.
func EmptyFlow() Flow {
	return Flow{
		Nodes:    []Node{},
		Edges:    []Edge{},
		Viewport: DefaultViewport,
	}
}

// Clone returns a deep copy of f.
func (f Flow) Clone() Flow {
	out := Flow{
		Nodes:    make([]Node, len(f.Nodes)),
		Edges:    make([]Edge, len(f.Edges)),
		Viewport: f.Viewport,
	}
	copy(out.Nodes, f.Nodes)
	copy(out.Edges, f.Edges)
	return out
}

// Node returns the node with the given id.
func (f Flow) Node(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// FlowStats holds aggregate node counts.
type FlowStats struct {
	TotalNodes    int `json:"total_nodes"`
	TotalEdges    int `json:"total_edges"`
	TotalActive   int `json:"total_active"`
	TotalComplete int `json:"total_complete"`
}

// Stats computes node and edge counts for f.
func (f Flow) Stats() FlowStats {
	s := FlowStats{
		TotalNodes: len(f.Nodes),
		TotalEdges: len(f.Edges),
	}
	for _, n := range f.Nodes {
		if n.Data.IsActive {
			s.TotalActive++
		}
		if n.Data.IsComplete {
			s.TotalComplete++
		}
	}
	return s
}
