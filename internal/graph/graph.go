// Package graph owns the canonical node and edge collections of a flow and
// the operations that mutate them. Every mutation ends by recomputing node
// activation, so readers only ever observe settled state.
package graph

import (
	"fmt"
	"slices"
	"sync"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// Graph is a mutable flow. All methods are safe for concurrent use; each
// operation runs to completion, activation included, before the next one
// starts.
type Graph struct {
	mu       sync.Mutex
	nodes    []model.Node
	edges    []model.Edge
	viewport model.Viewport

	// highWater is the largest numeric node id ever held by this graph.
	highWater int

	edgeIDs func(taken func(string) bool) (string, error)
}

// New returns an empty graph with the default viewport.
func New() *Graph {
	return &Graph{
		nodes:    []model.Node{},
		edges:    []model.Edge{},
		viewport: model.DefaultViewport,
		edgeIDs:  defaultEdgeIDs,
	}
}

// LoadReport describes what Load discarded while sanitizing a flow.
type LoadReport struct {
	DroppedNodes int
	DroppedEdges int
}

// Empty reports whether nothing was discarded.
func (r LoadReport) Empty() bool {
	return r.DroppedNodes == 0 && r.DroppedEdges == 0
}

// Load replaces the graph's contents with f. Nodes with a repeated id keep
// their first occurrence. Edges whose endpoints are missing, whose id
// repeats, or whose (source, target) pair repeats are dropped. Activation is
// recomputed; any stored isActive values are ignored.
func (g *Graph) Load(f model.Flow) LoadReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	var report LoadReport
	nodes := make([]model.Node, 0, len(f.Nodes))
	present := make(map[string]bool, len(f.Nodes))
	for _, n := range f.Nodes {
		if n.ID == "" || present[n.ID] {
			report.DroppedNodes++
			continue
		}
		if n.Type == "" {
			n.Type = model.NodeTypeApp
		}
		present[n.ID] = true
		nodes = append(nodes, n)
	}

	edges := make([]model.Edge, 0, len(f.Edges))
	seenIDs := make(map[string]bool, len(f.Edges))
	for _, e := range f.Edges {
		if e.ID == "" || seenIDs[e.ID] || !present[e.Source] || !present[e.Target] || hasPair(edges, e.Source, e.Target) {
			report.DroppedEdges++
			continue
		}
		seenIDs[e.ID] = true
		edges = append(edges, e)
	}

	g.nodes = nodes
	g.edges = edges
	g.viewport = f.Viewport
	if g.viewport.Zoom <= 0 {
		g.viewport.Zoom = model.DefaultViewport.Zoom
	}
	g.highWater = 0
	for _, n := range nodes {
		g.observeNodeIDLocked(n.ID)
	}
	g.activateLocked()
	return report
}

// Snapshot returns a deep copy of the current flow.
func (g *Graph) Snapshot() model.Flow {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Nodes returns a copy of the node collection.
func (g *Graph) Nodes() []model.Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.nodes)
}

// Edges returns a copy of the edge collection.
func (g *Graph) Edges() []model.Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.edges)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (model.Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.nodeIndexLocked(id); i >= 0 {
		return g.nodes[i], true
	}
	return model.Node{}, false
}

// ActiveNodes returns the incomplete nodes whose dependencies are all
// complete, in canvas order.
func (g *Graph) ActiveNodes() []model.Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Node
	for _, n := range g.nodes {
		if n.Data.IsActive && !n.Data.IsComplete {
			out = append(out, n)
		}
	}
	return out
}

// Viewport returns the current viewport.
func (g *Graph) Viewport() model.Viewport {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewport
}

// AddNode appends a new incomplete node with a fresh id at pos, or at the
// origin when pos is nil.
func (g *Graph) AddNode(pos *model.Position) model.Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	var p model.Position
	if pos != nil {
		p = *pos
	}
	n := model.NewNode(g.nextNodeIDLocked(), p)
	g.nodes = append(g.nodes, n)
	g.activateLocked()
	return g.nodes[len(g.nodes)-1]
}

// Connect adds an edge from c.Source to c.Target. When an edge between the
// same pair already exists it is returned with created=false and nothing
// changes. Both endpoints must exist; self-loops are allowed.
func (g *Graph) Connect(c model.Connection) (edge model.Edge, created bool, err error) {
	if err := model.ValidateConnection(c); err != nil {
		return model.Edge{}, false, fmt.Errorf("%w: %w", ErrInvalidChange, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range []string{c.Source, c.Target} {
		if g.nodeIndexLocked(id) < 0 {
			return model.Edge{}, false, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	}
	for _, e := range g.edges {
		if e.Source == c.Source && e.Target == c.Target {
			return e, false, nil
		}
	}

	e := model.Edge{
		ID:     g.newEdgeIDLocked(c.Source, c.Target, nil),
		Source: c.Source,
		Target: c.Target,
	}
	g.edges = append(g.edges, e)
	g.activateLocked()
	return e, true, nil
}

// ConnectToNew creates a node at pos and an edge from sourceID to it, as
// when a connection is dropped on empty canvas.
func (g *Graph) ConnectToNew(sourceID string, pos model.Position) (model.Node, model.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nodeIndexLocked(sourceID) < 0 {
		return model.Node{}, model.Edge{}, fmt.Errorf("%w: %s", ErrNodeNotFound, sourceID)
	}

	n := model.NewNode(g.nextNodeIDLocked(), pos)
	g.nodes = append(g.nodes, n)
	e := model.Edge{
		ID:     g.newEdgeIDLocked(sourceID, n.ID, nil),
		Source: sourceID,
		Target: n.ID,
	}
	g.edges = append(g.edges, e)
	g.activateLocked()
	return g.nodes[len(g.nodes)-1], e, nil
}

// SetLabel replaces a node's label. It reports false, changing nothing,
// when id is unknown.
func (g *Graph) SetLabel(id, label string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.nodeIndexLocked(id)
	if i < 0 {
		return false
	}
	g.nodes[i].Data.Label = label
	g.activateLocked()
	return true
}

// SetStatus marks a node complete or incomplete. The node's own IsActive is
// cleared before activation is recomputed, so a node that becomes complete
// is never left active. It reports false when id is unknown.
func (g *Graph) SetStatus(id string, complete bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.nodeIndexLocked(id)
	if i < 0 {
		return false
	}
	g.nodes[i].Data.IsComplete = complete
	g.nodes[i].Data.IsActive = false
	g.activateLocked()
	return true
}

// DeleteNode removes a node and every edge touching it, then re-links each
// upstream neighbor to each downstream neighbor so reachability through the
// deleted node survives. Pairs that already exist are not duplicated. It
// returns the synthesized edges and false when id is unknown.
func (g *Graph) DeleteNode(id string) ([]model.Edge, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	added, ok := g.deleteNodeLocked(id)
	if ok {
		g.activateLocked()
	}
	return added, ok
}

// RemoveEdge deletes the edge with the given id. It reports false when the
// id is unknown.
func (g *Graph) RemoveEdge(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.edgeIndexLocked(id)
	if i < 0 {
		return false
	}
	g.edges = slices.Delete(g.edges, i, i+1)
	g.activateLocked()
	return true
}

// ApplyNodeChanges applies a batch of renderer node changes. The batch is
// validated as a whole first; if any entry is invalid nothing is applied.
// Entries naming unknown ids are skipped. A remove change deletes the node
// with re-linking, exactly like DeleteNode.
func (g *Graph) ApplyNodeChanges(changes []model.NodeChange) error {
	if err := model.ValidateNodeChanges(changes); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChange, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range changes {
		switch c.Type {
		case model.ChangePosition:
			if i := g.nodeIndexLocked(c.ID); i >= 0 {
				g.nodes[i].Position = *c.Position
			}
		case model.ChangeSelect:
			if i := g.nodeIndexLocked(c.ID); i >= 0 {
				g.nodes[i].Selected = c.Selected
			}
		case model.ChangeRemove:
			g.deleteNodeLocked(c.ID)
		}
	}
	g.activateLocked()
	return nil
}

// ApplyEdgeChanges applies a batch of renderer edge changes with the same
// all-or-nothing validation as ApplyNodeChanges.
func (g *Graph) ApplyEdgeChanges(changes []model.EdgeChange) error {
	if err := model.ValidateEdgeChanges(changes); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChange, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range changes {
		i := g.edgeIndexLocked(c.ID)
		if i < 0 {
			continue
		}
		switch c.Type {
		case model.ChangeSelect:
			g.edges[i].Selected = c.Selected
		case model.ChangeRemove:
			g.edges = slices.Delete(g.edges, i, i+1)
		}
	}
	g.activateLocked()
	return nil
}

// ResetCompletion marks every node incomplete and returns how many nodes
// changed.
func (g *Graph) ResetCompletion() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	var n int
	for i := range g.nodes {
		if g.nodes[i].Data.IsComplete {
			g.nodes[i].Data.IsComplete = false
			n++
		}
	}
	g.activateLocked()
	return n
}

// SetViewport replaces the stored viewport.
func (g *Graph) SetViewport(v model.Viewport) error {
	if err := model.ValidateViewport(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChange, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.viewport = v
	return nil
}

func (g *Graph) deleteNodeLocked(id string) ([]model.Edge, bool) {
	idx := g.nodeIndexLocked(id)
	if idx < 0 {
		return nil, false
	}

	var sources, targets []string
	survivors := make([]model.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		touches := false
		if e.Target == id {
			touches = true
			if e.Source != id && !slices.Contains(sources, e.Source) {
				sources = append(sources, e.Source)
			}
		}
		if e.Source == id {
			touches = true
			if e.Target != id && !slices.Contains(targets, e.Target) {
				targets = append(targets, e.Target)
			}
		}
		if !touches {
			survivors = append(survivors, e)
		}
	}

	var added []model.Edge
	var pending []string
	for _, s := range sources {
		for _, t := range targets {
			if hasPair(survivors, s, t) || hasPair(added, s, t) {
				continue
			}
			eid := g.newEdgeIDLocked(s, t, pending)
			pending = append(pending, eid)
			added = append(added, model.Edge{ID: eid, Source: s, Target: t})
		}
	}

	g.nodes = slices.Delete(g.nodes, idx, idx+1)
	g.edges = append(survivors, added...)
	return added, true
}

func (g *Graph) activateLocked() {
	g.nodes = Activate(g.nodes, g.edges)
}

func (g *Graph) snapshotLocked() model.Flow {
	return model.Flow{
		Nodes:    g.nodes,
		Edges:    g.edges,
		Viewport: g.viewport,
	}.Clone()
}

func (g *Graph) nodeIndexLocked(id string) int {
	return slices.IndexFunc(g.nodes, func(n model.Node) bool { return n.ID == id })
}

func (g *Graph) edgeIndexLocked(id string) int {
	return slices.IndexFunc(g.edges, func(e model.Edge) bool { return e.ID == id })
}

func hasPair(edges []model.Edge, source, target string) bool {
	for _, e := range edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}
