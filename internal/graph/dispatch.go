package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// ActionResult reports what a dispatched action did.
type ActionResult struct {
	Kind   model.ActionKind
	NodeID string
	// Relinked holds the edges synthesized by a delete action.
	Relinked []model.Edge
}

// ActionFunc runs one node action against g. It reports false when the
// node does not exist.
type ActionFunc func(g *Graph, id string, a model.NodeAction) (ActionResult, bool)

// Dispatcher resolves node actions by kind. Nodes never carry behavior;
// a renderer sends the node id and the action kind and the dispatcher
// picks the operation.
type Dispatcher struct {
	graph   *Graph
	actions map[model.ActionKind]ActionFunc
}

// NewDispatcher returns a dispatcher with the label, status and delete
// actions registered against g.
func NewDispatcher(g *Graph) *Dispatcher {
	return &Dispatcher{
		graph: g,
		actions: map[model.ActionKind]ActionFunc{
			model.ActionLabel:  labelAction,
			model.ActionStatus: statusAction,
			model.ActionDelete: deleteAction,
		},
	}
}

// Kinds returns the registered action kinds in sorted order.
func (d *Dispatcher) Kinds() []model.ActionKind {
	kinds := make([]model.ActionKind, 0, len(d.actions))
	for k := range d.actions {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func (d *Dispatcher) kindList() string {
	kinds := d.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Dispatch runs action a against the node with the given id.
func (d *Dispatcher) Dispatch(id string, a model.NodeAction) (ActionResult, error) {
	fn, ok := d.actions[a.Kind]
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownAction, a.Kind, d.kindList())
	}
	if err := model.ValidateNodeAction(a); err != nil {
		return ActionResult{}, fmt.Errorf("%w: %w", ErrInvalidChange, err)
	}
	res, ok := fn(d.graph, id, a)
	if !ok {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return res, nil
}

func labelAction(g *Graph, id string, a model.NodeAction) (ActionResult, bool) {
	return ActionResult{Kind: a.Kind, NodeID: id}, g.SetLabel(id, *a.Label)
}

func statusAction(g *Graph, id string, a model.NodeAction) (ActionResult, bool) {
	return ActionResult{Kind: a.Kind, NodeID: id}, g.SetStatus(id, *a.Complete)
}

func deleteAction(g *Graph, id string, a model.NodeAction) (ActionResult, bool) {
	added, ok := g.DeleteNode(id)
	return ActionResult{Kind: a.Kind, NodeID: id, Relinked: added}, ok
}
