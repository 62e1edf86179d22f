package server

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/flowgraph/internal/events"
	"github.com/alfredjeanlab/flowgraph/internal/graph"
	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// Transport-agnostic flow operations. Handlers decode input, call one of
// these, and map the error.

type updateNodeInput struct {
	Label    *string `json:"label,omitempty"`
	Complete *bool   `json:"complete,omitempty"`
}

type connectEndInput struct {
	Source   string          `json:"source"`
	Position *model.Position `json:"position"`
}

// actionResponse is returned by the node action endpoint. Node is absent
// after a delete.
type actionResponse struct {
	Action   model.ActionKind `json:"action"`
	NodeID   string           `json:"node_id"`
	Node     *model.Node      `json:"node,omitempty"`
	Relinked []model.Edge     `json:"relinked,omitempty"`
}

// replaceResponse reports the outcome of an import or restore.
type replaceResponse struct {
	Stats        model.FlowStats `json:"stats"`
	DroppedNodes int             `json:"dropped_nodes"`
	DroppedEdges int             `json:"dropped_edges"`
}

func (s *FlowServer) addNode(ctx context.Context, actor string, pos *model.Position) model.Node {
	var n model.Node
	_ = s.mutate(ctx, actor, func() (string, any, error) {
		n = s.graph.AddNode(pos)
		return events.TopicNodeAdded, events.NodeAdded{Node: n}, nil
	})
	return n
}

func (s *FlowServer) updateNode(ctx context.Context, actor, id string, in updateNodeInput) (model.Node, error) {
	if in.Label == nil && in.Complete == nil {
		return model.Node{}, inputError("label or complete is required")
	}
	if in.Label != nil {
		if err := model.ValidateLabel(*in.Label); err != nil {
			return model.Node{}, err
		}
	}

	var n model.Node
	err := s.mutate(ctx, actor, func() (string, any, error) {
		if _, ok := s.graph.Node(id); !ok {
			return "", nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		changes := make(map[string]any)
		if in.Label != nil {
			s.graph.SetLabel(id, *in.Label)
			changes["label"] = *in.Label
		}
		if in.Complete != nil {
			s.graph.SetStatus(id, *in.Complete)
			changes["isComplete"] = *in.Complete
		}
		n, _ = s.graph.Node(id)
		return events.TopicNodeUpdated, events.NodeUpdated{Node: n, Changes: changes}, nil
	})
	return n, err
}

func (s *FlowServer) deleteNode(ctx context.Context, actor, id string) ([]model.Edge, error) {
	var relinked []model.Edge
	err := s.mutate(ctx, actor, func() (string, any, error) {
		added, ok := s.graph.DeleteNode(id)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		relinked = added
		return events.TopicNodeDeleted, events.NodeDeleted{NodeID: id, Relinked: added}, nil
	})
	return relinked, err
}

// runAction dispatches a node widget action by kind.
func (s *FlowServer) runAction(ctx context.Context, actor, id string, a model.NodeAction) (actionResponse, error) {
	var resp actionResponse
	err := s.mutate(ctx, actor, func() (string, any, error) {
		res, err := s.dispatcher.Dispatch(id, a)
		if err != nil {
			return "", nil, err
		}
		resp = actionResponse{Action: res.Kind, NodeID: res.NodeID, Relinked: res.Relinked}
		if res.Kind == model.ActionDelete {
			return events.TopicNodeDeleted, events.NodeDeleted{NodeID: id, Relinked: res.Relinked}, nil
		}

		n, _ := s.graph.Node(id)
		resp.Node = &n
		changes := make(map[string]any)
		switch res.Kind {
		case model.ActionLabel:
			changes["label"] = *a.Label
		case model.ActionStatus:
			changes["isComplete"] = *a.Complete
		}
		return events.TopicNodeUpdated, events.NodeUpdated{Node: n, Changes: changes}, nil
	})
	return resp, err
}

func (s *FlowServer) applyNodeChanges(ctx context.Context, actor string, changes []model.NodeChange) error {
	if len(changes) == 0 {
		return nil
	}
	return s.mutate(ctx, actor, func() (string, any, error) {
		if err := s.graph.ApplyNodeChanges(changes); err != nil {
			return "", nil, err
		}
		return events.TopicNodesChanged, events.NodesChanged{Changes: changes}, nil
	})
}

func (s *FlowServer) applyEdgeChanges(ctx context.Context, actor string, changes []model.EdgeChange) error {
	if len(changes) == 0 {
		return nil
	}
	return s.mutate(ctx, actor, func() (string, any, error) {
		if err := s.graph.ApplyEdgeChanges(changes); err != nil {
			return "", nil, err
		}
		return events.TopicEdgesChanged, events.EdgesChanged{Changes: changes}, nil
	})
}

// connect links two nodes. A duplicate connection returns the existing edge
// with created=false and commits nothing.
func (s *FlowServer) connect(ctx context.Context, actor string, c model.Connection) (model.Edge, bool, error) {
	var (
		e       model.Edge
		created bool
	)
	err := s.mutate(ctx, actor, func() (string, any, error) {
		var err error
		e, created, err = s.graph.Connect(c)
		if err != nil || !created {
			return "", nil, err
		}
		return events.TopicEdgeAdded, events.EdgeAdded{Edge: e}, nil
	})
	return e, created, err
}

func (s *FlowServer) connectEnd(ctx context.Context, actor string, in connectEndInput) (model.Node, model.Edge, error) {
	if in.Source == "" {
		return model.Node{}, model.Edge{}, inputError("source is required")
	}
	if in.Position == nil {
		return model.Node{}, model.Edge{}, inputError("position is required")
	}

	var (
		n model.Node
		e model.Edge
	)
	err := s.mutate(ctx, actor, func() (string, any, error) {
		var err error
		n, e, err = s.graph.ConnectToNew(in.Source, *in.Position)
		if err != nil {
			return "", nil, err
		}
		edge := e
		return events.TopicNodeAdded, events.NodeAdded{Node: n, Edge: &edge}, nil
	})
	return n, e, err
}

func (s *FlowServer) removeEdge(ctx context.Context, actor, id string) error {
	return s.mutate(ctx, actor, func() (string, any, error) {
		if !s.graph.RemoveEdge(id) {
			return "", nil, fmt.Errorf("%w: %s", graph.ErrEdgeNotFound, id)
		}
		return events.TopicEdgeRemoved, events.EdgeRemoved{EdgeID: id}, nil
	})
}

func (s *FlowServer) resetCompletion(ctx context.Context, actor string) int {
	var n int
	_ = s.mutate(ctx, actor, func() (string, any, error) {
		n = s.graph.ResetCompletion()
		return events.TopicFlowReset, events.FlowReset{Reset: n}, nil
	})
	return n
}

func (s *FlowServer) setViewport(ctx context.Context, actor string, v model.Viewport) error {
	return s.mutate(ctx, actor, func() (string, any, error) {
		if err := s.graph.SetViewport(v); err != nil {
			return "", nil, err
		}
		return events.TopicViewportChanged, events.ViewportChanged{Viewport: v}, nil
	})
}

// replaceFlow swaps the whole graph for f. source is recorded on the event.
func (s *FlowServer) replaceFlow(ctx context.Context, actor string, f model.Flow, source string) replaceResponse {
	var resp replaceResponse
	_ = s.mutate(ctx, actor, func() (string, any, error) {
		report := s.graph.Load(f)
		resp = replaceResponse{
			Stats:        s.graph.Snapshot().Stats(),
			DroppedNodes: report.DroppedNodes,
			DroppedEdges: report.DroppedEdges,
		}
		if !report.Empty() {
			s.logger.Warn("flow sanitized on load", "source", source,
				"dropped_nodes", report.DroppedNodes, "dropped_edges", report.DroppedEdges)
		}
		return events.TopicFlowReplaced, events.FlowReplaced{Stats: resp.Stats, Source: source}, nil
	})
	return resp
}

// restore reloads the graph from the last saved snapshot.
func (s *FlowServer) restore(ctx context.Context, actor string) replaceResponse {
	return s.replaceFlow(ctx, actor, s.persister.Restore(ctx), "restore")
}

// clearFlow empties the graph and deletes the saved snapshot, so the next
// start begins with an empty flow until something is edited.
func (s *FlowServer) clearFlow(ctx context.Context, actor string) model.FlowStats {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	removed := s.graph.Snapshot().Stats()
	s.graph.Load(model.EmptyFlow())
	s.commitWith(ctx, events.TopicFlowCleared, actor, events.FlowCleared{Removed: removed}, s.persister.ClearIn)
	s.presence.Record(actor, events.TopicFlowCleared)
	return removed
}
