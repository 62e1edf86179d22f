package events

import (
	"context"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// Event topic constants
const (
	TopicNodeAdded       = "flow.node.added"
	TopicNodeUpdated     = "flow.node.updated"
	TopicNodeDeleted     = "flow.node.deleted"
	TopicEdgeAdded       = "flow.edge.added"
	TopicEdgeRemoved     = "flow.edge.removed"
	TopicNodesChanged    = "flow.nodes.changed"
	TopicEdgesChanged    = "flow.edges.changed"
	TopicFlowReset       = "flow.reset"
	TopicFlowReplaced    = "flow.replaced"
	TopicFlowCleared     = "flow.cleared"
	TopicViewportChanged = "flow.viewport.changed"

	// TopicFlowSnapshot carries the whole flow. It is only sent on SSE
	// streams, never published.
	TopicFlowSnapshot = "flow.snapshot"

	// TopicAll matches every flow topic (NATS wildcard syntax).
	TopicAll = "flow.>"
)

// Event types

type NodeAdded struct {
	Node model.Node `json:"node"`
	// Edge is set when the node was created by dropping a connection on
	// empty canvas.
	Edge *model.Edge `json:"edge,omitempty"`
}

type NodeUpdated struct {
	Node    model.Node     `json:"node"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

type NodeDeleted struct {
	NodeID   string       `json:"node_id"`
	Relinked []model.Edge `json:"relinked,omitempty"`
}

type EdgeAdded struct {
	Edge model.Edge `json:"edge"`
}

type EdgeRemoved struct {
	EdgeID string `json:"edge_id"`
}

type NodesChanged struct {
	Changes []model.NodeChange `json:"changes"`
}

type EdgesChanged struct {
	Changes []model.EdgeChange `json:"changes"`
}

type FlowReset struct {
	Reset int `json:"reset"`
}

type FlowReplaced struct {
	Stats model.FlowStats `json:"stats"`
	// Source names where the new flow came from ("import" or "restore").
	Source string `json:"source"`
}

// FlowCleared reports what the cleared flow held.
type FlowCleared struct {
	Removed model.FlowStats `json:"removed"`
}

type FlowSnapshot struct {
	Flow  model.Flow      `json:"flow"`
	Stats model.FlowStats `json:"stats"`
}

type ViewportChanged struct {
	Viewport model.Viewport `json:"viewport"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
