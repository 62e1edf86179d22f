// Package client provides a transport-agnostic interface for the flowgraph
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/presence"
)

// FlowClient is the interface that all fg CLI commands use to communicate
// with the flow server.
type FlowClient interface {
	// Whole flow
	GetFlow(ctx context.Context) (*model.Flow, error)
	ExportFlow(ctx context.Context, format string) ([]byte, error)
	ReplaceFlow(ctx context.Context, data []byte, format string) (*ReplaceFlowResponse, error)
	Restore(ctx context.Context) (*ReplaceFlowResponse, error)
	ClearFlow(ctx context.Context) (*model.FlowStats, error)
	Stats(ctx context.Context) (*model.FlowStats, error)
	ResetCompletion(ctx context.Context) (int, error)
	SetViewport(ctx context.Context, v model.Viewport) (*model.Viewport, error)

	// Nodes
	ListNodes(ctx context.Context) ([]model.Node, error)
	ListActive(ctx context.Context) ([]model.Node, error)
	GetNode(ctx context.Context, id string) (*model.Node, error)
	AddNode(ctx context.Context, pos *model.Position) (*model.Node, error)
	UpdateNode(ctx context.Context, id string, req *UpdateNodeRequest) (*model.Node, error)
	DeleteNode(ctx context.Context, id string) error
	NodeAction(ctx context.Context, id string, action model.NodeAction) (*ActionResponse, error)
	ApplyNodeChanges(ctx context.Context, changes []model.NodeChange) error

	// Edges
	ListEdges(ctx context.Context) ([]model.Edge, error)
	Connect(ctx context.Context, source, target string) (edge *model.Edge, created bool, err error)
	ConnectEnd(ctx context.Context, source string, pos model.Position) (*model.Node, *model.Edge, error)
	RemoveEdge(ctx context.Context, id string) error
	ApplyEdgeChanges(ctx context.Context, changes []model.EdgeChange) error

	// Events
	ListEvents(ctx context.Context, after int64, limit int) ([]*model.Event, error)

	// Presence
	Presence(ctx context.Context, within time.Duration) ([]presence.Entry, error)

	// Health
	Health(ctx context.Context) (*Health, error)

	// Lifecycle
	Close() error
}

// UpdateNodeRequest holds optional node fields. Nil means "don't change".
type UpdateNodeRequest struct {
	Label    *string `json:"label,omitempty"`
	Complete *bool   `json:"complete,omitempty"`
}

// ActionResponse is the response from NodeAction. Node is nil after a delete.
type ActionResponse struct {
	Action   model.ActionKind `json:"action"`
	NodeID   string           `json:"node_id"`
	Node     *model.Node      `json:"node,omitempty"`
	Relinked []model.Edge     `json:"relinked,omitempty"`
}

// Health is the server's report on itself and the flow it serves.
type Health struct {
	Status  string          `json:"status"`
	FlowKey string          `json:"flow_key"`
	Saved   bool            `json:"saved"`
	Stats   model.FlowStats `json:"stats"`
	Error   string          `json:"error,omitempty"`
}

// OK reports whether the server can save edits.
func (h *Health) OK() bool { return h.Status == "ok" }

// ReplaceFlowResponse is the response from ReplaceFlow and Restore.
type ReplaceFlowResponse struct {
	Stats        model.FlowStats `json:"stats"`
	DroppedNodes int             `json:"dropped_nodes"`
	DroppedEdges int             `json:"dropped_edges"`
}
