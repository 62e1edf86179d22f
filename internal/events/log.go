package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes each flow event to a logger as an activity line.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher returns a publisher that logs to logger at Info.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.logger.InfoContext(ctx, "flow event", append([]any{"topic", topic}, eventAttrs(event)...)...)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// eventAttrs picks the fields worth a log line from a flow event.
func eventAttrs(event any) []any {
	switch e := event.(type) {
	case NodeAdded:
		attrs := []any{"node", e.Node.ID, "label", e.Node.Data.Label}
		if e.Edge != nil {
			attrs = append(attrs, "after", e.Edge.Source)
		}
		return attrs
	case NodeUpdated:
		return []any{"node", e.Node.ID, "complete", e.Node.Data.IsComplete, "active", e.Node.Data.IsActive}
	case NodeDeleted:
		return []any{"node", e.NodeID, "relinked", len(e.Relinked)}
	case EdgeAdded:
		return []any{"edge", e.Edge.ID, "source", e.Edge.Source, "target", e.Edge.Target}
	case EdgeRemoved:
		return []any{"edge", e.EdgeID}
	case NodesChanged:
		return []any{"changes", len(e.Changes)}
	case EdgesChanged:
		return []any{"changes", len(e.Changes)}
	case FlowReset:
		return []any{"reset", e.Reset}
	case FlowReplaced:
		return []any{"source", e.Source, "nodes", e.Stats.TotalNodes, "edges", e.Stats.TotalEdges}
	case FlowCleared:
		return []any{"removed_nodes", e.Removed.TotalNodes, "removed_edges", e.Removed.TotalEdges}
	case ViewportChanged:
		return []any{"x", e.Viewport.X, "y", e.Viewport.Y, "zoom", e.Viewport.Zoom}
	}
	return nil
}
