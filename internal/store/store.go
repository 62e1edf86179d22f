// Package store defines the persistence interface for saved flows and their
// event history. Implementations live in subpackages.
package store

import (
	"context"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// Store persists flow snapshots by key. Lookups of a missing key return
// sql.ErrNoRows.
type Store interface {
	// Flows
	SaveFlow(ctx context.Context, flow *model.SavedFlow) error
	GetFlow(ctx context.Context, key string) (*model.SavedFlow, error)
	ListFlows(ctx context.Context) ([]*model.SavedFlow, error)
	DeleteFlow(ctx context.Context, key string) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	ListEvents(ctx context.Context, flowKey string, afterID int64, limit int) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
