// Package persist saves flow snapshots to a store under a fixed key and
// restores them at startup.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/flowgraph/internal/codec"
	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/store"
)

// DefaultKey is the key flows are saved under unless configured otherwise.
const DefaultKey = "react-flow-persistence"

// Persister writes and reads one flow snapshot.
type Persister struct {
	store  store.Store
	key    string
	logger *slog.Logger
}

// New creates a Persister. An empty key selects DefaultKey.
func New(s store.Store, key string, logger *slog.Logger) *Persister {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{store: s, key: key, logger: logger}
}

// Key returns the persistence key.
func (p *Persister) Key() string {
	return p.key
}

// Encode serializes f into a SavedFlow under the persistence key.
func (p *Persister) Encode(f model.Flow) (*model.SavedFlow, error) {
	data, err := codec.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode flow: %w", err)
	}
	return &model.SavedFlow{Key: p.key, Value: json.RawMessage(data)}, nil
}

// Save writes f to the store, replacing any previous snapshot.
func (p *Persister) Save(ctx context.Context, f model.Flow) error {
	return p.SaveTo(ctx, p.store, f)
}

// SaveTo writes f using s, which may be a transaction store.
func (p *Persister) SaveTo(ctx context.Context, s store.Store, f model.Flow) error {
	saved, err := p.Encode(f)
	if err != nil {
		return err
	}
	if err := s.SaveFlow(ctx, saved); err != nil {
		return fmt.Errorf("save flow %q: %w", p.key, err)
	}
	return nil
}

// ClearIn removes the saved snapshot using s, which may be a transaction
// store. Clearing an absent snapshot is not an error.
func (p *Persister) ClearIn(ctx context.Context, s store.Store) error {
	if err := s.DeleteFlow(ctx, p.key); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete flow %q: %w", p.key, err)
	}
	return nil
}

// Restore reads the saved snapshot. An absent, unreadable or malformed
// snapshot yields an empty flow; Restore never fails.
func (p *Persister) Restore(ctx context.Context) model.Flow {
	saved, err := p.store.GetFlow(ctx, p.key)
	if errors.Is(err, sql.ErrNoRows) {
		p.logger.Info("no saved flow, starting empty", "key", p.key)
		return model.EmptyFlow()
	}
	if err != nil {
		p.logger.Warn("failed to read saved flow, starting empty", "key", p.key, "err", err)
		return model.EmptyFlow()
	}

	f, err := codec.Unmarshal(saved.Value)
	if err != nil {
		p.logger.Warn("saved flow is malformed, starting empty", "key", p.key, "err", err)
		return model.EmptyFlow()
	}
	return f
}
