package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	flows   map[string]*model.SavedFlow
	events  []*model.Event
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{flows: make(map[string]*model.SavedFlow)}
}

// put stores raw under key with a fixed timestamp.
func (m *mockStore) put(key, raw string) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.flows[key] = &model.SavedFlow{Key: key, Value: json.RawMessage(raw), CreatedAt: now, UpdatedAt: now}
}

func (m *mockStore) SaveFlow(_ context.Context, f *model.SavedFlow) error {
	m.flows[f.Key] = f
	return nil
}

func (m *mockStore) GetFlow(_ context.Context, key string) (*model.SavedFlow, error) {
	f, ok := m.flows[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f, nil
}

// ListFlows returns flows in map order so the exporter's sort is exercised.
func (m *mockStore) ListFlows(_ context.Context) ([]*model.SavedFlow, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.SavedFlow, 0, len(m.flows))
	for _, f := range m.flows {
		out = append(out, f)
	}
	return out, nil
}

func (m *mockStore) DeleteFlow(_ context.Context, key string) error {
	if _, ok := m.flows[key]; !ok {
		return sql.ErrNoRows
	}
	delete(m.flows, key)
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, e *model.Event) error {
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, e)
	return nil
}

func (m *mockStore) ListEvents(_ context.Context, flowKey string, afterID int64, limit int) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range m.events {
		if e.FlowKey == flowKey && e.ID > afterID {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

var errListFailed = errors.New("list failed")
