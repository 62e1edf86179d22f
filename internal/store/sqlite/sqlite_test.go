package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/store"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := &model.SavedFlow{Key: "react-flow-persistence", Value: json.RawMessage(`{"nodes":[]}`)}
	if err := s.SaveFlow(ctx, f); err != nil {
		t.Fatalf("SaveFlow: %v", err)
	}
	if f.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	got, err := s.GetFlow(ctx, "react-flow-persistence")
	if err != nil {
		t.Fatalf("GetFlow: %v", err)
	}
	if string(got.Value) != `{"nodes":[]}` {
		t.Errorf("value = %s", got.Value)
	}
}

func TestSaveFlow_UpsertKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	later := first.Add(time.Hour)

	s.now = func() time.Time { return first }
	if err := s.SaveFlow(ctx, &model.SavedFlow{Key: "k", Value: json.RawMessage(`1`)}); err != nil {
		t.Fatalf("SaveFlow: %v", err)
	}
	s.now = func() time.Time { return later }
	f := &model.SavedFlow{Key: "k", Value: json.RawMessage(`2`)}
	if err := s.SaveFlow(ctx, f); err != nil {
		t.Fatalf("SaveFlow: %v", err)
	}

	if !f.CreatedAt.Equal(first) {
		t.Errorf("created_at = %v, want %v", f.CreatedAt, first)
	}
	if !f.UpdatedAt.Equal(later) {
		t.Errorf("updated_at = %v, want %v", f.UpdatedAt, later)
	}
	got, _ := s.GetFlow(ctx, "k")
	if string(got.Value) != "2" {
		t.Errorf("value = %s, want 2", got.Value)
	}
}

func TestGetFlow_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetFlow(context.Background(), "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListAndDeleteFlows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"b", "a"} {
		if err := s.SaveFlow(ctx, &model.SavedFlow{Key: key, Value: json.RawMessage(`{}`)}); err != nil {
			t.Fatalf("SaveFlow(%s): %v", key, err)
		}
	}

	flows, err := s.ListFlows(ctx)
	if err != nil {
		t.Fatalf("ListFlows: %v", err)
	}
	if len(flows) != 2 || flows[0].Key != "a" || flows[1].Key != "b" {
		t.Fatalf("unexpected flows: %+v", flows)
	}

	if err := s.DeleteFlow(ctx, "a"); err != nil {
		t.Fatalf("DeleteFlow: %v", err)
	}
	if err := s.DeleteFlow(ctx, "a"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second DeleteFlow: expected sql.ErrNoRows, got %v", err)
	}
}

func TestRecordAndListEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, topic := range []string{"flow.node.added", "flow.edge.added", "flow.reset"} {
		e := &model.Event{Topic: topic, FlowKey: "k", Payload: json.RawMessage(`{"x":1}`)}
		if err := s.RecordEvent(ctx, e); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
		if e.ID == 0 {
			t.Fatal("expected id to be assigned")
		}
	}
	if err := s.RecordEvent(ctx, &model.Event{Topic: "flow.reset", FlowKey: "other", Actor: "bob"}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	all, err := s.ListEvents(ctx, "k", 0, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}

	after, err := s.ListEvents(ctx, "k", all[0].ID, 1)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(after) != 1 || after[0].Topic != "flow.edge.added" {
		t.Fatalf("unexpected page: %+v", after)
	}

	other, _ := s.ListEvents(ctx, "other", 0, 10)
	if len(other) != 1 || other[0].Actor != "bob" || string(other[0].Payload) != "{}" {
		t.Fatalf("unexpected other events: %+v", other)
	}
}

func TestRunInTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.SaveFlow(ctx, &model.SavedFlow{Key: "k", Value: json.RawMessage(`{}`)}); err != nil {
			return err
		}
		return tx.RecordEvent(ctx, &model.Event{Topic: "flow.reset", FlowKey: "k"})
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if _, err := s.GetFlow(ctx, "k"); err != nil {
		t.Fatalf("committed flow missing: %v", err)
	}

	boom := errors.New("boom")
	err = s.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.SaveFlow(ctx, &model.SavedFlow{Key: "rolled-back", Value: json.RawMessage(`{}`)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetFlow(ctx, "rolled-back"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("rolled back flow should be absent, got %v", err)
	}
}
