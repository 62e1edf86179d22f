package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/flowgraph/internal/events"
	"github.com/alfredjeanlab/flowgraph/internal/graph"
	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/persist"
	"github.com/alfredjeanlab/flowgraph/internal/presence"
	"github.com/alfredjeanlab/flowgraph/internal/store"
)

// FlowServer serves one flow graph over HTTP. Every mutation goes through
// commit, which saves the settled snapshot and fans the event out.
type FlowServer struct {
	graph      *graph.Graph
	dispatcher *graph.Dispatcher
	persister  *persist.Persister
	store      store.Store
	publisher  events.Publisher
	stream     *flowStream
	presence   *presence.Tracker
	logger     *slog.Logger

	// commitMu serializes mutate+save so snapshots reach the store in
	// mutation order.
	commitMu sync.Mutex
}

// NewFlowServer returns a FlowServer for g. Snapshots are written through p
// inside a transaction on s; events go to pub (which may be nil) and to the
// SSE stream.
func NewFlowServer(g *graph.Graph, p *persist.Persister, s store.Store, pub events.Publisher, logger *slog.Logger) *FlowServer {
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowServer{
		graph:      g,
		dispatcher: graph.NewDispatcher(g),
		persister:  p,
		store:      s,
		publisher:  pub,
		stream:     newFlowStream(),
		presence:   presence.New(logger),
		logger:     logger,
	}
}

// Presence returns the tracker of recent editors.
func (s *FlowServer) Presence() *presence.Tracker {
	return s.presence
}

// Close ends open event streams and stops the presence sweeper.
func (s *FlowServer) Close() {
	s.stream.close()
	s.presence.Stop()
}

// mutation runs one graph change. It returns the topic and payload to
// commit; an empty topic means nothing changed.
type mutation func() (topic string, event any, err error)

// mutate runs fn and commits its result while holding commitMu.
func (s *FlowServer) mutate(ctx context.Context, actor string, fn mutation) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	topic, event, err := fn()
	if err != nil {
		return err
	}
	if topic != "" {
		s.commit(ctx, topic, actor, event)
		s.presence.Record(actor, topic)
	}
	return nil
}

// commit saves the current snapshot together with an event record, then
// publishes the event to NATS and SSE. Every step is best-effort; failures
// are logged and the in-memory mutation stands.
func (s *FlowServer) commit(ctx context.Context, topic, actor string, event any) {
	snap := s.graph.Snapshot()
	s.commitWith(ctx, topic, actor, event, func(ctx context.Context, tx store.Store) error {
		return s.persister.SaveTo(ctx, tx, snap)
	})
}

// commitWith is commit with a caller-chosen write in place of the snapshot
// save. It runs in the same transaction as the event record.
func (s *FlowServer) commitWith(ctx context.Context, topic, actor string, event any, write func(context.Context, store.Store) error) {
	// The snapshot must land even if the caller hangs up.
	ctx = context.WithoutCancel(ctx)

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", "topic", topic, "error", err)
		return
	}

	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := write(ctx, tx); err != nil {
			return err
		}
		return tx.RecordEvent(ctx, &model.Event{
			Topic:   topic,
			FlowKey: s.persister.Key(),
			Actor:   actor,
			Payload: payload,
		})
	})
	if err != nil {
		s.logger.Warn("failed to persist flow", "topic", topic, "key", s.persister.Key(), "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
	s.stream.broadcast(topic, payload)
}

// inputError indicates invalid user input.
// The HTTP layer maps this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
