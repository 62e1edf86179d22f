package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

func TestNoopPublisher_Publish(t *testing.T) {
	pub := &NoopPublisher{}
	if err := pub.Publish(context.Background(), TopicNodeAdded, NodeAdded{}); err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestPublishersImplementPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
	var _ Publisher = (*NATSPublisher)(nil)
	var _ Publisher = MultiPublisher(nil)
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url, "react-flow-persistence")
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(TopicNodeAdded, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	event := NodeAdded{Node: model.NewNode("4", model.Position{X: 1, Y: 2})}
	if err := pub.Publish(context.Background(), TopicNodeAdded, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	pub.Flush()

	select {
	case msg := <-ch:
		var got NodeAdded
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Node.ID != "4" || got.Node.Data.Label != "Node 4" {
			t.Errorf("got node %+v", got.Node)
		}
		if key := msg.Header.Get(HeaderFlowKey); key != "react-flow-persistence" {
			t.Errorf("flow key header = %q", key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	url := startTestNATS(t)
	pub, err := NewNATSPublisher(url, "")
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, TopicFlowReset, FlowReset{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish error = %v, want context.Canceled", err)
	}
}

func TestNATSPublisher_PublishMultipleTopics(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url, "k")
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting subscriber: %v", err)
	}
	defer nc.Close()

	ch := make(chan *nats.Msg, 4)
	sub, err := nc.ChanSubscribe(TopicAll, ch)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer sub.Unsubscribe() //nolint:errcheck
	nc.Flush()

	for _, tc := range []struct {
		topic string
		event any
	}{
		{TopicEdgeAdded, EdgeAdded{Edge: model.Edge{ID: "e-1", Source: "1", Target: "2"}}},
		{TopicNodeDeleted, NodeDeleted{NodeID: "2"}},
		{TopicFlowReset, FlowReset{Reset: 3}},
		{TopicViewportChanged, ViewportChanged{Viewport: model.DefaultViewport}},
	} {
		if err := pub.Publish(context.Background(), tc.topic, tc.event); err != nil {
			t.Fatalf("Publish(%s): %v", tc.topic, err)
		}
	}
	pub.Flush()

	want := []string{TopicEdgeAdded, TopicNodeDeleted, TopicFlowReset, TopicViewportChanged}
	for i := range want {
		select {
		case msg := <-ch:
			if msg.Subject != want[i] {
				t.Errorf("message %d subject = %q, want %q", i, msg.Subject, want[i])
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

// recordingPublisher remembers published topics and can fail on demand.
type recordingPublisher struct {
	topics []string
	err    error
	closed bool
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	r.topics = append(r.topics, topic)
	return r.err
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return r.err
}

func TestMultiPublisher(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{err: errors.New("b down")}
	c := &recordingPublisher{}
	m := Multi(a, nil, b, c)
	if len(m) != 3 {
		t.Fatalf("Multi kept %d publishers, want 3", len(m))
	}

	err := m.Publish(context.Background(), TopicFlowReset, FlowReset{})
	if err == nil || err.Error() != "b down" {
		t.Fatalf("Publish error = %v, want b down", err)
	}
	for name, p := range map[string]*recordingPublisher{"a": a, "b": b, "c": c} {
		if len(p.topics) != 1 {
			t.Errorf("publisher %s saw %d events, want 1", name, len(p.topics))
		}
	}

	if err := m.Close(); err == nil {
		t.Error("Close should report b's error")
	}
	if !a.closed || !c.closed {
		t.Error("every publisher should be closed")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	m := Multi(NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil))), &recordingPublisher{})

	ctx := context.Background()
	_ = m.Publish(ctx, TopicNodeAdded, NodeAdded{
		Node: model.Node{ID: "3", Data: model.NodeData{Label: "Ship"}},
		Edge: &model.Edge{ID: "e-abc", Source: "2", Target: "3"},
	})
	_ = m.Publish(ctx, TopicNodeDeleted, NodeDeleted{NodeID: "2", Relinked: []model.Edge{{ID: "e-x"}}})
	_ = m.Publish(ctx, TopicFlowCleared, FlowCleared{Removed: model.FlowStats{TotalNodes: 4}})

	out := buf.String()
	for _, want := range []string{
		"topic=flow.node.added node=3 label=Ship after=2",
		"topic=flow.node.deleted node=2 relinked=1",
		"topic=flow.cleared removed_nodes=4 removed_edges=0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
