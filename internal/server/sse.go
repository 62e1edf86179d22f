package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/events"
)

const (
	// streamBacklog is how many committed events are kept for
	// Last-Event-ID replay.
	streamBacklog = 1000

	// streamBuffer is the per-subscriber channel size. A subscriber that
	// falls this far behind starts losing events.
	streamBuffer = 64

	streamKeepalive = 15 * time.Second
)

// streamEvent is one committed flow event as sent to SSE subscribers.
// Seq is the SSE id; it starts at 1 for each server process.
type streamEvent struct {
	Seq   uint64
	Topic string
	Data  []byte
}

// backlog is a fixed-capacity ring of recent events, oldest first.
type backlog struct {
	events []streamEvent
	start  int
	n      int
}

func newBacklog(capacity int) backlog {
	return backlog{events: make([]streamEvent, capacity)}
}

func (b *backlog) add(e streamEvent) {
	if b.n < len(b.events) {
		b.events[(b.start+b.n)%len(b.events)] = e
		b.n++
		return
	}
	b.events[b.start] = e
	b.start = (b.start + 1) % len(b.events)
}

// since copies out the events with Seq > after. complete is false when
// some of those events were already evicted, or when after lies beyond
// head (a cursor from an earlier server process).
func (b *backlog) since(after, head uint64) (out []streamEvent, complete bool) {
	if after > head {
		return nil, false
	}
	if after == head {
		return nil, true
	}
	if b.n == 0 || b.events[b.start].Seq > after+1 {
		return nil, false
	}
	for i := range b.n {
		e := b.events[(b.start+i)%len(b.events)]
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out, true
}

// topicFilter holds NATS-style topic patterns; empty matches everything.
// "*" matches one segment and a trailing ">" matches the rest.
type topicFilter []string

func parseTopicFilter(raw string) topicFilter {
	var f topicFilter
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			f = append(f, t)
		}
	}
	return f
}

func (f topicFilter) match(topic string) bool {
	if len(f) == 0 {
		return true
	}
	for _, pattern := range f {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

func matchTopicPattern(pattern, topic string) bool {
	pat := strings.Split(pattern, ".")
	top := strings.Split(topic, ".")
	for i, p := range pat {
		switch {
		case p == ">":
			return i < len(top)
		case i >= len(top):
			return false
		case p != "*" && p != top[i]:
			return false
		}
	}
	return len(pat) == len(top)
}

type subscriber struct {
	filter topicFilter
	ch     chan streamEvent
}

// flowStream fans committed flow events out to SSE subscribers and keeps a
// backlog for reconnects. Events are handed out by value.
type flowStream struct {
	mu   sync.Mutex
	head uint64
	log  backlog
	subs map[*subscriber]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func newFlowStream() *flowStream {
	return &flowStream{
		log:  newBacklog(streamBacklog),
		subs: make(map[*subscriber]struct{}),
		done: make(chan struct{}),
	}
}

// close ends every open stream. It is safe to call more than once.
func (fs *flowStream) close() {
	fs.closeOnce.Do(func() { close(fs.done) })
}

// broadcast assigns the next sequence number to a committed event and
// delivers it to matching subscribers without blocking.
func (fs *flowStream) broadcast(topic string, payload []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.head++
	e := streamEvent{Seq: fs.head, Topic: topic, Data: payload}
	fs.log.add(e)
	for sub := range fs.subs {
		if !sub.filter.match(topic) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
		}
	}
}

// attachment is what a new subscriber starts from. Every event later sent
// on sub.ch has Seq > head.
type attachment struct {
	sub *subscriber
	// replay holds the missed events when the cursor could be resumed.
	replay []streamEvent
	// resync is set when the cursor could not be resumed and the
	// subscriber needs the whole flow.
	resync bool
	head   uint64
}

// attach registers a subscriber. A nil cursor means a fresh connection with
// nothing to replay.
func (fs *flowStream) attach(filter topicFilter, cursor *uint64) attachment {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sub := &subscriber{filter: filter, ch: make(chan streamEvent, streamBuffer)}
	fs.subs[sub] = struct{}{}
	a := attachment{sub: sub, head: fs.head}
	if cursor != nil {
		evts, complete := fs.log.since(*cursor, fs.head)
		if complete {
			for _, e := range evts {
				if filter.match(e.Topic) {
					a.replay = append(a.replay, e)
				}
			}
		} else {
			a.resync = true
		}
	}
	return a
}

func (fs *flowStream) detach(sub *subscriber) {
	fs.mu.Lock()
	delete(fs.subs, sub)
	fs.mu.Unlock()
}

// openStream attaches a subscriber and, when asked for or needed, takes a
// snapshot event that matches the attachment head. commitMu keeps the
// snapshot and head in step with the commit path.
func (s *FlowServer) openStream(filter topicFilter, cursor *uint64, wantSnapshot bool) (attachment, *streamEvent) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	a := s.stream.attach(filter, cursor)
	if !a.resync && !wantSnapshot {
		return a, nil
	}
	f := s.graph.Snapshot()
	data, err := json.Marshal(events.FlowSnapshot{Flow: f, Stats: f.Stats()})
	if err != nil {
		s.logger.Warn("failed to marshal flow snapshot", "error", err)
		return a, nil
	}
	return a, &streamEvent{Seq: a.head, Topic: events.TopicFlowSnapshot, Data: data}
}

// handleEventStream handles GET /v1/events/stream.
//
// Query parameters: topics (comma-separated patterns) and snapshot=true to
// start with the whole flow. A Last-Event-ID header resumes from the
// backlog; when that is not possible the stream starts with a flow.snapshot
// event instead.
func (s *FlowServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	q := r.URL.Query()
	var cursor *uint64
	if raw := r.Header.Get("Last-Event-ID"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			cursor = &id
		}
	}
	wantSnapshot, _ := strconv.ParseBool(q.Get("snapshot"))

	a, snap := s.openStream(parseTopicFilter(q.Get("topics")), cursor, wantSnapshot)
	defer s.stream.detach(a.sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	last := a.head
	if snap != nil {
		writeStreamEvent(w, *snap)
	}
	for _, e := range a.replay {
		writeStreamEvent(w, e)
	}
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.stream.done:
			return
		case e := <-a.sub.ch:
			if e.Seq <= last {
				continue
			}
			last = e.Seq
			writeStreamEvent(w, e)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, e streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", e.Seq, e.Topic, e.Data)
}
