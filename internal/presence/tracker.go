// Package presence tracks which actors have recently edited the flow.
//
// The server records the actor of every committed mutation. A background
// sweeper marks editors idle after a quiet period and later forgets them.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Entry is one editor's presence state.
type Entry struct {
	Actor     string    `json:"actor"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	LastTopic string    `json:"last_topic"` // e.g. "flow.node.updated"
	Edits     int64     `json:"edits"`
	IdleSecs  float64   `json:"idle_secs"`
	Idle      bool      `json:"idle,omitempty"`
}

// SweepConfig configures the background sweeper.
type SweepConfig struct {
	// IdleAfter is how long an editor may be quiet before being marked idle.
	// Default: 10 minutes.
	IdleAfter time.Duration

	// EvictAfter is how long an idle editor is kept before being forgotten.
	// Default: 1 hour.
	EvictAfter time.Duration

	// Interval is how often the sweeper runs. Default: 1 minute.
	Interval time.Duration
}

func (c *SweepConfig) withDefaults() SweepConfig {
	out := SweepConfig{}
	if c != nil {
		out = *c
	}
	if out.IdleAfter == 0 {
		out.IdleAfter = 10 * time.Minute
	}
	if out.EvictAfter == 0 {
		out.EvictAfter = time.Hour
	}
	if out.Interval == 0 {
		out.Interval = time.Minute
	}
	return out
}

// Tracker maintains an in-memory roster of editors.
type Tracker struct {
	mu      sync.RWMutex
	editors map[string]*editorState
	now     func() time.Time
	logger  *slog.Logger

	sweepStop chan struct{}
	sweepDone chan struct{}
}

type editorState struct {
	firstSeen time.Time
	lastSeen  time.Time
	lastTopic string
	edits     int64
	idle      bool
	idleAt    time.Time
}

// New creates an empty tracker.
func New(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		editors: make(map[string]*editorState),
		now:     time.Now,
		logger:  logger,
	}
}

// Record notes that actor committed a mutation published on topic.
// Empty actors are ignored.
func (t *Tracker) Record(actor, topic string) {
	if actor == "" {
		return
	}

	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.editors[actor]
	if !ok {
		st = &editorState{firstSeen: now}
		t.editors[actor] = st
	}
	if st.idle {
		t.logger.Debug("presence: editor returned", "actor", actor)
		st.idle = false
		st.idleAt = time.Time{}
	}
	st.lastSeen = now
	st.lastTopic = topic
	st.edits++
}

// Roster returns the known editors, most recently active first. Editors
// quiet for longer than within are left out; zero includes everyone.
func (t *Tracker) Roster(within time.Duration) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	entries := make([]Entry, 0, len(t.editors))
	for actor, st := range t.editors {
		quiet := now.Sub(st.lastSeen)
		if within > 0 && quiet > within {
			continue
		}
		entries = append(entries, Entry{
			Actor:     actor,
			FirstSeen: st.firstSeen,
			LastSeen:  st.lastSeen,
			LastTopic: st.lastTopic,
			Edits:     st.edits,
			IdleSecs:  quiet.Seconds(),
			Idle:      st.idle,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastSeen.Equal(entries[j].LastSeen) {
			return entries[i].Actor < entries[j].Actor
		}
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries
}

// StartSweeper launches the background sweeper. Call Stop to end it.
func (t *Tracker) StartSweeper(cfg *SweepConfig) {
	c := cfg.withDefaults()
	t.sweepStop = make(chan struct{})
	t.sweepDone = make(chan struct{})

	go t.sweepLoop(c)
	t.logger.Info("presence: sweeper started", "idle_after", c.IdleAfter, "interval", c.Interval)
}

// Stop shuts down the sweeper if it is running.
func (t *Tracker) Stop() {
	if t.sweepStop != nil {
		close(t.sweepStop)
		<-t.sweepDone
		t.sweepStop = nil
		t.sweepDone = nil
	}
}

func (t *Tracker) sweepLoop(c SweepConfig) {
	defer close(t.sweepDone)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.sweepStop:
			return
		case <-ticker.C:
			t.sweep(c)
		}
	}
}

// sweep marks quiet editors idle and forgets long-idle ones.
func (t *Tracker) sweep(c SweepConfig) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for actor, st := range t.editors {
		if st.idle {
			if now.Sub(st.idleAt) > c.EvictAfter {
				delete(t.editors, actor)
			}
			continue
		}
		if now.Sub(st.lastSeen) > c.IdleAfter {
			st.idle = true
			st.idleAt = now
			t.logger.Debug("presence: editor idle", "actor", actor)
		}
	}
}
