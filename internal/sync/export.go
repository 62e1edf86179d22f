package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/codec"
	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	FlowCount int       `json:"flow_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// flowRecord is one saved flow. Stats is omitted when the stored value
// does not decode.
type flowRecord struct {
	Key       string           `json:"key"`
	Flow      json.RawMessage  `json:"flow"`
	Stats     *model.FlowStats `json:"stats,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Summary describes what one export contained.
type Summary struct {
	Flows int
	// Undecoded counts flows whose stored value is not a readable flow.
	// They are exported as-is and left out of Totals.
	Undecoded int
	Totals    model.FlowStats
	// Digest covers the flow lines only, so it stays the same across
	// exports until a saved flow changes.
	Digest string
}

// String renders the summary for commit messages and logs, e.g.
// "2 flows: 5 nodes (1 complete, 2 active), 4 edges".
func (s Summary) String() string {
	flows := "flows"
	if s.Flows == 1 {
		flows = "flow"
	}
	out := fmt.Sprintf("%d %s: %d nodes (%d complete, %d active), %d edges",
		s.Flows, flows, s.Totals.TotalNodes, s.Totals.TotalComplete, s.Totals.TotalActive, s.Totals.TotalEdges)
	if s.Undecoded > 0 {
		out += fmt.Sprintf(", %d unreadable", s.Undecoded)
	}
	return out
}

// ExportJSONL writes every saved flow in the store as JSONL to w, sorted by
// key and preceded by a header line.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) (Summary, error) {
	flows, err := s.ListFlows(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list flows: %w", err)
	}
	sort.Slice(flows, func(i, j int) bool {
		return flows[i].Key < flows[j].Key
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		FlowCount: len(flows),
	}); err != nil {
		return Summary{}, fmt.Errorf("encode header: %w", err)
	}

	sum := Summary{Flows: len(flows)}
	digest := sha256.New()
	flowEnc := json.NewEncoder(io.MultiWriter(w, digest))
	flowEnc.SetEscapeHTML(false)
	for _, f := range flows {
		rec := flowRecord{Key: f.Key, Flow: f.Value, UpdatedAt: f.UpdatedAt}
		if decoded, err := codec.Unmarshal(f.Value); err == nil {
			stats := decoded.Stats()
			rec.Stats = &stats
			sum.Totals = addStats(sum.Totals, stats)
		} else {
			sum.Undecoded++
		}
		if err := flowEnc.Encode(record{Type: "flow", Data: rec}); err != nil {
			return Summary{}, fmt.Errorf("encode flow %s: %w", f.Key, err)
		}
	}
	sum.Digest = hex.EncodeToString(digest.Sum(nil))
	return sum, nil
}

func addStats(a, b model.FlowStats) model.FlowStats {
	return model.FlowStats{
		TotalNodes:    a.TotalNodes + b.TotalNodes,
		TotalEdges:    a.TotalEdges + b.TotalEdges,
		TotalActive:   a.TotalActive + b.TotalActive,
		TotalComplete: a.TotalComplete + b.TotalComplete,
	}
}
