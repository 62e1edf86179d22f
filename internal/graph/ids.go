package graph

import (
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/flowgraph/internal/idgen"
)

// nextNodeIDLocked returns a fresh numeric node id and advances the
// high-water mark. Ids freed by deletion are never handed out again while
// the graph lives.
func (g *Graph) nextNodeIDLocked() string {
	hw := g.highWater
	for _, n := range g.nodes {
		if v, err := strconv.Atoi(n.ID); err == nil && v > hw {
			hw = v
		}
	}
	for {
		hw++
		id := strconv.Itoa(hw)
		if g.nodeIndexLocked(id) < 0 {
			g.highWater = hw
			return id
		}
	}
}

// observeNodeIDLocked raises the high-water mark past a numeric id.
func (g *Graph) observeNodeIDLocked(id string) {
	if v, err := strconv.Atoi(id); err == nil && v > g.highWater {
		g.highWater = v
	}
}

// newEdgeIDLocked returns an edge id not used by any current edge or by
// the pending edges of the mutation in progress.
func (g *Graph) newEdgeIDLocked(source, target string, pending []string) string {
	taken := func(id string) bool {
		for _, p := range pending {
			if p == id {
				return true
			}
		}
		return g.edgeIndexLocked(id) >= 0
	}
	id, err := g.edgeIDs(taken)
	if err == nil {
		return id
	}
	// Random source failed; fall back to a readable id derived from the
	// endpoints, which are unique per pair.
	id = fmt.Sprintf("e%s-%s", source, target)
	for i := 2; taken(id); i++ {
		id = fmt.Sprintf("e%s-%s-%d", source, target, i)
	}
	return id
}

// defaultEdgeIDs is the production edge id source.
func defaultEdgeIDs(taken func(string) bool) (string, error) {
	return idgen.GenerateUnique(taken)
}
