package graph

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// newTestGraph returns a graph whose edge ids are e1, e2, ... in creation
// order.
func newTestGraph() *Graph {
	g := New()
	var seq int
	g.edgeIDs = func(taken func(string) bool) (string, error) {
		for {
			seq++
			id := fmt.Sprintf("e%d", seq)
			if !taken(id) {
				return id, nil
			}
		}
	}
	return g
}

func addNodes(t *testing.T, g *Graph, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = g.AddNode(nil).ID
	}
	return ids
}

func mustConnect(t *testing.T, g *Graph, source, target string) model.Edge {
	t.Helper()
	e, _, err := g.Connect(model.Connection{Source: source, Target: target})
	if err != nil {
		t.Fatalf("Connect(%s, %s): %v", source, target, err)
	}
	return e
}

type pair struct{ Source, Target string }

func pairs(edges []model.Edge) []pair {
	out := make([]pair, len(edges))
	for i, e := range edges {
		out[i] = pair{e.Source, e.Target}
	}
	return out
}

func TestAddNode_Defaults(t *testing.T) {
	g := newTestGraph()
	n := g.AddNode(&model.Position{X: 3, Y: 4})
	want := model.Node{
		ID:       "1",
		Type:     model.NodeTypeApp,
		Position: model.Position{X: 3, Y: 4},
		Data:     model.NodeData{Label: "Node 1", IsActive: true},
	}
	if diff := cmp.Diff(want, n); diff != "" {
		t.Errorf("AddNode mismatch (-want +got):\n%s", diff)
	}
}

func TestAddNode_FreshIDAfterDeletingMiddle(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	if _, ok := g.DeleteNode("2"); !ok {
		t.Fatal("DeleteNode(2) = false")
	}
	n := g.AddNode(nil)
	for _, existing := range []string{"1", "3"} {
		if n.ID == existing {
			t.Fatalf("AddNode reused live id %q", n.ID)
		}
	}
	if n.ID != "4" {
		t.Errorf("AddNode id = %q, want 4", n.ID)
	}
}

func TestAddNode_NeverReusesDeletedID(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	g.DeleteNode("3")
	if n := g.AddNode(nil); n.ID != "4" {
		t.Errorf("AddNode id = %q, want 4 (3 was deleted)", n.ID)
	}
}

func TestAddNode_SkipsNonNumericIDs(t *testing.T) {
	g := newTestGraph()
	g.Load(model.Flow{Nodes: []model.Node{node("start", false), node("7", false)}})
	if n := g.AddNode(nil); n.ID != "8" {
		t.Errorf("AddNode id = %q, want 8", n.ID)
	}
}

func TestConnect_Idempotent(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)

	first, created, err := g.Connect(model.Connection{Source: "1", Target: "2"})
	if err != nil || !created {
		t.Fatalf("first Connect = (%v, %v), want created", created, err)
	}
	second, created, err := g.Connect(model.Connection{Source: "1", Target: "2"})
	if err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if created {
		t.Error("second Connect reported created")
	}
	if second.ID != first.ID {
		t.Errorf("second Connect returned %q, want existing %q", second.ID, first.ID)
	}
	if got := len(g.Edges()); got != 1 {
		t.Errorf("edge count = %d, want 1", got)
	}
}

func TestConnect_ReverseIsDistinct(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)
	mustConnect(t, g, "1", "2")
	mustConnect(t, g, "2", "1")
	if got := len(g.Edges()); got != 2 {
		t.Errorf("edge count = %d, want 2", got)
	}
}

func TestConnect_UnknownNode(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 1)
	_, _, err := g.Connect(model.Connection{Source: "1", Target: "99"})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("Connect error = %v, want ErrNodeNotFound", err)
	}
	if len(g.Edges()) != 0 {
		t.Error("failed Connect added an edge")
	}
}

func TestConnect_InvalidConnection(t *testing.T) {
	g := newTestGraph()
	_, _, err := g.Connect(model.Connection{Source: "", Target: "1"})
	if !errors.Is(err, ErrInvalidChange) {
		t.Fatalf("Connect error = %v, want ErrInvalidChange", err)
	}
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Connect error does not wrap a ValidationError: %v", err)
	}
}

func TestConnect_SelfLoop(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 1)
	e := mustConnect(t, g, "1", "1")
	if !e.IsSelfLoop() {
		t.Fatalf("edge = %+v, want self-loop", e)
	}
	n, _ := g.Node("1")
	if n.Data.IsActive {
		t.Error("incomplete node depending on itself should be inactive")
	}
}

func TestConnect_RecomputesActivation(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)
	mustConnect(t, g, "1", "2")
	if got := activeSet(g.Nodes()); !got["1"] || got["2"] {
		t.Errorf("active = %v, want 1 active and 2 blocked", got)
	}
}

func TestConnectToNew(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 1)
	n, e, err := g.ConnectToNew("1", model.Position{X: 50, Y: 80})
	if err != nil {
		t.Fatalf("ConnectToNew: %v", err)
	}
	if n.ID != "2" || n.Position != (model.Position{X: 50, Y: 80}) {
		t.Errorf("new node = %+v", n)
	}
	if e.Source != "1" || e.Target != "2" {
		t.Errorf("new edge = %+v", e)
	}
	if n.Data.IsActive {
		t.Error("node downstream of an incomplete node should be inactive")
	}
}

func TestConnectToNew_UnknownSource(t *testing.T) {
	g := newTestGraph()
	_, _, err := g.ConnectToNew("9", model.Position{})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("error = %v, want ErrNodeNotFound", err)
	}
	if len(g.Nodes()) != 0 {
		t.Error("failed ConnectToNew created a node")
	}
}

func TestSetLabel(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 1)
	if !g.SetLabel("1", "Design") {
		t.Fatal("SetLabel(1) = false")
	}
	n, _ := g.Node("1")
	if n.Data.Label != "Design" {
		t.Errorf("label = %q", n.Data.Label)
	}
}

func TestSetLabelAndStatus_UnknownIDIsNoop(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)
	mustConnect(t, g, "1", "2")
	before := g.Snapshot()

	if g.SetLabel("42", "x") {
		t.Error("SetLabel on unknown id reported true")
	}
	if g.SetStatus("42", true) {
		t.Error("SetStatus on unknown id reported true")
	}
	if diff := cmp.Diff(before, g.Snapshot()); diff != "" {
		t.Errorf("graph changed (-before +after):\n%s", diff)
	}
}

func TestSetStatus_UnblocksDownstream(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	mustConnect(t, g, "1", "2")
	mustConnect(t, g, "2", "3")

	g.SetStatus("1", true)
	got := activeSet(g.Nodes())
	want := map[string]bool{"1": false, "2": true, "3": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("after completing 1 (-want +got):\n%s", diff)
	}

	g.SetStatus("1", false)
	got = activeSet(g.Nodes())
	want = map[string]bool{"1": true, "2": false, "3": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("after reopening 1 (-want +got):\n%s", diff)
	}
}

func TestSetStatus_PartialCompletion(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	mustConnect(t, g, "1", "3")
	mustConnect(t, g, "2", "3")

	g.SetStatus("1", true)
	if n, _ := g.Node("3"); n.Data.IsActive {
		t.Error("3 active with only one of two dependencies complete")
	}
	g.SetStatus("2", true)
	if n, _ := g.Node("3"); !n.Data.IsActive {
		t.Error("3 inactive with both dependencies complete")
	}
}

func TestDeleteNode_Relinks(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	mustConnect(t, g, "1", "2")
	mustConnect(t, g, "2", "3")

	added, ok := g.DeleteNode("2")
	if !ok {
		t.Fatal("DeleteNode(2) = false")
	}
	if diff := cmp.Diff([]pair{{"1", "3"}}, pairs(added)); diff != "" {
		t.Errorf("synthesized edges (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]pair{{"1", "3"}}, pairs(g.Edges())); diff != "" {
		t.Errorf("edges after delete (-want +got):\n%s", diff)
	}
	if _, ok := g.Node("2"); ok {
		t.Error("node 2 still present")
	}
}

func TestDeleteNode_NoDuplicateWhenPairExists(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	mustConnect(t, g, "1", "2")
	mustConnect(t, g, "2", "3")
	direct := mustConnect(t, g, "1", "3")

	added, _ := g.DeleteNode("2")
	if len(added) != 0 {
		t.Errorf("synthesized %v, want none", pairs(added))
	}
	edges := g.Edges()
	if len(edges) != 1 || edges[0].ID != direct.ID {
		t.Errorf("edges = %+v, want only the original 1->3", edges)
	}
}

func TestDeleteNode_FanInFanOut(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 5)
	// 1,2 -> 3 -> 4,5
	mustConnect(t, g, "1", "3")
	mustConnect(t, g, "2", "3")
	mustConnect(t, g, "3", "4")
	mustConnect(t, g, "3", "5")

	added, _ := g.DeleteNode("3")
	want := []pair{{"1", "4"}, {"1", "5"}, {"2", "4"}, {"2", "5"}}
	if diff := cmp.Diff(want, pairs(added)); diff != "" {
		t.Errorf("synthesized edges (-want +got):\n%s", diff)
	}
	ids := map[string]bool{}
	for _, e := range g.Edges() {
		if ids[e.ID] {
			t.Errorf("duplicate edge id %q", e.ID)
		}
		ids[e.ID] = true
	}
}

func TestDeleteNode_RelinkCanCreateSelfLoop(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)
	mustConnect(t, g, "1", "2")
	mustConnect(t, g, "2", "1")

	added, _ := g.DeleteNode("2")
	if diff := cmp.Diff([]pair{{"1", "1"}}, pairs(added)); diff != "" {
		t.Errorf("synthesized edges (-want +got):\n%s", diff)
	}
}

func TestDeleteNode_OwnSelfLoopLeavesNoDanglingEdge(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	mustConnect(t, g, "1", "2")
	mustConnect(t, g, "2", "2")
	mustConnect(t, g, "2", "3")

	g.DeleteNode("2")
	for _, e := range g.Edges() {
		if e.Source == "2" || e.Target == "2" {
			t.Errorf("dangling edge %+v", e)
		}
	}
	if diff := cmp.Diff([]pair{{"1", "3"}}, pairs(g.Edges())); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
}

func TestDeleteNode_RecomputesActivation(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)
	mustConnect(t, g, "1", "2")
	g.DeleteNode("1")
	if n, _ := g.Node("2"); !n.Data.IsActive {
		t.Error("2 should be active once its only dependency is deleted")
	}
}

func TestDeleteNode_Unknown(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 1)
	if _, ok := g.DeleteNode("5"); ok {
		t.Error("DeleteNode(5) = true")
	}
	if len(g.Nodes()) != 1 {
		t.Error("unknown delete removed a node")
	}
}

func TestApplyNodeChanges(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	mustConnect(t, g, "1", "2")
	mustConnect(t, g, "2", "3")

	err := g.ApplyNodeChanges([]model.NodeChange{
		{Type: model.ChangePosition, ID: "1", Position: &model.Position{X: 10, Y: 20}},
		{Type: model.ChangeSelect, ID: "3", Selected: true},
		{Type: model.ChangeRemove, ID: "2"},
		{Type: model.ChangeSelect, ID: "missing", Selected: true},
	})
	if err != nil {
		t.Fatalf("ApplyNodeChanges: %v", err)
	}

	n1, _ := g.Node("1")
	if n1.Position != (model.Position{X: 10, Y: 20}) {
		t.Errorf("node 1 position = %+v", n1.Position)
	}
	n3, _ := g.Node("3")
	if !n3.Selected {
		t.Error("node 3 not selected")
	}
	if diff := cmp.Diff([]pair{{"1", "3"}}, pairs(g.Edges())); diff != "" {
		t.Errorf("remove change did not re-link (-want +got):\n%s", diff)
	}
}

func TestApplyNodeChanges_InvalidBatchAppliesNothing(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)
	before := g.Snapshot()

	err := g.ApplyNodeChanges([]model.NodeChange{
		{Type: model.ChangeRemove, ID: "1"},
		{Type: "resize", ID: "2"},
	})
	if !errors.Is(err, ErrInvalidChange) {
		t.Fatalf("error = %v, want ErrInvalidChange", err)
	}
	if diff := cmp.Diff(before, g.Snapshot()); diff != "" {
		t.Errorf("graph changed (-before +after):\n%s", diff)
	}
}

func TestApplyEdgeChanges(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	a := mustConnect(t, g, "1", "2")
	b := mustConnect(t, g, "2", "3")

	err := g.ApplyEdgeChanges([]model.EdgeChange{
		{Type: model.ChangeSelect, ID: b.ID, Selected: true},
		{Type: model.ChangeRemove, ID: a.ID},
		{Type: model.ChangeRemove, ID: "nope"},
	})
	if err != nil {
		t.Fatalf("ApplyEdgeChanges: %v", err)
	}
	edges := g.Edges()
	if len(edges) != 1 || edges[0].ID != b.ID || !edges[0].Selected {
		t.Errorf("edges = %+v", edges)
	}
	if n, _ := g.Node("2"); !n.Data.IsActive {
		t.Error("2 should be active once its incoming edge is removed")
	}
}

func TestApplyEdgeChanges_InvalidBatch(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)
	e := mustConnect(t, g, "1", "2")
	err := g.ApplyEdgeChanges([]model.EdgeChange{
		{Type: model.ChangeRemove, ID: e.ID},
		{Type: model.ChangePosition, ID: e.ID},
	})
	if !errors.Is(err, ErrInvalidChange) {
		t.Fatalf("error = %v, want ErrInvalidChange", err)
	}
	if len(g.Edges()) != 1 {
		t.Error("invalid batch removed an edge")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 2)
	e := mustConnect(t, g, "1", "2")
	if g.RemoveEdge("unknown") {
		t.Error("RemoveEdge(unknown) = true")
	}
	if !g.RemoveEdge(e.ID) {
		t.Fatal("RemoveEdge = false")
	}
	if len(g.Edges()) != 0 {
		t.Error("edge still present")
	}
}

func TestResetCompletion(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	mustConnect(t, g, "1", "2")
	g.SetStatus("1", true)
	g.SetStatus("3", true)

	if n := g.ResetCompletion(); n != 2 {
		t.Errorf("ResetCompletion = %d, want 2", n)
	}
	want := map[string]bool{"1": true, "2": false, "3": true}
	if diff := cmp.Diff(want, activeSet(g.Nodes())); diff != "" {
		t.Errorf("active flags (-want +got):\n%s", diff)
	}
	for _, n := range g.Nodes() {
		if n.Data.IsComplete {
			t.Errorf("node %s still complete", n.ID)
		}
	}
}

func TestSetViewport(t *testing.T) {
	g := newTestGraph()
	if err := g.SetViewport(model.Viewport{X: 5, Y: 6, Zoom: 1.5}); err != nil {
		t.Fatalf("SetViewport: %v", err)
	}
	if got := g.Viewport(); got != (model.Viewport{X: 5, Y: 6, Zoom: 1.5}) {
		t.Errorf("Viewport = %+v", got)
	}
	if err := g.SetViewport(model.Viewport{Zoom: -1}); !errors.Is(err, ErrInvalidChange) {
		t.Errorf("negative zoom error = %v, want ErrInvalidChange", err)
	}
}

func TestActiveNodes(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 3)
	mustConnect(t, g, "1", "2")
	g.SetStatus("3", true)

	var ids []string
	for _, n := range g.ActiveNodes() {
		ids = append(ids, n.ID)
	}
	if diff := cmp.Diff([]string{"1"}, ids); diff != "" {
		t.Errorf("ActiveNodes (-want +got):\n%s", diff)
	}
}

func TestLoad_Sanitizes(t *testing.T) {
	g := newTestGraph()
	stale := node("2", false)
	stale.Data.IsActive = true
	report := g.Load(model.Flow{
		Nodes: []model.Node{node("1", false), stale, node("1", true), {ID: ""}},
		Edges: []model.Edge{
			edge("a", "1", "2"),
			edge("b", "1", "9"),
			edge("a", "2", "1"),
			edge("c", "1", "2"),
		},
		Viewport: model.Viewport{X: 1, Y: 2},
	})

	if want := (LoadReport{DroppedNodes: 2, DroppedEdges: 3}); report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
	if diff := cmp.Diff([]pair{{"1", "2"}}, pairs(g.Edges())); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
	if n, _ := g.Node("2"); n.Data.IsActive {
		t.Error("stored isActive was not recomputed")
	}
	if vp := g.Viewport(); vp != (model.Viewport{X: 1, Y: 2, Zoom: 1}) {
		t.Errorf("viewport = %+v, want zero zoom replaced by 1", vp)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	g := newTestGraph()
	addNodes(t, g, 1)
	snap := g.Snapshot()
	snap.Nodes[0].Data.Label = "mutated"
	if n, _ := g.Node("1"); n.Data.Label != "Node 1" {
		t.Errorf("snapshot mutation leaked into graph: %q", n.Data.Label)
	}
}

func TestConcurrentAddNode_UniqueIDs(t *testing.T) {
	g := New()
	const workers, per = 8, 50
	var wg sync.WaitGroup
	ids := make(chan string, workers*per)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range per {
				ids <- g.AddNode(nil).ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate node id %q", id)
		}
		seen[id] = true
	}
	if len(seen) != workers*per {
		t.Errorf("got %d ids, want %d", len(seen), workers*per)
	}
}
