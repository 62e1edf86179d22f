package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func nodeState(n model.Node) ui.State {
	return ui.NodeState(n.Data.IsComplete, n.Data.IsActive)
}

// dependencies maps each node id to the sorted ids of its edge sources.
func dependencies(edges []model.Edge) map[string][]string {
	deps := make(map[string][]string)
	for _, e := range edges {
		deps[e.Target] = append(deps[e.Target], e.Source)
	}
	for _, ids := range deps {
		sort.Strings(ids)
	}
	return deps
}

// dependents maps each node id to the sorted ids of its edge targets.
func dependents(edges []model.Edge) map[string][]string {
	out := make(map[string][]string)
	for _, e := range edges {
		out[e.Source] = append(out[e.Source], e.Target)
	}
	for _, ids := range out {
		sort.Strings(ids)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func printNodeTable(w io.Writer, n model.Node, edges []model.Edge) {
	st := nodeState(n)
	fmt.Fprintf(w, "ID:         %s\n", n.ID)
	fmt.Fprintf(w, "Label:      %s\n", n.Data.Label)
	fmt.Fprintf(w, "State:      %s\n", ui.RenderState(st, st.Icon()+" "+string(st)))
	fmt.Fprintf(w, "Position:   (%g, %g)\n", n.Position.X, n.Position.Y)
	if deps := dependencies(edges)[n.ID]; len(deps) > 0 {
		fmt.Fprintf(w, "Depends On: %s\n", strings.Join(deps, ", "))
	}
	if next := dependents(edges)[n.ID]; len(next) > 0 {
		fmt.Fprintf(w, "Unblocks:   %s\n", strings.Join(next, ", "))
	}
}

func printNodeListTable(w io.Writer, nodes []model.Node, edges []model.Edge) {
	deps := dependencies(edges)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tLABEL\tDEPENDS ON")
	for _, n := range nodes {
		st := nodeState(n)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			n.ID,
			ui.RenderState(st, st.Icon()+" "+string(st)),
			truncate(n.Data.Label, 50),
			strings.Join(deps[n.ID], ","),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d nodes\n", len(nodes))
}

func printEdgeListTable(w io.Writer, edges []model.Edge) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tTARGET")
	for _, e := range edges {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Source, e.Target)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d edges\n", len(edges))
}

func printStats(w io.Writer, s model.FlowStats) {
	fmt.Fprintf(w, "Nodes:    %d\n", s.TotalNodes)
	fmt.Fprintf(w, "Edges:    %d\n", s.TotalEdges)
	fmt.Fprintf(w, "Active:   %d\n", s.TotalActive)
	fmt.Fprintf(w, "Complete: %d\n", s.TotalComplete)
}

// printEvent writes one event history line.
func printEvent(w io.Writer, e *model.Event) {
	actor := e.Actor
	if actor == "" {
		actor = "-"
	}
	fmt.Fprintf(w, "%6d  %s  %-22s %-10s %s\n",
		e.ID,
		e.CreatedAt.Format("2006-01-02 15:04:05"),
		ui.RenderAccent(e.Topic),
		actor,
		ui.RenderMuted(string(e.Payload)),
	)
}
