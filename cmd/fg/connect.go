package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:     "connect <source> <target>",
	Short:   "Make target depend on source",
	GroupID: "edges",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		edge, created, err := flowClient.Connect(context.Background(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("connecting %s -> %s: %w", args[0], args[1], err)
		}
		if jsonOutput {
			printJSON(edge)
			return nil
		}
		if created {
			fmt.Printf("Connected %s -> %s (%s)\n", edge.Source, edge.Target, edge.ID)
		} else {
			fmt.Printf("Already connected %s -> %s (%s)\n", edge.Source, edge.Target, edge.ID)
		}
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:     "disconnect <edge-id> | <source> <target>",
	Short:   "Remove an edge by id or by its endpoints",
	GroupID: "edges",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		id := args[0]
		if len(args) == 2 {
			edges, err := flowClient.ListEdges(ctx)
			if err != nil {
				return fmt.Errorf("listing edges: %w", err)
			}
			e, ok := findEdge(edges, args[0], args[1])
			if !ok {
				return fmt.Errorf("no edge %s -> %s", args[0], args[1])
			}
			id = e.ID
		}

		if err := flowClient.RemoveEdge(ctx, id); err != nil {
			return fmt.Errorf("removing edge %s: %w", id, err)
		}
		fmt.Printf("Removed edge %s\n", id)
		return nil
	},
}

// findEdge returns the edge from source to target.
func findEdge(edges []model.Edge, source, target string) (model.Edge, bool) {
	for _, e := range edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	return model.Edge{}, false
}
