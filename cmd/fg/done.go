package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/flowgraph/internal/client"
	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/ui"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:     "done <id>...",
	Short:   "Mark nodes complete",
	GroupID: "nodes",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		complete := true
		for _, id := range args {
			resp, err := flowClient.NodeAction(context.Background(), id, model.NodeAction{Kind: model.ActionStatus, Complete: &complete})
			if err != nil {
				return fmt.Errorf("completing %s: %w", id, err)
			}
			if jsonOutput {
				printJSON(resp.Node)
				continue
			}
			fmt.Printf("Completed %s\n", ui.RenderState(ui.StateComplete, id))
		}
		if !jsonOutput {
			return printNewlyActive()
		}
		return nil
	},
}

var undoneCmd = &cobra.Command{
	Use:     "undone <id>...",
	Short:   "Mark nodes incomplete",
	GroupID: "nodes",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		complete := false
		for _, id := range args {
			node, err := flowClient.UpdateNode(context.Background(), id, &client.UpdateNodeRequest{Complete: &complete})
			if err != nil {
				return fmt.Errorf("reopening %s: %w", id, err)
			}
			if jsonOutput {
				printJSON(node)
				continue
			}
			st := nodeState(*node)
			fmt.Printf("Reopened %s (%s)\n", id, ui.RenderState(st, string(st)))
		}
		return nil
	},
}

// printNewlyActive lists the active nodes after a completion.
func printNewlyActive() error {
	active, err := flowClient.ListActive(context.Background())
	if err != nil {
		return fmt.Errorf("listing active nodes: %w", err)
	}
	if len(active) == 0 {
		return nil
	}
	fmt.Println("Active:")
	for _, n := range active {
		fmt.Printf("  %s %s\n", ui.RenderState(ui.StateActive, n.ID), n.Data.Label)
	}
	return nil
}
