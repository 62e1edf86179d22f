package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Short:   "Delete nodes, relinking their dependencies",
	GroupID: "nodes",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			resp, err := flowClient.NodeAction(context.Background(), id, model.NodeAction{Kind: model.ActionDelete})
			if err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			if jsonOutput {
				printJSON(resp)
				continue
			}
			fmt.Printf("Deleted %s\n", id)
			for _, e := range resp.Relinked {
				fmt.Printf("  relinked %s -> %s\n", e.Source, e.Target)
			}
		}
		return nil
	},
}
