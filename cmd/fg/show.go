package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a node and its dependencies",
	GroupID: "nodes",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		node, err := flowClient.GetNode(context.Background(), id)
		if err != nil {
			return fmt.Errorf("getting node %s: %w", id, err)
		}
		if jsonOutput {
			printJSON(node)
			return nil
		}

		edges, err := flowClient.ListEdges(context.Background())
		if err != nil {
			return fmt.Errorf("listing edges: %w", err)
		}
		printNodeTable(os.Stdout, *node, edges)
		return nil
	},
}
