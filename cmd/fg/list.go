package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every node in the flow",
	GroupID: "nodes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		showEdges, _ := cmd.Flags().GetBool("edges")

		flow, err := flowClient.GetFlow(context.Background())
		if err != nil {
			return fmt.Errorf("getting flow: %w", err)
		}

		if jsonOutput {
			if showEdges {
				printJSON(flow)
			} else {
				printJSON(flow.Nodes)
			}
			return nil
		}

		printNodeListTable(os.Stdout, flow.Nodes, flow.Edges)
		if showEdges {
			fmt.Println()
			printEdgeListTable(os.Stdout, flow.Edges)
		}
		return nil
	},
}

var activeCmd = &cobra.Command{
	Use:     "active",
	Short:   "List nodes whose dependencies are all complete",
	GroupID: "nodes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, err := flowClient.ListActive(context.Background())
		if err != nil {
			return fmt.Errorf("listing active nodes: %w", err)
		}
		if jsonOutput {
			printJSON(nodes)
			return nil
		}
		if len(nodes) == 0 {
			fmt.Println("No active nodes.")
			return nil
		}
		printNodeListTable(os.Stdout, nodes, nil)
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("edges", false, "also list edges")
}
