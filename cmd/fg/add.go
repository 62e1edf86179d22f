package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/flowgraph/internal/client"
	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:     "add [label...]",
	Short:   "Add a node",
	Long:    "Add a node at the given position. With --after, the node is created\nalready linked to the named source node.",
	GroupID: "nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		after, _ := cmd.Flags().GetString("after")
		x, _ := cmd.Flags().GetFloat64("x")
		y, _ := cmd.Flags().GetFloat64("y")
		pos := model.Position{X: x, Y: y}

		var (
			node *model.Node
			edge *model.Edge
			err  error
		)
		if after != "" {
			node, edge, err = flowClient.ConnectEnd(ctx, after, pos)
		} else {
			var p *model.Position
			if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
				p = &pos
			}
			node, err = flowClient.AddNode(ctx, p)
		}
		if err != nil {
			return fmt.Errorf("adding node: %w", err)
		}

		if label := strings.Join(args, " "); label != "" {
			node, err = flowClient.UpdateNode(ctx, node.ID, &client.UpdateNodeRequest{Label: &label})
			if err != nil {
				return fmt.Errorf("labeling node %s: %w", node.ID, err)
			}
		}

		if jsonOutput {
			printJSON(node)
			return nil
		}
		fmt.Printf("Added node %s: %s\n", node.ID, node.Data.Label)
		if edge != nil {
			fmt.Printf("Linked %s -> %s (%s)\n", edge.Source, edge.Target, edge.ID)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().Float64("x", 0, "horizontal position")
	addCmd.Flags().Float64("y", 0, "vertical position")
	addCmd.Flags().String("after", "", "source node the new node depends on")
}
