package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:     "label <id> <label...>",
	Short:   "Rename a node",
	GroupID: "nodes",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		label := strings.Join(args[1:], " ")
		if err := model.ValidateLabel(label); err != nil {
			return err
		}

		resp, err := flowClient.NodeAction(context.Background(), id, model.NodeAction{Kind: model.ActionLabel, Label: &label})
		if err != nil {
			return fmt.Errorf("labeling node %s: %w", id, err)
		}
		if jsonOutput {
			printJSON(resp.Node)
			return nil
		}
		fmt.Printf("Labeled %s: %s\n", id, resp.Node.Data.Label)
		return nil
	},
}
