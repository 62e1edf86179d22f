package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:     "move <id> <x> <y>",
	Short:   "Move a node on the canvas",
	GroupID: "nodes",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		xy, err := parseFloats(args[1:])
		if err != nil {
			return err
		}

		ctx := context.Background()
		// Position changes for unknown ids are skipped server-side.
		if _, err := flowClient.GetNode(ctx, id); err != nil {
			return fmt.Errorf("getting node %s: %w", id, err)
		}

		change := model.NodeChange{
			Type:     model.ChangePosition,
			ID:       id,
			Position: &model.Position{X: xy[0], Y: xy[1]},
		}
		if err := flowClient.ApplyNodeChanges(ctx, []model.NodeChange{change}); err != nil {
			return fmt.Errorf("moving %s: %w", id, err)
		}
		fmt.Printf("Moved %s to (%g, %g)\n", id, xy[0], xy[1])
		return nil
	},
}

// parseFloats parses every argument as a float64.
func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}
