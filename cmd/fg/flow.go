package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	clearCmd.Flags().Bool("yes", false, "confirm clearing the flow")
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show node and edge counts",
	GroupID: "flow",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := flowClient.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		if jsonOutput {
			printJSON(stats)
			return nil
		}
		printStats(os.Stdout, *stats)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:     "reset",
	Short:   "Mark every node incomplete",
	GroupID: "flow",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := flowClient.ResetCompletion(context.Background())
		if err != nil {
			return fmt.Errorf("resetting completion: %w", err)
		}
		if jsonOutput {
			printJSON(map[string]int{"reset": n})
			return nil
		}
		fmt.Printf("Reset %d nodes\n", n)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete every node and edge and the saved snapshot",
	GroupID: "flow",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("clear removes the whole flow; pass --yes to confirm")
		}
		removed, err := flowClient.ClearFlow(context.Background())
		if err != nil {
			return fmt.Errorf("clearing flow: %w", err)
		}
		if jsonOutput {
			printJSON(map[string]model.FlowStats{"removed": *removed})
			return nil
		}
		fmt.Printf("Cleared %d nodes and %d edges\n", removed.TotalNodes, removed.TotalEdges)
		return nil
	},
}

var viewportCmd = &cobra.Command{
	Use:     "viewport <x> <y> <zoom>",
	Short:   "Set the saved pan and zoom",
	GroupID: "flow",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFloats(args)
		if err != nil {
			return err
		}
		if v[2] <= 0 {
			return fmt.Errorf("zoom must be positive, got %g", v[2])
		}

		vp, err := flowClient.SetViewport(context.Background(), model.Viewport{X: v[0], Y: v[1], Zoom: v[2]})
		if err != nil {
			return fmt.Errorf("setting viewport: %w", err)
		}
		if jsonOutput {
			printJSON(vp)
			return nil
		}
		fmt.Printf("Viewport: x=%g y=%g zoom=%g\n", vp.X, vp.Y, vp.Zoom)
		return nil
	},
}
