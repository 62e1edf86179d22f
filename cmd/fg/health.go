package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/flowgraph/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the server and the flow it serves",
	GroupID: "system",
	Long: `Check the server and the flow it serves.

Reports whether the store is reachable, whether a snapshot has been saved
yet, and the flow's node counts. Exits non-zero when edits cannot be saved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := flowClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		if jsonOutput {
			printJSON(h)
		} else {
			w := cmd.OutOrStdout()
			status := ui.RenderState(ui.StateActive, h.Status)
			if !h.OK() {
				status = ui.RenderState(ui.StateBlocked, h.Status)
			}
			fmt.Fprintf(w, "Health: %s\n", status)
			saved := "saved"
			if !h.Saved {
				saved = "not saved yet"
			}
			fmt.Fprintf(w, "Flow:   %s (%s)\n", h.FlowKey, saved)
			fmt.Fprintf(w, "Nodes:  %d (%d complete, %d active), %d edges\n",
				h.Stats.TotalNodes, h.Stats.TotalComplete, h.Stats.TotalActive, h.Stats.TotalEdges)
			if h.Error != "" {
				fmt.Fprintf(w, "Error:  %s\n", h.Error)
			}
		}

		if !h.OK() {
			return fmt.Errorf("unhealthy: %s", h.Status)
		}
		return nil
	},
}
