package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/ui"
	"github.com/spf13/cobra"
)

var whoCmd = &cobra.Command{
	Use:     "who",
	Short:   "List who has been editing the flow",
	GroupID: "flow",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		within, _ := cmd.Flags().GetDuration("within")

		editors, err := flowClient.Presence(context.Background(), within)
		if err != nil {
			return fmt.Errorf("listing editors: %w", err)
		}
		if jsonOutput {
			printJSON(editors)
			return nil
		}
		if len(editors) == 0 {
			fmt.Println("Nobody has edited the flow recently.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ACTOR\tEDITS\tLAST SEEN\tLAST CHANGE")
		for _, e := range editors {
			name := e.Actor
			if e.Idle {
				name = ui.RenderMuted(name + " (idle)")
			}
			ago := time.Duration(e.IdleSecs * float64(time.Second)).Round(time.Second)
			fmt.Fprintf(w, "%s\t%d\t%s ago\t%s\n", name, e.Edits, ago, e.LastTopic)
		}
		return w.Flush()
	},
}

func init() {
	whoCmd.Flags().Duration("within", time.Hour, "only editors seen within this window (0 for all)")
}
