package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:     "log",
	Short:   "Show the flow's event history",
	GroupID: "flow",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		after, _ := cmd.Flags().GetInt64("after")
		limit, _ := cmd.Flags().GetInt("limit")

		evts, err := flowClient.ListEvents(context.Background(), after, limit)
		if err != nil {
			return fmt.Errorf("listing events: %w", err)
		}
		if jsonOutput {
			printJSON(evts)
			return nil
		}
		if len(evts) == 0 {
			fmt.Println("No events.")
			return nil
		}
		for _, e := range evts {
			printEvent(os.Stdout, e)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().Int64("after", 0, "only events with a larger id")
	logCmd.Flags().Int("limit", 50, "maximum number of events")
}
