package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alfredjeanlab/laptimer/internal/aggregate"
	"github.com/spf13/cobra"
)

var lapsCmd = &cobra.Command{
	Use:     "laps",
	Short:   "List recorded laps, newest first",
	GroupID: "results",
	RunE: func(cmd *cobra.Command, args []string) error {
		laps, err := lapClient.ListLaps(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing laps: %w", err)
		}

		name, _ := cmd.Flags().GetString("name")
		bestOnly, _ := cmd.Flags().GetBool("best")
		filtered := make([]aggregate.Result, 0, len(laps))
		for _, l := range laps {
			if name != "" && !strings.EqualFold(l.Name, name) {
				continue
			}
			if bestOnly && !l.Best {
				continue
			}
			filtered = append(filtered, l)
		}

		if jsonOutput {
			return printJSON(os.Stdout, filtered)
		}
		printLapTable(os.Stdout, filtered)
		return nil
	},
}

var unassignedCmd = &cobra.Command{
	Use:     "unassigned",
	Short:   "List scanned tag ids that have no directory entry",
	GroupID: "results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := lapClient.Unassigned(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing unassigned tags: %w", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, ids)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	lapsCmd.Flags().String("name", "", "only laps for this participant")
	lapsCmd.Flags().Bool("best", false, "only best laps")
}
