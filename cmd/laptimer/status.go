package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show whether the start and stop gates are online",
	GroupID: "results",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := lapClient.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting status: %w", err)
		}
		entries, err := lapClient.Gates(cmd.Context())
		if err != nil {
			// Older servers only expose /status.
			entries = nil
		}

		if jsonOutput {
			return printJSON(os.Stdout, map[string]any{
				"startGate": status.StartGate,
				"stopGate":  status.StopGate,
				"gates":     entries,
			})
		}
		printStatus(os.Stdout, status, entries)
		return nil
	},
}
