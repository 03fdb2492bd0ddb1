package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:       "reset <laps|tags>",
	Short:     "Delete every lap or every tag",
	GroupID:   "system",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"laps", "tags"},
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to delete all %s without --yes", args[0])
		}

		var err error
		switch args[0] {
		case "laps":
			err = lapClient.ResetLaps(cmd.Context())
		case "tags":
			err = lapClient.ResetTags(cmd.Context())
		default:
			return fmt.Errorf("unknown target %q (must be laps or tags)", args[0])
		}
		if err != nil {
			return fmt.Errorf("resetting %s: %w", args[0], err)
		}
		fmt.Printf("Deleted all %s\n", args[0])
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "confirm the deletion")
}
