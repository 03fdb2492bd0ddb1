package main

import (
	"fmt"
	"os"

	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:     "tags",
	Short:   "Manage the tag directory",
	GroupID: "tags",
}

var tagsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, err := lapClient.ListTags(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing tags: %w", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, tags)
		}
		printTagTable(os.Stdout, tags)
		return nil
	},
}

var tagsSetCmd = &cobra.Command{
	Use:   "set <uuid> <name>",
	Short: "Register a tag or update its name and color",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := &model.Tag{UUID: args[0], Name: args[1]}
		if cmd.Flags().Changed("color") {
			color, _ := cmd.Flags().GetString("color")
			tag.Color = &color
		}
		tag.Normalize()
		if err := tag.Validate(); err != nil {
			return err
		}

		if err := lapClient.UpsertTag(cmd.Context(), tag); err != nil {
			return fmt.Errorf("saving tag: %w", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, tag)
		}
		fmt.Printf("Saved tag %s (%s)\n", tag.UUID, tag.Name)
		return nil
	},
}

var tagsRmCmd = &cobra.Command{
	Use:     "rm <uuid>",
	Aliases: []string{"delete"},
	Short:   "Remove a tag from the directory",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := lapClient.DeleteTag(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting tag: %w", err)
		}
		fmt.Printf("Deleted tag %s\n", args[0])
		return nil
	},
}

func init() {
	tagsSetCmd.Flags().String("color", "", "display color, e.g. #ff8000")

	tagsCmd.AddCommand(tagsListCmd)
	tagsCmd.AddCommand(tagsSetCmd)
	tagsCmd.AddCommand(tagsRmCmd)
}
