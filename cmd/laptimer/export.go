package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/alfredjeanlab/laptimer/internal/config"
	lapsync "github.com/alfredjeanlab/laptimer/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:               "export",
	Short:             "Write all laps and tags as JSONL, read directly from the store",
	GroupID:           "results",
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		output, _ := cmd.Flags().GetString("output")
		var w io.Writer = os.Stdout
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		bw := bufio.NewWriter(w)
		if err := lapsync.ExportJSONL(cmd.Context(), st, bw); err != nil {
			return err
		}
		return bw.Flush()
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
}
