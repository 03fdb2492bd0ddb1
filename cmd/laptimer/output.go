package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/alfredjeanlab/laptimer/internal/aggregate"
	"github.com/alfredjeanlab/laptimer/internal/gates"
	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/alfredjeanlab/laptimer/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printLapTable(w io.Writer, laps []aggregate.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTART\tELAPSED\tRECORDED")
	for _, l := range laps {
		elapsed := l.Elapsed
		if l.Best {
			elapsed = ui.RenderBest(elapsed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			l.Name,
			l.StartTime,
			elapsed,
			l.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d laps\n", len(laps))
}

func printTagTable(w io.Writer, tags []*model.Tag) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tNAME\tCOLOR")
	for _, t := range tags {
		color := ""
		if t.Color != nil {
			color = ui.RenderSwatch(*t.Color)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.UUID, t.Name, color)
	}
	tw.Flush()
}

func printStatus(w io.Writer, status *gates.Status, entries []gates.Entry) {
	fmt.Fprintln(w, "Gates")
	if len(entries) == 0 {
		fmt.Fprintf(w, "  Start: %s\n", ui.RenderGate(status.StartGate))
		fmt.Fprintf(w, "  Stop:  %s\n", ui.RenderGate(status.StopGate))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		seen := ui.RenderMuted("never")
		if !e.LastSeen.IsZero() {
			seen = e.LastSeen.Local().Format("15:04:05")
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", e.Gate, ui.RenderGate(e.Online), seen, e.Payload)
	}
	tw.Flush()
}
