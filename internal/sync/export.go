package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/aggregate"
	"github.com/alfredjeanlab/laptimer/internal/model"
)

// Source is the read side of the store used by the export.
type Source interface {
	ListLapRows(ctx context.Context) ([]model.LapRow, error)
	ListTags(ctx context.Context) ([]*model.Tag, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	LapCount  int       `json:"lap_count"`
	TagCount  int       `json:"tag_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// lapRecord is a lap as exported: the API result plus the raw tag id and
// elapsed milliseconds.
type lapRecord struct {
	TagID     string    `json:"tag_id"`
	Name      string    `json:"name"`
	StartTime string    `json:"start_time"`
	ElapsedMs int64     `json:"elapsed_ms"`
	Elapsed   string    `json:"elapsed"`
	CreatedAt time.Time `json:"created_at"`
	Color     *string   `json:"color"`
	Best      bool      `json:"best"`
}

// ExportJSONL writes all laps and tags from src as JSONL to w. Laps keep
// the store's newest-first order; tags are sorted by uuid.
func ExportJSONL(ctx context.Context, src Source, w io.Writer) error {
	rows, err := src.ListLapRows(ctx)
	if err != nil {
		return fmt.Errorf("list laps: %w", err)
	}
	tags, err := src.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].UUID < tags[j].UUID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		LapCount:  len(rows),
		TagCount:  len(tags),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, r := range aggregate.Results(rows) {
		lap := lapRecord{
			TagID:     r.TagID,
			Name:      r.Name,
			StartTime: r.StartTime,
			ElapsedMs: r.ElapsedMs,
			Elapsed:   r.Elapsed,
			CreatedAt: r.CreatedAt.UTC(),
			Color:     r.Color,
			Best:      r.Best,
		}
		if err := enc.Encode(record{Type: "lap", Data: lap}); err != nil {
			return fmt.Errorf("encode lap %s: %w", r.TagID, err)
		}
	}

	for _, t := range tags {
		if err := enc.Encode(record{Type: "tag", Data: t}); err != nil {
			return fmt.Errorf("encode tag %s: %w", t.UUID, err)
		}
	}

	return nil
}
