// Package aggregate turns joined lap rows into the results served by the
// API: display names, formatted times, per-tag best laps, and the list of
// scanned tags that have no directory entry.
package aggregate

import (
	"sort"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/alfredjeanlab/laptimer/internal/timecode"
)

// Result is one lap as served by GET /laps.
type Result struct {
	Name      string    `json:"name"`
	StartTime string    `json:"start_time"`
	Elapsed   string    `json:"elapsed"`
	CreatedAt time.Time `json:"created_at"`
	Color     *string   `json:"color"`
	Best      bool      `json:"best"`

	TagID     string `json:"-"`
	ElapsedMs int64  `json:"-"`
}

// DisplayName resolves the name shown for a lap. The sentinel tag always
// shows as "Unknown", even if the directory has an entry for it.
func DisplayName(row model.LapRow) string {
	if row.TagID == model.UnknownTag {
		return model.UnknownTag
	}
	if row.TagName != nil && *row.TagName != "" {
		return *row.TagName
	}
	if row.TagID != "" {
		return row.TagID
	}
	return model.UnknownTag
}

// BestTimes returns the minimum elapsed time per tag id.
func BestTimes(rows []model.LapRow) map[string]int64 {
	best := make(map[string]int64)
	for _, r := range rows {
		if cur, ok := best[r.TagID]; !ok || r.ElapsedMs < cur {
			best[r.TagID] = r.ElapsedMs
		}
	}
	return best
}

// Results converts rows into API results, preserving order. Every row whose
// elapsed time equals its tag's minimum is marked best, so ties all win.
func Results(rows []model.LapRow) []Result {
	best := BestTimes(rows)
	out := make([]Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, Result{
			Name:      DisplayName(r),
			StartTime: r.StartTimeRaw,
			Elapsed:   timecode.Format(r.ElapsedMs),
			CreatedAt: r.CreatedAt,
			Color:     r.TagColor,
			Best:      r.ElapsedMs == best[r.TagID],
			TagID:     r.TagID,
			ElapsedMs: r.ElapsedMs,
		})
	}
	return out
}

// Unassigned returns the distinct tag ids seen in laps that have no
// directory entry, excluding the sentinel, sorted ascending.
func Unassigned(rows []model.LapRow) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if r.TagID == model.UnknownTag || r.TagName != nil {
			continue
		}
		seen[r.TagID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
