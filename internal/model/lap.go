package model

import "time"

// UnknownTag is the tag id recorded when no tag was scanned before a start pulse.
const UnknownTag = "Unknown"

// Lap is one completed interval between a start pulse and the next stop pulse.
type Lap struct {
	ID           int64     `json:"id"`
	TagID        string    `json:"tag_id"`
	StartTimeRaw string    `json:"start_time"`
	ElapsedMs    int64     `json:"elapsed_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// LapRow is a lap left-joined against the tag directory. TagName and
// TagColor are nil when no tag with a matching uuid exists.
type LapRow struct {
	TagID        string
	TagName      *string
	TagColor     *string
	StartTimeRaw string
	ElapsedMs    int64
	CreatedAt    time.Time
}
