package events

import (
	"context"

	"github.com/alfredjeanlab/laptimer/internal/model"
)

// Event topic constants for events published by laptimer.
const (
	TopicLapRecorded = "laptimer.lap.recorded"
	TopicLapsCleared = "laptimer.laps.cleared"
	TopicTagUpdated  = "laptimer.tag.updated"
	TopicTagDeleted  = "laptimer.tag.deleted"
	TopicTagsCleared = "laptimer.tags.cleared"
)

// Default subjects for messages published by the gate stations.
const (
	DefaultSubjectStartStatus = "gates.start.status"
	DefaultSubjectStopStatus  = "gates.stop.status"
	DefaultSubjectTag         = "gates.tag"
	DefaultSubjectStart       = "gates.start.pulse"
	DefaultSubjectStop        = "gates.stop.pulse"
)

// Event types

type LapRecorded struct {
	Lap     *model.Lap `json:"lap"`
	Elapsed string     `json:"elapsed"`
}

type TagUpdated struct {
	Tag *model.Tag `json:"tag"`
}

type TagDeleted struct {
	UUID string `json:"uuid"`
}

// Cleared is published when a whole store is truncated.
type Cleared struct{}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher discards every event. It stands in when no bus is wired,
// e.g. in HTTP tests.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (*NoopPublisher) Close() error                               { return nil }
