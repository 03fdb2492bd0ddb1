// Package server serves lap results, gate status, and the tag directory over
// HTTP, and fans recorded laps out to bus and SSE subscribers.
package server

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/laptimer/internal/events"
	"github.com/alfredjeanlab/laptimer/internal/gates"
	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/alfredjeanlab/laptimer/internal/store"
	"github.com/alfredjeanlab/laptimer/internal/timecode"
)

// GateSource provides the gate snapshot for GET /status.
type GateSource interface {
	Status() gates.Status
	Gates() []gates.Entry
}

// LapServer holds the collaborators shared by the HTTP handlers.
type LapServer struct {
	store     store.Store
	gates     GateSource
	publisher events.Publisher
	sseHub    *sseHub
	logger    *slog.Logger
}

// NewLapServer returns a LapServer backed by the given store, gate source, and publisher.
func NewLapServer(s store.Store, g GateSource, p events.Publisher, logger *slog.Logger) *LapServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LapServer{
		store:     s,
		gates:     g,
		publisher: p,
		sseHub:    newSSEHub(),
		logger:    logger,
	}
}

// LapRecorded announces a stored lap on the bus and to SSE clients. It has
// the shape of a correlator notifier.
func (s *LapServer) LapRecorded(ctx context.Context, lap *model.Lap) {
	s.publish(ctx, events.TopicLapRecorded, events.LapRecorded{
		Lap:     lap,
		Elapsed: timecode.Format(lap.ElapsedMs),
	})
}

// publish sends event to the bus and to SSE clients. Both are best-effort;
// failures are logged but do not block the caller.
func (s *LapServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
	s.broadcastEvent(topic, event)
}
