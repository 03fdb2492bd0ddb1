// Package ingest routes gate messages from the bus to the gate tracker and
// the lap correlator.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/laptimer/internal/correlator"
	"github.com/alfredjeanlab/laptimer/internal/events"
	"github.com/alfredjeanlab/laptimer/internal/gates"
	"github.com/alfredjeanlab/laptimer/internal/model"
)

// Subjects names the bus subject for each gate message role.
type Subjects struct {
	StartStatus string
	StopStatus  string
	Tag         string
	StartPulse  string
	StopPulse   string
}

// DefaultSubjects returns the subjects used by the stock gate firmware.
func DefaultSubjects() Subjects {
	return Subjects{
		StartStatus: events.DefaultSubjectStartStatus,
		StopStatus:  events.DefaultSubjectStopStatus,
		Tag:         events.DefaultSubjectTag,
		StartPulse:  events.DefaultSubjectStart,
		StopPulse:   events.DefaultSubjectStop,
	}
}

// List returns the non-empty subjects, deduplicated.
func (s Subjects) List() []string {
	seen := make(map[string]bool, 5)
	var out []string
	for _, subject := range []string{s.StartStatus, s.StopStatus, s.Tag, s.StartPulse, s.StopPulse} {
		if subject == "" || seen[subject] {
			continue
		}
		seen[subject] = true
		out = append(out, subject)
	}
	return out
}

// Dispatcher is the single consumer of gate messages. The correlator it
// drives is only ever touched from the Run goroutine.
type Dispatcher struct {
	subjects   Subjects
	tracker    *gates.Tracker
	correlator *correlator.Correlator
	logger     *slog.Logger
}

// NewDispatcher creates a dispatcher for the given subjects.
func NewDispatcher(subjects Subjects, tracker *gates.Tracker, c *correlator.Correlator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		subjects:   subjects,
		tracker:    tracker,
		correlator: c,
		logger:     logger,
	}
}

// Run subscribes to every configured subject and handles messages one at a
// time until ctx is cancelled or the subscription channel closes.
func (d *Dispatcher) Run(ctx context.Context, sub events.Subscriber) error {
	subjects := d.subjects.List()
	if len(subjects) == 0 {
		return fmt.Errorf("ingest: no subjects configured")
	}
	ch, cancel, err := sub.Subscribe(subjects...)
	if err != nil {
		return fmt.Errorf("ingest: subscribe: %w", err)
	}
	defer cancel()

	d.logger.Info("ingest: dispatcher started", "subjects", subjects)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("ingest: dispatcher stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				d.logger.Info("ingest: subscription closed")
				return nil
			}
			d.Handle(ctx, msg)
		}
	}
}

// Handle routes one message by subject. Messages on unknown subjects are
// logged and ignored.
func (d *Dispatcher) Handle(ctx context.Context, msg events.Message) {
	payload := string(msg.Data)
	switch msg.Subject {
	case d.subjects.StartStatus:
		d.tracker.OnHeartbeat(model.GateStart, payload)
	case d.subjects.StopStatus:
		d.tracker.OnHeartbeat(model.GateStop, payload)
	case d.subjects.Tag:
		d.correlator.TagScan(payload)
	case d.subjects.StartPulse:
		d.correlator.StartPulse(payload)
	case d.subjects.StopPulse:
		d.correlator.EndPulse(ctx, payload)
	default:
		d.logger.Debug("ingest: message on unrouted subject", "subject", msg.Subject)
	}
}
