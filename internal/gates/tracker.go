// Package gates tracks whether the start and stop stations are online.
//
// Each station publishes a heartbeat payload on its own subject. The
// Tracker is updated by the bus dispatcher and read concurrently by the
// HTTP layer, so all access goes through an RWMutex. Only the latest value
// is kept; nothing expires a gate on its own.
package gates

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/model"
)

// Status is the snapshot served by GET /status.
type Status struct {
	StartGate bool `json:"startGate"`
	StopGate  bool `json:"stopGate"`
}

// Entry is the detailed state of one gate.
type Entry struct {
	Gate     model.Gate `json:"gate"`
	Online   bool       `json:"online"`
	LastSeen time.Time  `json:"last_seen,omitzero"`
	Payload  string     `json:"payload,omitempty"`
}

type gateState struct {
	online   bool
	lastSeen time.Time
	payload  string
}

// Tracker holds the liveness of both gates. Both start offline.
type Tracker struct {
	mu     sync.RWMutex
	states map[model.Gate]*gateState
	logger *slog.Logger
	now    func() time.Time
}

// New creates a tracker with both gates offline.
func New(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		states: map[model.Gate]*gateState{
			model.GateStart: {},
			model.GateStop:  {},
		},
		logger: logger,
		now:    time.Now,
	}
}

// Normalize trims and lower-cases a heartbeat payload.
func Normalize(payload string) string {
	return strings.ToLower(strings.TrimSpace(payload))
}

// OnHeartbeat records a heartbeat for gate. The gate is online iff the
// normalized payload is "online"; any other value marks it offline.
func (t *Tracker) OnHeartbeat(gate model.Gate, payload string) {
	p := Normalize(payload)
	online := p == "online"

	t.mu.Lock()
	state, ok := t.states[gate]
	if !ok {
		t.mu.Unlock()
		t.logger.Warn("gates: heartbeat for unknown gate", "gate", gate)
		return
	}
	changed := state.online != online
	state.online = online
	state.payload = p
	state.lastSeen = t.now()
	t.mu.Unlock()

	if changed {
		t.logger.Info("gates: status changed", "gate", gate, "online", online)
	}
}

// Status returns the latest online flags for both gates.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Status{
		StartGate: t.states[model.GateStart].online,
		StopGate:  t.states[model.GateStop].online,
	}
}

// Gates returns the detailed state of both gates, start first.
func (t *Tracker) Gates() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]Entry, 0, 2)
	for _, g := range []model.Gate{model.GateStart, model.GateStop} {
		s := t.states[g]
		entries = append(entries, Entry{
			Gate:     g,
			Online:   s.online,
			LastSeen: s.lastSeen,
			Payload:  s.payload,
		})
	}
	return entries
}
