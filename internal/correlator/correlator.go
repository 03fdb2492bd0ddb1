// Package correlator turns the stream of tag-scan, start-pulse and
// stop-pulse messages into lap records.
//
// The correlator holds a single pending start. A start pulse arms it with
// whatever tag was scanned last (or the sentinel), a stop pulse completes
// the lap and disarms it. A second start pulse before a stop replaces the
// pending start; the replaced lap is dropped without a record. A stop pulse
// while idle is ignored.
//
// A Correlator is not safe for concurrent use. It is owned by the bus
// dispatcher, which feeds it one message at a time.
package correlator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/alfredjeanlab/laptimer/internal/store"
	"github.com/alfredjeanlab/laptimer/internal/timecode"
)

// State is the correlator's arming state.
type State int

const (
	Idle State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Notifier is called after a lap has been stored.
type Notifier func(ctx context.Context, lap *model.Lap)

type pendingStart struct {
	tag     string
	raw     string
	instant time.Time
}

// Correlator pairs start and stop pulses into laps.
type Correlator struct {
	laps   store.LapStore
	logger *slog.Logger
	now    func() time.Time
	notify Notifier

	scannedTag string
	pending    *pendingStart
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithClock sets the clock used to anchor time codes to a date. Codes are
// anchored in UTC so daylight saving changes do not skew lap times.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// WithNotifier registers a callback invoked for each stored lap.
func WithNotifier(n Notifier) Option {
	return func(c *Correlator) { c.notify = n }
}

// New creates an idle correlator that writes laps to ls.
func New(ls store.LapStore, logger *slog.Logger, opts ...Option) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Correlator{
		laps:   ls,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State reports whether a start is waiting for its stop.
func (c *Correlator) State() State {
	if c.pending != nil {
		return Armed
	}
	return Idle
}

// TagScan remembers uuid as the tag for the next start pulse, replacing any
// earlier scan.
func (c *Correlator) TagScan(uuid string) {
	c.scannedTag = strings.TrimSpace(uuid)
	c.logger.Debug("correlator: tag scanned", "tag", c.scannedTag)
}

// StartPulse arms the correlator with the start time in raw. A malformed
// time code is logged and dropped without changing state.
func (c *Correlator) StartPulse(raw string) {
	raw = strings.TrimSpace(raw)
	instant, err := timecode.Parse(raw, c.now().UTC())
	if err != nil {
		c.logger.Warn("correlator: dropping start pulse", "raw", raw, "err", err)
		return
	}

	tag := c.scannedTag
	if tag == "" {
		tag = model.UnknownTag
	}
	c.scannedTag = ""

	if c.pending != nil {
		c.logger.Warn("correlator: discarded pending lap",
			"tag", c.pending.tag,
			"start", c.pending.raw,
			"replaced_by", raw,
		)
	}
	c.pending = &pendingStart{tag: tag, raw: raw, instant: instant}
	c.logger.Info("correlator: start", "tag", tag, "start", raw)
}

// EndPulse completes the pending lap and stores it. It returns the stored
// lap, or nil when nothing was recorded: the correlator was idle, the time
// code was malformed, or the store failed. A store failure still disarms
// the correlator; the lap is not retried.
func (c *Correlator) EndPulse(ctx context.Context, raw string) *model.Lap {
	if c.pending == nil {
		c.logger.Debug("correlator: stop pulse while idle", "raw", raw)
		return nil
	}

	raw = strings.TrimSpace(raw)
	end, err := timecode.Parse(raw, c.now().UTC())
	if err != nil {
		c.logger.Warn("correlator: dropping stop pulse", "raw", raw, "err", err)
		return nil
	}

	p := c.pending
	c.pending = nil

	lap := &model.Lap{
		TagID:        p.tag,
		StartTimeRaw: p.raw,
		ElapsedMs:    timecode.Elapsed(p.instant, end),
	}
	if err := c.laps.InsertLap(ctx, lap); err != nil {
		c.logger.Error("correlator: failed to store lap",
			"tag", lap.TagID, "start", lap.StartTimeRaw, "elapsed_ms", lap.ElapsedMs, "err", err)
		return nil
	}

	c.logger.Info("correlator: lap recorded",
		"id", lap.ID, "tag", lap.TagID, "elapsed", timecode.Format(lap.ElapsedMs))
	if c.notify != nil {
		c.notify(ctx, lap)
	}
	return lap
}
