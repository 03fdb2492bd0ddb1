// Package sync periodically exports lap results and the tag directory as
// JSONL to S3 and/or a git clone.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// finalSyncTimeout bounds the export run by Stop.
const finalSyncTimeout = 30 * time.Second

// Destination receives the full JSONL export on every sync.
type Destination interface {
	Write(ctx context.Context, data []byte) error
}

// Scheduler exports from a Source to every Destination on a fixed interval.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(src Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       src,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start syncs once right away and then on every tick until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		_ = s.SyncOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.SyncOnce(ctx)
			}
		}
	}()
}

// Stop ends the loop, waits for an in-flight sync and then runs a final one
// so laps recorded since the last tick are not lost. It is a no-op if the
// scheduler was never started.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil

	ctx, cancel := context.WithTimeout(context.Background(), finalSyncTimeout)
	defer cancel()
	_ = s.SyncOnce(ctx)
}

// SyncOnce exports once and writes to every destination. A failing
// destination does not stop the others; all failures are returned joined.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.source, &buf); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return err
	}

	var errs []error
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, buf.Bytes()); err != nil {
			s.logger.Error("sync destination write failed", "destination", destinationName(i, dest), "err", err)
			errs = append(errs, err)
		}
	}

	s.logger.Info("sync completed",
		"destinations", len(s.destinations), "failed", len(errs), "bytes", buf.Len())
	return errors.Join(errs...)
}

func destinationName(i int, d Destination) string {
	if s, ok := d.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("#%d", i)
}
