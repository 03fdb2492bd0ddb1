// Package client provides a transport-agnostic interface for the laptimer
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/alfredjeanlab/laptimer/internal/aggregate"
	"github.com/alfredjeanlab/laptimer/internal/gates"
	"github.com/alfredjeanlab/laptimer/internal/model"
)

// LapClient is the interface the laptimer CLI commands use to talk to a
// running server.
type LapClient interface {
	// Results
	ListLaps(ctx context.Context) ([]aggregate.Result, error)
	Unassigned(ctx context.Context) ([]string, error)

	// Gates
	Status(ctx context.Context) (*gates.Status, error)
	Gates(ctx context.Context) ([]gates.Entry, error)

	// Tag directory (protected)
	ListTags(ctx context.Context) ([]*model.Tag, error)
	UpsertTag(ctx context.Context, tag *model.Tag) error
	DeleteTag(ctx context.Context, uuid string) error

	// Resets (protected)
	ResetLaps(ctx context.Context) error
	ResetTags(ctx context.Context) error

	Health(ctx context.Context) (string, error)

	Close() error
}
