// Package store defines the persistence interfaces for laps and tags.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/laptimer/internal/model"
)

// ErrStorage is matched by every error caused by the underlying database.
var ErrStorage = errors.New("storage error")

// Wrap annotates err with op and marks it as a storage error.
// It returns nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// LapStore persists completed laps.
type LapStore interface {
	// InsertLap stores a lap. ID and CreatedAt are filled in on success.
	InsertLap(ctx context.Context, lap *model.Lap) error
	// ListLapRows returns every lap left-joined against the tag directory,
	// newest first.
	ListLapRows(ctx context.Context) ([]model.LapRow, error)
	DeleteAllLaps(ctx context.Context) error
}

// TagDirectory persists tag metadata keyed by uuid.
type TagDirectory interface {
	// UpsertTag trims and validates the tag, then inserts or replaces it.
	// Invalid input returns a model.ValidationError.
	UpsertTag(ctx context.Context, tag *model.Tag) error
	ListTags(ctx context.Context) ([]*model.Tag, error)
	// DeleteTag removes the tag if present. A missing tag is not an error.
	DeleteTag(ctx context.Context, uuid string) error
	DeleteAllTags(ctx context.Context) error
}

// Store is the combined persistence used by the server.
type Store interface {
	LapStore
	TagDirectory

	// Lifecycle
	Close() error
}

// PrepareTag normalizes and validates a tag before it is written.
func PrepareTag(tag *model.Tag) error {
	if tag == nil {
		return model.ValidationError("tag is required")
	}
	tag.Normalize()
	return tag.Validate()
}
