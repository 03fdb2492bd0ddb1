// Package sqlite implements store.Store on two SQLite files: one for laps
// and one for the tag directory. The files are independent databases, so
// lap rows are joined against tags in application code.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/alfredjeanlab/laptimer/internal/store"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Store keeps laps and tags in separate SQLite databases. Writes to each
// database are serialized by its own mutex; reads run concurrently.
type Store struct {
	laps    *sql.DB
	lapsMu  sync.Mutex
	tags    *sql.DB
	tagsMu  sync.Mutex
	nowFunc func() time.Time
}

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the lap and tag databases at the given
// paths and applies the embedded schema to each.
func Open(lapsPath, tagsPath string) (*Store, error) {
	laps, err := openDB(lapsPath, "schema/laps.sql")
	if err != nil {
		return nil, fmt.Errorf("open laps db: %w", err)
	}
	tags, err := openDB(tagsPath, "schema/tags.sql")
	if err != nil {
		laps.Close()
		return nil, fmt.Errorf("open tags db: %w", err)
	}
	return &Store{laps: laps, tags: tags, nowFunc: time.Now}, nil
}

func openDB(path, schemaFile string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	schema, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// Close closes both database handles.
func (s *Store) Close() error {
	lapsErr := s.laps.Close()
	tagsErr := s.tags.Close()
	if lapsErr != nil {
		return lapsErr
	}
	return tagsErr
}

func (s *Store) InsertLap(ctx context.Context, lap *model.Lap) error {
	s.lapsMu.Lock()
	defer s.lapsMu.Unlock()

	createdAt := s.nowFunc()
	res, err := s.laps.ExecContext(ctx,
		`INSERT INTO laps (tag_id, start_time, elapsed_ms, created_at) VALUES (?, ?, ?, ?)`,
		lap.TagID, lap.StartTimeRaw, lap.ElapsedMs, toMillis(createdAt),
	)
	if err != nil {
		return store.Wrap("insert lap", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return store.Wrap("insert lap", err)
	}
	lap.ID = id
	lap.CreatedAt = fromMillis(toMillis(createdAt))
	return nil
}

// ListLapRows loads the tag directory into a map keyed by uuid, then merges
// it into each lap row.
func (s *Store) ListLapRows(ctx context.Context) ([]model.LapRow, error) {
	tags, err := s.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	byUUID := make(map[string]*model.Tag, len(tags))
	for _, t := range tags {
		byUUID[t.UUID] = t
	}

	rows, err := s.laps.QueryContext(ctx, `
		SELECT tag_id, start_time, elapsed_ms, created_at
		FROM laps
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, store.Wrap("list laps", err)
	}
	defer rows.Close()

	var out []model.LapRow
	for rows.Next() {
		var (
			r         model.LapRow
			createdAt int64
		)
		if err := rows.Scan(&r.TagID, &r.StartTimeRaw, &r.ElapsedMs, &createdAt); err != nil {
			return nil, store.Wrap("list laps", err)
		}
		r.CreatedAt = fromMillis(createdAt)
		if t, ok := byUUID[r.TagID]; ok {
			name := t.Name
			r.TagName = &name
			r.TagColor = t.Color
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list laps", err)
	}
	return out, nil
}

func (s *Store) DeleteAllLaps(ctx context.Context) error {
	s.lapsMu.Lock()
	defer s.lapsMu.Unlock()
	_, err := s.laps.ExecContext(ctx, `DELETE FROM laps`)
	return store.Wrap("delete laps", err)
}

func (s *Store) UpsertTag(ctx context.Context, tag *model.Tag) error {
	if err := store.PrepareTag(tag); err != nil {
		return err
	}
	s.tagsMu.Lock()
	defer s.tagsMu.Unlock()

	var color any
	if tag.Color != nil {
		color = *tag.Color
	}
	_, err := s.tags.ExecContext(ctx,
		`INSERT OR REPLACE INTO tags (uuid, name, color) VALUES (?, ?, ?)`,
		tag.UUID, tag.Name, color,
	)
	return store.Wrap("upsert tag", err)
}

func (s *Store) ListTags(ctx context.Context) ([]*model.Tag, error) {
	rows, err := s.tags.QueryContext(ctx, `SELECT uuid, name, color FROM tags ORDER BY uuid`)
	if err != nil {
		return nil, store.Wrap("list tags", err)
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		var (
			t     model.Tag
			color sql.NullString
		)
		if err := rows.Scan(&t.UUID, &t.Name, &color); err != nil {
			return nil, store.Wrap("list tags", err)
		}
		if color.Valid {
			c := color.String
			t.Color = &c
		}
		tags = append(tags, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list tags", err)
	}
	return tags, nil
}

func (s *Store) DeleteTag(ctx context.Context, uuid string) error {
	s.tagsMu.Lock()
	defer s.tagsMu.Unlock()
	_, err := s.tags.ExecContext(ctx, `DELETE FROM tags WHERE uuid = ?`, uuid)
	return store.Wrap("delete tag", err)
}

func (s *Store) DeleteAllTags(ctx context.Context) error {
	s.tagsMu.Lock()
	defer s.tagsMu.Unlock()
	_, err := s.tags.ExecContext(ctx, `DELETE FROM tags`)
	return store.Wrap("delete tags", err)
}
