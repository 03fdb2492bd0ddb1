// Package postgres implements the store.Store interface backed by PostgreSQL.
// Laps and tags live in the same database, so lap rows are joined against
// the tag directory in SQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/alfredjeanlab/laptimer/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) InsertLap(ctx context.Context, lap *model.Lap) error {
	return store.Wrap("insert lap", queryInsertLap(ctx, s.db, lap))
}

func (s *PostgresStore) ListLapRows(ctx context.Context) ([]model.LapRow, error) {
	rows, err := queryListLapRows(ctx, s.db)
	return rows, store.Wrap("list laps", err)
}

func (s *PostgresStore) DeleteAllLaps(ctx context.Context) error {
	return store.Wrap("delete laps", queryDeleteAllLaps(ctx, s.db))
}

func (s *PostgresStore) UpsertTag(ctx context.Context, tag *model.Tag) error {
	if err := store.PrepareTag(tag); err != nil {
		return err
	}
	return store.Wrap("upsert tag", queryUpsertTag(ctx, s.db, tag))
}

func (s *PostgresStore) ListTags(ctx context.Context) ([]*model.Tag, error) {
	tags, err := queryListTags(ctx, s.db)
	return tags, store.Wrap("list tags", err)
}

func (s *PostgresStore) DeleteTag(ctx context.Context, uuid string) error {
	return store.Wrap("delete tag", queryDeleteTag(ctx, s.db, uuid))
}

func (s *PostgresStore) DeleteAllTags(ctx context.Context) error {
	return store.Wrap("delete tags", queryDeleteAllTags(ctx, s.db))
}
