package postgres

import (
	"context"
	"database/sql"

	"github.com/alfredjeanlab/laptimer/internal/model"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryInsertLap(ctx context.Context, db executor, lap *model.Lap) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO laps (tag_id, start_time, elapsed_ms)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		lap.TagID, lap.StartTimeRaw, lap.ElapsedMs,
	).Scan(&lap.ID, &lap.CreatedAt)
}

func queryListLapRows(ctx context.Context, db executor) ([]model.LapRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT l.tag_id, t.name, t.color, l.start_time, l.elapsed_ms, l.created_at
		FROM laps l
		LEFT JOIN tags t ON l.tag_id = t.uuid
		ORDER BY l.created_at DESC, l.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LapRow
	for rows.Next() {
		r, err := scanLapRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func queryDeleteAllLaps(ctx context.Context, db executor) error {
	_, err := db.ExecContext(ctx, `DELETE FROM laps`)
	return err
}

func queryUpsertTag(ctx context.Context, db executor, tag *model.Tag) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tags (uuid, name, color)
		VALUES ($1, $2, $3)
		ON CONFLICT (uuid) DO UPDATE SET name = EXCLUDED.name, color = EXCLUDED.color`,
		tag.UUID, tag.Name, nullStringPtr(tag.Color),
	)
	return err
}

func queryListTags(ctx context.Context, db executor) ([]*model.Tag, error) {
	rows, err := db.QueryContext(ctx, `SELECT uuid, name, color FROM tags ORDER BY uuid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

func queryDeleteTag(ctx context.Context, db executor, uuid string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM tags WHERE uuid = $1`, uuid)
	return err
}

func queryDeleteAllTags(ctx context.Context, db executor) error {
	_, err := db.ExecContext(ctx, `DELETE FROM tags`)
	return err
}
