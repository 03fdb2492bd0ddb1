package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/laptimer/internal/model"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLapRow(s scanner) (model.LapRow, error) {
	var (
		r     model.LapRow
		name  sql.NullString
		color sql.NullString
	)
	if err := s.Scan(&r.TagID, &name, &color, &r.StartTimeRaw, &r.ElapsedMs, &r.CreatedAt); err != nil {
		return model.LapRow{}, err
	}
	r.TagName = stringPtr(name)
	r.TagColor = stringPtr(color)
	return r, nil
}

func scanTag(s scanner) (*model.Tag, error) {
	var (
		t     model.Tag
		color sql.NullString
	)
	if err := s.Scan(&t.UUID, &t.Name, &color); err != nil {
		return nil, err
	}
	t.Color = stringPtr(color)
	return &t, nil
}

// nullStringPtr converts an optional string to sql.NullString.
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtr converts a sql.NullString to an optional string.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
