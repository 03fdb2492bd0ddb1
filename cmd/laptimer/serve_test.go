package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alfredjeanlab/laptimer/internal/config"
	"github.com/alfredjeanlab/laptimer/internal/model"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected log output: %q", buf.String())
	}

	if _, err := newLogger(&buf, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if l, err := newLogger(&buf, "DEBUG"); err != nil || !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("DEBUG level not honored: %v", err)
	}
}

func TestSubjectsFromConfig(t *testing.T) {
	cfg := &config.Config{
		SubjectStartStatus: "a",
		SubjectStopStatus:  "b",
		SubjectTag:         "c",
		SubjectStart:       "d",
		SubjectStop:        "e",
	}
	s := subjectsFromConfig(cfg)
	if got := strings.Join(s.List(), ","); got != "a,b,c,d,e" {
		t.Fatalf("subjects = %q", got)
	}
}

func TestSyncDestinations_GitOnly(t *testing.T) {
	cfg := &config.Config{SyncGitRepo: t.TempDir(), SyncGitFile: "results.jsonl", SyncGitBranch: "main"}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if dests := syncDestinations(context.Background(), cfg, logger); len(dests) != 1 {
		t.Fatalf("expected 1 destination, got %d", len(dests))
	}
	if dests := syncDestinations(context.Background(), &config.Config{}, logger); len(dests) != 0 {
		t.Fatalf("expected no destinations, got %d", len(dests))
	}
}

func TestExportCommand_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LAPTIMER_DATABASE_URL", "")
	t.Setenv("LAPTIMER_LAPS_DB", filepath.Join(dir, "laps.db"))
	t.Setenv("LAPTIMER_TAGS_DB", filepath.Join(dir, "tags.db"))

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	st, err := openStore(cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	ctx := context.Background()
	if err := st.InsertLap(ctx, &model.Lap{TagID: "T1", StartTimeRaw: "10:00:00.00", ElapsedMs: 61230}); err != nil {
		t.Fatalf("insert lap: %v", err)
	}
	if err := st.UpsertTag(ctx, &model.Tag{UUID: "T1", Name: "Alice"}); err != nil {
		t.Fatalf("upsert tag: %v", err)
	}
	st.Close()

	out := filepath.Join(dir, "export.jsonl")
	if err := exportCmd.Flags().Set("output", out); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	t.Cleanup(func() { _ = exportCmd.Flags().Set("output", "") })
	exportCmd.SetContext(ctx)

	prev := configPath
	configPath = ""
	t.Cleanup(func() { configPath = prev })

	if err := exportCmd.RunE(exportCmd, nil); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, lap and tag lines, got %d:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[1], `"name":"Alice"`) || !strings.Contains(lines[1], `"elapsed":"1:01.23"`) {
		t.Errorf("lap line = %s", lines[1])
	}
	if !strings.Contains(lines[2], `"type":"tag"`) {
		t.Errorf("tag line = %s", lines[2])
	}
}
