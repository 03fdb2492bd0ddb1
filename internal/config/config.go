package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DatabaseURL string // LAPTIMER_DATABASE_URL (postgres; or set both sqlite paths)
	LapsDB      string // LAPTIMER_LAPS_DB (sqlite file for laps)
	TagsDB      string // LAPTIMER_TAGS_DB (sqlite file for the tag directory)

	HTTPAddr    string // LAPTIMER_HTTP_ADDR (default ":8080")
	WebUsername string // LAPTIMER_WEB_USERNAME (optional, empty = auth disabled)
	WebPassword string // LAPTIMER_WEB_PASSWORD
	LogLevel    string // LAPTIMER_LOG_LEVEL (default "info")

	NATSURL string // LAPTIMER_NATS_URL (default "nats://127.0.0.1:4222")

	// Gate subjects
	SubjectStartStatus string // LAPTIMER_SUBJECT_START_STATUS
	SubjectStopStatus  string // LAPTIMER_SUBJECT_STOP_STATUS
	SubjectTag         string // LAPTIMER_SUBJECT_TAG
	SubjectStart       string // LAPTIMER_SUBJECT_START
	SubjectStop        string // LAPTIMER_SUBJECT_STOP

	// Sync settings
	SyncInterval   time.Duration // LAPTIMER_SYNC_INTERVAL (default 5m; 0 = disabled)
	SyncS3Bucket   string        // LAPTIMER_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // LAPTIMER_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // LAPTIMER_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // LAPTIMER_SYNC_S3_KEY (default "laptimer/results.jsonl")
	SyncGitRepo    string        // LAPTIMER_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // LAPTIMER_SYNC_GIT_FILE (default "results.jsonl")
	SyncGitBranch  string        // LAPTIMER_SYNC_GIT_BRANCH (default "main")
}

// UseSQLite reports whether the two-file sqlite backend is configured.
func (c *Config) UseSQLite() bool {
	return c.DatabaseURL == "" && c.LapsDB != "" && c.TagsDB != ""
}

// AuthEnabled reports whether protected routes require credentials.
func (c *Config) AuthEnabled() bool {
	return c.WebUsername != ""
}

// fileConfig mirrors the optional TOML config file.
type fileConfig struct {
	Database struct {
		URL    string `toml:"url"`
		LapsDB string `toml:"laps_db"`
		TagsDB string `toml:"tags_db"`
	} `toml:"database"`
	NATS struct {
		URL                string `toml:"url"`
		SubjectStartStatus string `toml:"subject_start_status"`
		SubjectStopStatus  string `toml:"subject_stop_status"`
		SubjectTag         string `toml:"subject_tag"`
		SubjectStart       string `toml:"subject_start"`
		SubjectStop        string `toml:"subject_stop"`
	} `toml:"nats"`
	Web struct {
		Addr     string `toml:"addr"`
		Username string `toml:"username"`
		Password string `toml:"password"`
	} `toml:"web"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Sync struct {
		Interval   string `toml:"interval"`
		S3Bucket   string `toml:"s3_bucket"`
		S3Endpoint string `toml:"s3_endpoint"`
		S3Region   string `toml:"s3_region"`
		S3Key      string `toml:"s3_key"`
		GitRepo    string `toml:"git_repo"`
		GitFile    string `toml:"git_file"`
		GitBranch  string `toml:"git_branch"`
	} `toml:"sync"`
}

// Load reads the TOML file at path (skipped when path is empty) and applies
// LAPTIMER_* environment overrides on top. A store location is required.
func Load(path string) (*Config, error) {
	var f fileConfig
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	c := &Config{
		DatabaseURL: envOrDefault("LAPTIMER_DATABASE_URL", f.Database.URL),
		LapsDB:      envOrDefault("LAPTIMER_LAPS_DB", f.Database.LapsDB),
		TagsDB:      envOrDefault("LAPTIMER_TAGS_DB", f.Database.TagsDB),

		HTTPAddr:    envOrDefault("LAPTIMER_HTTP_ADDR", orDefault(f.Web.Addr, ":8080")),
		WebUsername: envOrDefault("LAPTIMER_WEB_USERNAME", f.Web.Username),
		WebPassword: envOrDefault("LAPTIMER_WEB_PASSWORD", f.Web.Password),
		LogLevel:    envOrDefault("LAPTIMER_LOG_LEVEL", orDefault(f.Log.Level, "info")),

		NATSURL: envOrDefault("LAPTIMER_NATS_URL", orDefault(f.NATS.URL, "nats://127.0.0.1:4222")),

		SubjectStartStatus: envOrDefault("LAPTIMER_SUBJECT_START_STATUS", orDefault(f.NATS.SubjectStartStatus, "gates.start.status")),
		SubjectStopStatus:  envOrDefault("LAPTIMER_SUBJECT_STOP_STATUS", orDefault(f.NATS.SubjectStopStatus, "gates.stop.status")),
		SubjectTag:         envOrDefault("LAPTIMER_SUBJECT_TAG", orDefault(f.NATS.SubjectTag, "gates.tag")),
		SubjectStart:       envOrDefault("LAPTIMER_SUBJECT_START", orDefault(f.NATS.SubjectStart, "gates.start.pulse")),
		SubjectStop:        envOrDefault("LAPTIMER_SUBJECT_STOP", orDefault(f.NATS.SubjectStop, "gates.stop.pulse")),

		SyncS3Bucket:   envOrDefault("LAPTIMER_SYNC_S3_BUCKET", f.Sync.S3Bucket),
		SyncS3Endpoint: envOrDefault("LAPTIMER_SYNC_S3_ENDPOINT", f.Sync.S3Endpoint),
		SyncS3Region:   envOrDefault("LAPTIMER_SYNC_S3_REGION", orDefault(f.Sync.S3Region, "us-east-1")),
		SyncS3Key:      envOrDefault("LAPTIMER_SYNC_S3_KEY", orDefault(f.Sync.S3Key, "laptimer/results.jsonl")),
		SyncGitRepo:    envOrDefault("LAPTIMER_SYNC_GIT_REPO", f.Sync.GitRepo),
		SyncGitFile:    envOrDefault("LAPTIMER_SYNC_GIT_FILE", orDefault(f.Sync.GitFile, "results.jsonl")),
		SyncGitBranch:  envOrDefault("LAPTIMER_SYNC_GIT_BRANCH", orDefault(f.Sync.GitBranch, "main")),
	}

	if c.DatabaseURL == "" && (c.LapsDB == "" || c.TagsDB == "") {
		return nil, fmt.Errorf("LAPTIMER_DATABASE_URL or both LAPTIMER_LAPS_DB and LAPTIMER_TAGS_DB are required")
	}
	if c.WebUsername != "" && c.WebPassword == "" {
		return nil, fmt.Errorf("LAPTIMER_WEB_PASSWORD is required when LAPTIMER_WEB_USERNAME is set")
	}

	intervalStr := envOrDefault("LAPTIMER_SYNC_INTERVAL", orDefault(f.Sync.Interval, "5m"))
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("LAPTIMER_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
