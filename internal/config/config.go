// Package config loads server settings from FLOW_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultPersistenceKey is the key the flow snapshot is stored under.
const DefaultPersistenceKey = "react-flow-persistence"

type Config struct {
	HTTPAddr       string // FLOW_HTTP_ADDR (default ":8080")
	DatabaseURL    string // FLOW_DATABASE_URL (optional; Postgres is used when set)
	SQLitePath     string // FLOW_SQLITE_PATH (default "flowgraph.db"; used without a database URL)
	PersistenceKey string // FLOW_PERSISTENCE_KEY (default "react-flow-persistence")
	NATSURL        string // FLOW_NATS_URL (optional, empty = no events)
	AuthToken      string // FLOW_AUTH_TOKEN (optional, empty = auth disabled)
	LogEvents      bool   // FLOW_LOG_EVENTS (log every committed flow event)

	// Sync settings
	SyncInterval   time.Duration // FLOW_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // FLOW_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // FLOW_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // FLOW_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // FLOW_SYNC_S3_KEY (default "flowgraph/backup.jsonl")
	SyncGitRepo    string        // FLOW_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // FLOW_SYNC_GIT_FILE (default "flowgraph.jsonl")
	SyncGitBranch  string        // FLOW_SYNC_GIT_BRANCH (default "main")
}

// UsePostgres reports whether a Postgres database URL is configured.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:       envOrDefault("FLOW_HTTP_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("FLOW_DATABASE_URL"),
		SQLitePath:     envOrDefault("FLOW_SQLITE_PATH", "flowgraph.db"),
		PersistenceKey: envOrDefault("FLOW_PERSISTENCE_KEY", DefaultPersistenceKey),
		NATSURL:        os.Getenv("FLOW_NATS_URL"),
		AuthToken:      os.Getenv("FLOW_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("FLOW_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("FLOW_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("FLOW_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("FLOW_SYNC_S3_KEY", "flowgraph/backup.jsonl"),
		SyncGitRepo:    os.Getenv("FLOW_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("FLOW_SYNC_GIT_FILE", "flowgraph.jsonl"),
		SyncGitBranch:  envOrDefault("FLOW_SYNC_GIT_BRANCH", "main"),
	}

	intervalStr := envOrDefault("FLOW_SYNC_INTERVAL", "3m")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("FLOW_SYNC_INTERVAL: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("FLOW_SYNC_INTERVAL: must not be negative, got %s", d)
	}
	c.SyncInterval = d

	if v := os.Getenv("FLOW_LOG_EVENTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("FLOW_LOG_EVENTS: %w", err)
		}
		c.LogEvents = b
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
