package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for feedfilter.
//
// Fields:
//   - DBDriver / DatabaseDSN: record store ("sqlite" or "postgres") and its DSN.
//   - Workers: entries of one feed processed at once (1 = sequential).
//   - ExtractTimeout: bound on a single full-content extraction.
//   - UpsertAttempts: re-read/reconcile attempts after losing a write race.
//   - FeedID / ArticleIndex / ArticleURL / MaxArticles / Force: build selectors.
//   - SitesFile: YAML selector rules for the selector and classifieds extractors.
//   - RedisAddr / RedisPassword / RedisDB / CacheTTL: extraction cache; empty address disables it.
//   - OutputDir: local directory for feed documents; empty disables local output.
//   - S3*: object storage for feed documents; empty bucket disables upload.
//   - RetentionDays / ReportHours: prune age and hidden report window.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	DBDriver    string
	DatabaseDSN string

	Workers        int
	ExtractTimeout time.Duration
	UpsertAttempts int

	FeedID       int64
	ArticleIndex int
	ArticleURL   string
	MaxArticles  int
	Force        bool

	SitesFile string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OutputDir string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3RootUser     string
	S3RootPassword string

	RetentionDays int
	ReportHours   int

	LogLevel string
}

// LoadDefaults populates Config with development defaults: a local SQLite
// file, sequential builds and output to ./output.
func (c *Config) LoadDefaults() {
	c.DBDriver = "sqlite"
	c.DatabaseDSN = "feedfilter.db"
	c.Workers = 1
	c.ExtractTimeout = 30 * time.Second
	c.UpsertAttempts = 3
	c.CacheTTL = 24 * time.Hour
	c.OutputDir = "output"
	c.S3Region = "us-east-1"
	c.RetentionDays = 60
	c.ReportHours = 24
	c.LogLevel = "info"
}

// LoadConfig builds a Config from os.Args and the environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then the JSON file, environment and flags found in
// args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
