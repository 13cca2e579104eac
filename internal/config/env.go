package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "FEEDFILTER_"

var (
	lookupEnv = os.LookupEnv
	envFile   = ".env"
)

// parseEnv loads .env (when present) into the process environment and then
// overlays FEEDFILTER_* variables. Variables already set in the environment
// win over the .env file.
func parseEnv(config *Config) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	strs := map[string]*string{
		"DB_DRIVER":        &config.DBDriver,
		"DATABASE_DSN":     &config.DatabaseDSN,
		"ARTICLE_URL":      &config.ArticleURL,
		"SITES_FILE":       &config.SitesFile,
		"REDIS_ADDR":       &config.RedisAddr,
		"REDIS_PASSWORD":   &config.RedisPassword,
		"OUTPUT_DIR":       &config.OutputDir,
		"S3_BUCKET":        &config.S3Bucket,
		"S3_REGION":        &config.S3Region,
		"S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
		"S3_ROOT_USER":     &config.S3RootUser,
		"S3_ROOT_PASSWORD": &config.S3RootPassword,
		"LOG_LEVEL":        &config.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WORKERS":         &config.Workers,
		"UPSERT_ATTEMPTS": &config.UpsertAttempts,
		"ARTICLE_INDEX":   &config.ArticleIndex,
		"MAX_ARTICLES":    &config.MaxArticles,
		"REDIS_DB":        &config.RedisDB,
		"RETENTION_DAYS":  &config.RetentionDays,
		"REPORT_HOURS":    &config.ReportHours,
	}
	for name, dst := range ints {
		v, ok := lookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"EXTRACT_TIMEOUT": &config.ExtractTimeout,
		"CACHE_TTL":       &config.CacheTTL,
	}
	for name, dst := range durations {
		v, ok := lookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}

	if v, ok := lookupEnv(envPrefix + "FEED_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sFEED_ID: %w", envPrefix, err)
		}
		config.FeedID = id
	}
	if v, ok := lookupEnv(envPrefix + "FORCE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sFORCE: %w", envPrefix, err)
		}
		config.Force = b
	}

	return nil
}
