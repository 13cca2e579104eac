package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/feedfilter/internal/flagx"
	"github.com/dmitrijs2005/feedfilter/internal/timex"
)

// JsonConfig is the JSON file layout. Durations accept strings such as "30s"
// as well as integer nanoseconds. Pointer fields distinguish "absent" from
// zero values.
type JsonConfig struct {
	DBDriver       string          `json:"db_driver"`
	DatabaseDSN    string          `json:"database_dsn"`
	Workers        *int            `json:"workers"`
	ExtractTimeout *timex.Duration `json:"extract_timeout"`
	UpsertAttempts *int            `json:"upsert_attempts"`
	SitesFile      string          `json:"sites_file"`
	RedisAddr      string          `json:"redis_addr"`
	RedisPassword  string          `json:"redis_password"`
	RedisDB        *int            `json:"redis_db"`
	CacheTTL       *timex.Duration `json:"cache_ttl"`
	OutputDir      *string         `json:"output_dir"`
	S3Bucket       string          `json:"s3_bucket"`
	S3Region       string          `json:"s3_region"`
	S3BaseEndpoint string          `json:"s3_base_endpoint"`
	S3RootUser     string          `json:"s3_root_user"`
	S3RootPassword string          `json:"s3_root_password"`
	RetentionDays  *int            `json:"retention_days"`
	ReportHours    *int            `json:"report_hours"`
	LogLevel       string          `json:"log_level"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.DBDriver, c.DBDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setInt(&config.Workers, c.Workers)
	if c.ExtractTimeout != nil {
		config.ExtractTimeout = c.ExtractTimeout.Duration
	}
	setInt(&config.UpsertAttempts, c.UpsertAttempts)
	setString(&config.SitesFile, c.SitesFile)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	if c.CacheTTL != nil {
		config.CacheTTL = c.CacheTTL.Duration
	}
	if c.OutputDir != nil {
		config.OutputDir = *c.OutputDir
	}
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setInt(&config.RetentionDays, c.RetentionDays)
	setInt(&config.ReportHours, c.ReportHours)
	setString(&config.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
