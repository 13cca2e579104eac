package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/feedfilter/internal/flagx"
)

var allowedFlags = []string{
	"-driver", "-d", "-w", "-x", "-attempts",
	"-feed", "-f", "-article", "-a", "-url", "-max", "-m",
	"-sites", "-redis", "-redis-password", "-redis-db", "-cache-ttl",
	"-o", "-b", "-g", "-e", "-u", "-p",
	"-days", "-hours", "-log-level",
}

// parseFlags overlays command-line flags. Unknown arguments are ignored so
// the same args can be shared with other layers.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DBDriver, "driver", config.DBDriver, "record store driver (sqlite or postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.Workers, "w", config.Workers, "entries processed concurrently per feed")
	fs.DurationVar(&config.ExtractTimeout, "x", config.ExtractTimeout, "full-content extraction timeout")
	fs.IntVar(&config.UpsertAttempts, "attempts", config.UpsertAttempts, "upsert attempts after a version conflict")

	fs.Int64Var(&config.FeedID, "feed", config.FeedID, "feed id to build (0 = all)")
	fs.Int64Var(&config.FeedID, "f", config.FeedID, "feed id to build (short)")
	fs.IntVar(&config.ArticleIndex, "article", config.ArticleIndex, "only build the entry at this 1-based index")
	fs.IntVar(&config.ArticleIndex, "a", config.ArticleIndex, "entry index (short)")
	fs.StringVar(&config.ArticleURL, "url", config.ArticleURL, "only build entries whose link matches")
	fs.IntVar(&config.MaxArticles, "max", config.MaxArticles, "only build the first N entries")
	fs.IntVar(&config.MaxArticles, "m", config.MaxArticles, "max entries (short)")
	fs.BoolVar(&config.Force, "force", config.Force, "force full-content re-extraction")

	fs.StringVar(&config.SitesFile, "sites", config.SitesFile, "selector rules YAML file")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for the extraction cache")
	fs.StringVar(&config.RedisPassword, "redis-password", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "redis-db", config.RedisDB, "redis database")
	fs.DurationVar(&config.CacheTTL, "cache-ttl", config.CacheTTL, "extraction cache TTL")

	fs.StringVar(&config.OutputDir, "o", config.OutputDir, "output directory for feed documents")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")

	fs.IntVar(&config.RetentionDays, "days", config.RetentionDays, "prune records older than this many days")
	fs.IntVar(&config.ReportHours, "hours", config.ReportHours, "hidden report window in hours")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	return fs.Parse(flagx.FilterArgs(args, allowedFlags, "-force"))
}
