// Package app wires the feedfilter components from configuration and runs
// the build, report and prune commands.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/build"
	"github.com/dmitrijs2005/feedfilter/internal/config"
	"github.com/dmitrijs2005/feedfilter/internal/extractors"
	"github.com/dmitrijs2005/feedfilter/internal/logging"
	"github.com/dmitrijs2005/feedfilter/internal/publish"
	"github.com/dmitrijs2005/feedfilter/internal/reconcile"
	"github.com/dmitrijs2005/feedfilter/internal/reports"
	"github.com/dmitrijs2005/feedfilter/internal/repositories/repomanager"
	"github.com/dmitrijs2005/feedfilter/internal/retention"
	"github.com/dmitrijs2005/feedfilter/internal/source"
	"github.com/dmitrijs2005/feedfilter/internal/store"
)

const (
	CommandBuild  = "build"
	CommandReport = "report"
	CommandPrune  = "prune"
)

var ErrUnknownCommand = errors.New("unknown command")

type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer

	db      *sql.DB
	repos   repomanager.RepositoryManager
	driver  *Driver
	closers []func() error
}

// NewApp opens and migrates the store and builds the extractor registry,
// the build pipeline and the configured publishers.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	db, repos, err := repomanager.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app := &App{config: cfg, logger: logger, out: os.Stdout, db: db, repos: repos}
	app.closers = append(app.closers, db.Close)

	registry, err := app.newRegistry(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	engine := reconcile.NewEngine(registry,
		reconcile.WithExtractTimeout(cfg.ExtractTimeout),
		reconcile.WithLogger(logger.With("module", "reconcile")),
	)
	st := store.New(repos.Articles(db), store.WithLogger(logger.With("module", "store")))
	orch := build.NewOrchestrator(st, engine, logger.With("module", "build"))

	app.driver = NewDriver(
		repos.Feeds(db),
		repos.Filters(db),
		source.NewReader(nil),
		orch,
		app.newPublisher(),
		logger,
	)
	return app, nil
}

func (app *App) newRegistry(ctx context.Context) (*extractors.Registry, error) {
	cfg := app.config

	var sites extractors.Sites
	if cfg.SitesFile != "" {
		var err error
		if sites, err = extractors.LoadSites(cfg.SitesFile); err != nil {
			return nil, fmt.Errorf("selector sites: %w", err)
		}
	}

	client := &http.Client{Timeout: cfg.ExtractTimeout}
	readability := extractors.NewReadability(client)
	list := []extractors.Extractor{
		readability,
		extractors.NewSelector(client, sites),
		extractors.NewClassifieds(client, sites),
		extractors.NewReddit(client, readability),
	}

	if cfg.RedisAddr != "" {
		cache, err := extractors.NewRedisCache(ctx, extractors.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("extraction cache: %w", err)
		}
		app.closers = append(app.closers, cache.Close)

		log := app.logger.With("module", "cache")
		for i, e := range list {
			list[i] = extractors.NewCached(e, cache, cfg.CacheTTL, log)
		}
	}

	return extractors.NewRegistry(list...), nil
}

func (app *App) newPublisher() publish.Publisher {
	cfg := app.config

	var m publish.Multi
	if cfg.OutputDir != "" {
		m = append(m, publish.NewFilePublisher(cfg.OutputDir))
	}
	if cfg.S3Bucket != "" {
		m = append(m, publish.NewS3Publisher(publish.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3BaseEndpoint,
			User:     cfg.S3RootUser,
			Password: cfg.S3RootPassword,
		}))
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// Close releases the store and cache connections.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) buildOptions() build.Options {
	return build.Options{
		EntryIndex:     app.config.ArticleIndex,
		URLContains:    app.config.ArticleURL,
		MaxEntries:     app.config.MaxArticles,
		Force:          app.config.Force,
		Concurrency:    app.config.Workers,
		UpsertAttempts: app.config.UpsertAttempts,
	}
}

// Run executes command until it finishes or a termination signal arrives.
// An empty command means build.
func (app *App) Run(ctx context.Context, command string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting feedfilter", "command", command)

	switch command {
	case CommandBuild, "":
		return app.runBuild(ctx)
	case CommandReport:
		return app.runReport(ctx)
	case CommandPrune:
		return app.runPrune(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

func (app *App) runBuild(ctx context.Context) error {
	opts := app.buildOptions()
	if app.config.FeedID != 0 {
		_, err := app.driver.BuildFeed(ctx, app.config.FeedID, opts)
		return err
	}

	started := time.Now()
	results, err := app.driver.BuildAll(ctx, opts)
	if err != nil {
		return err
	}
	failed := Failed(results)
	app.logger.Info(ctx, "build finished",
		"feeds", len(results),
		"failed", len(failed),
		"elapsed", time.Since(started).String(),
	)
	return nil
}

func (app *App) runReport(ctx context.Context) error {
	window := time.Duration(app.config.ReportHours) * time.Hour
	rep, err := reports.NewHidden(app.repos.Feeds(app.db), app.repos.Articles(app.db)).
		Build(ctx, window, app.config.FeedID)
	if err != nil {
		return err
	}
	return WriteHiddenReport(app.out, rep)
}

func (app *App) runPrune(ctx context.Context) error {
	n, err := retention.NewPruner(app.db, app.repos.Articles).Prune(ctx, app.config.RetentionDays)
	if err != nil {
		return err
	}
	app.logger.Info(ctx, "pruned article records", "deleted", n, "days", app.config.RetentionDays)
	return nil
}

// WriteHiddenReport prints rep as plain text, one block per feed.
func WriteHiddenReport(w io.Writer, rep *reports.HiddenReport) error {
	if _, err := fmt.Fprintf(w, "Hidden articles since %s: %d\n", rep.Since.Format(time.RFC3339), rep.Total); err != nil {
		return err
	}
	for _, fh := range rep.Feeds {
		if _, err := fmt.Fprintf(w, "\n%s (%d)\n", fh.Feed.Name, len(fh.Articles)); err != nil {
			return err
		}
		for _, a := range fh.Articles {
			if _, err := fmt.Fprintf(w, "  - %s\n    %s\n    keywords: %v\n", a.Title, a.URL, a.HiddenKeywords); err != nil {
				return err
			}
		}
	}
	return nil
}
