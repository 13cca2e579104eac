// Command feedfilter builds filtered copies of syndication feeds.
//
// Usage:
//
//	feedfilter [build|report|prune] [flags]
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/feedfilter/internal/app"
	"github.com/dmitrijs2005/feedfilter/internal/config"
	"github.com/dmitrijs2005/feedfilter/internal/flagx"
	"github.com/dmitrijs2005/feedfilter/internal/logging"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	command, _ := flagx.Command(os.Args[1:])

	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = a.Run(ctx, command)
	if cerr := a.Close(); cerr != nil {
		logger.Warn(ctx, "close", "err", cerr)
	}
	if err != nil {
		logger.Error(ctx, "feedfilter failed", "command", command, "err", err)
		os.Exit(1)
	}
}
