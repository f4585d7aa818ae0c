package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/routine-planner-api/internal/repository"
	"github.com/noah-isme/routine-planner-api/internal/service"
	"github.com/noah-isme/routine-planner-api/pkg/config"
	"github.com/noah-isme/routine-planner-api/pkg/logger"
)

type rootOptions struct {
	catalog  string
	timeout  time.Duration
	logLevel string
	asJSON   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "routinectl",
		Short:         "Plan clash-free class routines from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	catalogDefault, timeoutDefault := "", 15*time.Second
	if cfg, err := config.Load(); err == nil {
		catalogDefault, timeoutDefault = cfg.Catalog.FeedURL, cfg.Catalog.FetchTimeout
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.catalog, "catalog", catalogDefault, "catalog feed URL or JSON file")
	flags.DurationVar(&opts.timeout, "timeout", timeoutDefault, "catalog fetch timeout")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.asJSON, "json", false, "print JSON instead of tables")

	cmd.AddCommand(newParseCmd(opts), newSuggestCmd(opts), newGenerateCmd(opts))
	return cmd
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	return logger.NewCLI(o.logLevel)
}

// loadCatalog fetches the feed once and returns a loaded catalog service.
func (o *rootOptions) loadCatalog(ctx context.Context, logr *zap.Logger) (*service.CatalogService, error) {
	if o.catalog == "" {
		return nil, fmt.Errorf("no catalog source: pass --catalog or set CATALOG_FEED_URL")
	}
	feed := repository.NewCatalogFeedRepository(o.catalog, o.timeout, logr)
	catalog := service.NewCatalogService(feed, nil, nil, logr)
	if err := catalog.Refresh(ctx); err != nil {
		return nil, err
	}
	return catalog, nil
}
