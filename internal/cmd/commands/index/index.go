package index

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/Zheaoli/hexo-algoliasearch/internal/cmd/base"
	"github.com/Zheaoli/hexo-algoliasearch/internal/config"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/content"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/content/hexodb"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/database"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/filter"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/indexer"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/metrics"
	"github.com/Zheaoli/hexo-algoliasearch/pkg/search"
	algoliaadapter "github.com/Zheaoli/hexo-algoliasearch/pkg/search/adapters/algolia"
	bleveadapter "github.com/Zheaoli/hexo-algoliasearch/pkg/search/adapters/bleve"
	meiliadapter "github.com/Zheaoli/hexo-algoliasearch/pkg/search/adapters/meilisearch"
)

type Command struct {
	*base.Command

	flagConfig   string
	flagNoClear  bool
	flagLogLevel string
}

func (c *Command) Synopsis() string {
	return "Index the site's posts and pages"
}

func (c *Command) Help() string {
	return `Usage: hexo-algoliasearch index [options]

  This command generates the site, transforms every published post and every
  page into a search document and uploads them to the configured index. The
  index is cleared first unless -no-clear is given.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("index", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "_config.yml",
		"Path to the `file` to load: an HCL config or the site's _config.yml",
	)
	f.BoolVar(
		&c.flagNoClear, "no-clear", false,
		"Do not clear the index before uploading.",
	)
	f.BoolVar(
		&c.flagNoClear, "n", false,
		"Shorthand for -no-clear.",
	)
	f.StringVar(
		&c.flagLogLevel, "log-level", "info",
		"Log `level`: trace, debug, info, warn or error.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	level := hclog.LevelFromString(c.flagLogLevel)
	if level == hclog.NoLevel {
		ui.Error(fmt.Sprintf("invalid log level %q", c.flagLogLevel))
		return 1
	}
	c.Log.SetLevel(level)
	logger := c.Log.Named("index")

	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx, closeIndex, err := newIndex(cfg)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing search backend: %v", err))
		return 1
	}
	defer closeIndex()

	var generator content.Generator = content.NopGenerator{}
	if command := cfg.GenerateCommand(); len(command) > 0 {
		generator = &hexodb.CommandGenerator{
			Command: command,
			Dir:     cfg.SiteDir,
			Logger:  logger.Named("generate"),
		}
	}

	opts := []indexer.Option{
		indexer.WithLogger(logger),
		indexer.WithStore(hexodb.New(afero.NewOsFs(), cfg.WarehousePath())),
		indexer.WithGenerator(generator),
		indexer.WithIndex(idx, cfg.IndexName()),
		indexer.WithFilterRegistry(filter.NewRegistry()),
		indexer.WithPostFields(cfg.PostSelection),
		indexer.WithPageFields(cfg.PageSelection),
		indexer.WithChunkSize(cfg.ChunkSize),
		indexer.WithMaxConcurrentUploads(cfg.MaxConcurrentUploads),
		indexer.WithSkipClear(c.flagNoClear),
	}

	if cfg.History != nil {
		db, err := database.Connect(database.Config{
			Driver: cfg.History.Driver,
			DSN:    cfg.History.DSN,
		}, logger)
		if err != nil {
			ui.Error(fmt.Sprintf("error connecting to history database: %v", err))
			return 1
		}
		defer database.Close(db)
		opts = append(opts, indexer.WithDatabase(db))
	}

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.New()
		opts = append(opts, indexer.WithMetrics(recorder))
	}

	orchestrator, err := indexer.NewOrchestrator(opts...)
	if err != nil {
		ui.Error(fmt.Sprintf("error creating indexer: %v", err))
		return 1
	}

	res, runErr := orchestrator.Run(ctx)

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics file", "path", cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		ui.Error(fmt.Sprintf("indexing failed: %v", runErr))
		return 1
	}

	if res.Posts == 0 {
		ui.Warn("No published posts found, index left untouched")
		return 0
	}
	ui.Info(fmt.Sprintf("%d posts indexed", res.Posts))
	return 0
}

// newIndex creates the configured search backend and a function releasing it.
func newIndex(cfg *config.Config) (search.Index, func(), error) {
	switch search.ProviderType(cfg.Backend) {
	case search.ProviderTypeAlgolia:
		adapter, err := algoliaadapter.NewAdapter(&algoliaadapter.Config{
			AppID:        cfg.Algolia.AppID,
			AdminAPIKey:  cfg.Algolia.AdminAPIKey,
			IndexName:    cfg.Algolia.IndexName,
			WaitForTasks: cfg.Algolia.WaitForTasks,
		})
		if err != nil {
			return nil, nil, err
		}
		return adapter, func() {}, nil

	case search.ProviderTypeBleve:
		adapter, err := bleveadapter.NewAdapter(&bleveadapter.Config{
			IndexPath: cfg.Bleve.IndexPath,
		})
		if err != nil {
			return nil, nil, err
		}
		return adapter, func() { adapter.Close() }, nil

	case search.ProviderTypeMeilisearch:
		adapter, err := meiliadapter.NewAdapter(&meiliadapter.Config{
			Host:         cfg.Meilisearch.Host,
			APIKey:       cfg.Meilisearch.APIKey,
			IndexName:    cfg.Meilisearch.IndexName,
			WaitForTasks: cfg.Meilisearch.WaitForTasks,
		})
		if err != nil {
			return nil, nil, err
		}
		return adapter, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported search backend %q", cfg.Backend)
	}
}
