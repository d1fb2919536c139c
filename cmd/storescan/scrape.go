package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/masonlabs/storescan/internal/checkpoint"
	"github.com/masonlabs/storescan/internal/config"
	"github.com/masonlabs/storescan/internal/database"
	"github.com/masonlabs/storescan/internal/extract"
	"github.com/masonlabs/storescan/internal/fetch"
	"github.com/masonlabs/storescan/internal/images"
	"github.com/masonlabs/storescan/internal/log"
	"github.com/masonlabs/storescan/internal/model"
	"github.com/masonlabs/storescan/internal/report"
	"github.com/masonlabs/storescan/internal/scraper"
	"github.com/masonlabs/storescan/internal/sitemap"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the product catalog",
		Long: `Scrape walks the product URLs from the site's sitemap, fetches each
detail page, extracts a structured product record, downloads product
images, and writes products.json, products.csv and report.md into the
output directory.

Progress is checkpointed to <output>/progress.json every few products
and on interrupt (Ctrl-C), so a stopped run continues with --resume
instead of refetching everything.

Examples:
  # Full catalog scrape with defaults
  storescan scrape

  # Continue an interrupted run
  storescan scrape --resume

  # Selector dry-run against the first 10 products
  storescan scrape --limit 10 --skip-images

  # Scrape from a locally saved sitemap
  storescan scrape --sitemap ./sitemap.xml

Configuration file (.storescan.yaml) example:
  baseURL: https://masonstores.com
  cookie: "session=abc123"
  headers:
    Authorization: "Bearer token"
  delayMin: 3s
  delayMax: 6s`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Root URL of the target site")
	cmd.Flags().StringP("sitemap", "s", "",
		"Sitemap location: URL or local file (default: <base-url>/sitemap.xml)")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory for exports, images and the checkpoint")
	cmd.Flags().BoolP("resume", "r", false,
		"Resume from the previous checkpoint instead of starting fresh")
	cmd.Flags().IntP("limit", "n", 0,
		"Stop after scraping this many products (0 = all)")
	cmd.Flags().Duration("delay-min", config.DefaultDelayMin,
		"Minimum delay between detail page requests")
	cmd.Flags().Duration("delay-max", config.DefaultDelayMax,
		"Maximum delay between detail page requests")
	cmd.Flags().Int("checkpoint-interval", config.DefaultCheckpointInterval,
		"Products between checkpoint saves")
	cmd.Flags().Int("image-concurrency", config.DefaultImageConcurrency,
		"Concurrent image downloads")
	cmd.Flags().Bool("skip-images", false,
		"Skip the image download phase")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .storescan.yaml in current or home directory)")
	cmd.Flags().Bool("ignore-robots", false,
		"Skip the robots.txt check")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the run-history database")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildScrapeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Cancel the run on SIGINT/SIGTERM; the fetch loop checkpoints
	// before unwinding, and partial results are exported below.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("received shutdown signal, finishing up...")
		cancel()
	}()

	return runScrape(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildScrapeConfig layers defaults, the config file, environment
// variables, and flags, in that order.
func buildScrapeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	explicitConfigPath := configPath != ""

	if found := config.FindConfigFile(configPath); found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	// Flags win over the file and environment, but only when set.
	flags := cmd.Flags()
	if flags.Changed("base-url") || cfg.BaseURL == "" {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay-min") {
		if cfg.DelayMin, err = flags.GetDuration("delay-min"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay-max") {
		if cfg.DelayMax, err = flags.GetDuration("delay-max"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("checkpoint-interval") {
		if cfg.CheckpointInterval, err = flags.GetInt("checkpoint-interval"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("image-concurrency") {
		if cfg.ImageConcurrency, err = flags.GetInt("image-concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("ignore-robots") {
		if cfg.IgnoreRobots, err = flags.GetBool("ignore-robots"); err != nil {
			return nil, err
		}
	}

	if cfg.SitemapPath == "" || flags.Changed("sitemap") {
		if cfg.SitemapPath, err = flags.GetString("sitemap"); err != nil {
			return nil, err
		}
	}
	if cfg.SitemapPath == "" {
		cfg.SitemapPath = cfg.BaseURL + "/sitemap.xml"
	}

	if flags.Changed("output") || cfg.OutputDir == "" {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("limit") {
		if cfg.Limit, err = flags.GetInt("limit"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("skip-images") {
		if cfg.SkipImages, err = flags.GetBool("skip-images"); err != nil {
			return nil, err
		}
	}
	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory

	return cfg, nil
}

// newFetcher builds the shared page/image fetcher from the config.
func newFetcher(cfg *config.Config, logger *slog.Logger) *fetch.Fetcher {
	return fetch.New(cfg.BaseURL,
		fetch.WithDelayRange(cfg.DelayMin, cfg.DelayMax),
		fetch.WithRetry(cfg.RetryCount, cfg.RetryWaitMin, cfg.RetryWaitMax),
		fetch.WithTimeout(cfg.RequestTimeout),
		fetch.WithHeaders(cfg.Headers),
		fetch.WithCookie(cfg.Cookie),
		fetch.WithLogger(logger),
	)
}

// runScrape executes a full scrape run with the given configuration.
func runScrape(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	store := checkpoint.New(cfg.OutputDir)

	state := model.NewRunState()
	if cfg.Resume {
		loaded, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		state = loaded
		logger.Info("resuming from checkpoint",
			"processed", state.ProcessedCount(),
			"records", len(state.Records),
		)
	}

	fetcher := newFetcher(cfg, logger)

	extractor, err := extract.New(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	source := &sitemap.Source{BaseHost: hostOf(cfg.BaseURL)}

	pipe := scraper.New(scraper.WithLogger(logger))
	pipe.AddStep(scraper.NewLoadURLsStep(fetcher, source, cfg.SitemapPath))
	pipe.AddStep(scraper.NewFetchDetailsStep(fetcher, extractor, store,
		scraper.WithCheckpointInterval(cfg.CheckpointInterval),
		scraper.WithBreakSchedule(cfg.BreakInterval, cfg.BreakMin, cfg.BreakMax),
		scraper.WithLimit(cfg.Limit),
		scraper.WithRobotsCheck(!cfg.IgnoreRobots),
		scraper.WithFetchLogger(logger),
	))
	if !cfg.SkipImages {
		downloader := images.New(fetcher, filepath.Join(cfg.OutputDir, "images"),
			images.WithConcurrency(cfg.ImageConcurrency),
			images.WithPacing(cfg.ImageDelay),
			images.WithLogger(logger),
		)
		pipe.AddStep(scraper.NewDownloadImagesStep(downloader, store, logger))
	}
	pipe.AddStep(scraper.NewExportStep(cfg.OutputDir))

	run := scraper.NewRun(state)
	execErr := pipe.Execute(ctx, run)

	// An interrupted run skips the export step, but the records scraped
	// so far are still worth writing out.
	if run.Summary.Interrupted && len(run.State.Records) > 0 {
		if err := scraper.NewExportStep(cfg.OutputDir).Do(context.Background(), run); err != nil {
			logger.Error("export of partial results failed", "error", err)
		}
	}

	if err := report.WriteFile(cfg.OutputDir, run.Summary); err != nil {
		logger.Error("report write failed", "error", err)
	}

	if cfg.SaveHistory {
		recordRunHistory(cfg.DBDir, run, logger)
	}

	printRunSummary(out, run.Summary)

	if execErr != nil && !errors.Is(execErr, context.Canceled) {
		return execErr
	}
	return nil
}

// recordRunHistory inserts the run summary and its per-URL fetch
// outcomes into the history database. History is best-effort: a
// failure is logged, never fatal.
func recordRunHistory(dbDir string, run *scraper.Run, logger *slog.Logger) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		logger.Error("failed to open run history database", "error", err)
		return
	}
	defer db.Close()

	id, err := db.InsertRun(context.Background(), run.Summary)
	if err != nil {
		logger.Error("failed to record run history", "error", err)
		return
	}
	if err := db.InsertFetches(context.Background(), id, run.Fetches); err != nil {
		logger.Error("failed to record fetch outcomes", "error", err)
	}
}

// printRunSummary writes a short human-readable summary to stdout.
func printRunSummary(out io.Writer, summary *model.RunSummary) {
	status := "complete"
	if summary.Interrupted {
		status = "interrupted (resume with: storescan scrape --resume)"
	}

	fmt.Fprintf(out, "Run %s in %s\n", status, summary.Elapsed().Round(time.Second))
	fmt.Fprintf(out, "  products: %d/%d scraped, %d errors\n",
		summary.Scraped, summary.TotalURLs, summary.Errors)
	fmt.Fprintf(out, "  images:   %d downloaded, %d skipped, %d failed\n",
		summary.ImagesDownloaded, summary.ImagesSkipped, summary.ImagesFailed)
}

// hostOf extracts the host part of a URL, for sitemap host filtering.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
