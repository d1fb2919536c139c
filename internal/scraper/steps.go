package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/masonlabs/storescan/internal/checkpoint"
	"github.com/masonlabs/storescan/internal/export"
	"github.com/masonlabs/storescan/internal/extract"
	"github.com/masonlabs/storescan/internal/fetch"
	"github.com/masonlabs/storescan/internal/images"
	"github.com/masonlabs/storescan/internal/model"
	"github.com/masonlabs/storescan/internal/sitemap"
)

// LoadURLsStep fills the pending queue from the sitemap.
//
// The sitemap source is either a local file path or an HTTP(S) URL;
// URLs already marked processed in a resumed run are skipped, so the
// queue only ever holds unfetched products.
type LoadURLsStep struct {
	fetcher *fetch.Fetcher
	source  *sitemap.Source

	// path is the sitemap location: a URL when it has an http(s)
	// scheme, otherwise a local file path.
	path string
}

// NewLoadURLsStep creates the URL-loading step.
func NewLoadURLsStep(fetcher *fetch.Fetcher, source *sitemap.Source, path string) *LoadURLsStep {
	return &LoadURLsStep{fetcher: fetcher, source: source, path: path}
}

// Name returns the step name.
func (s *LoadURLsStep) Name() string {
	return "load_urls"
}

// Do loads and parses the sitemap, then seeds the pending queue.
func (s *LoadURLsStep) Do(ctx context.Context, run *Run) error {
	var (
		urls []string
		err  error
	)

	if strings.HasPrefix(s.path, "http://") || strings.HasPrefix(s.path, "https://") {
		var body []byte
		body, err = s.fetcher.GetPage(ctx, s.path)
		if err != nil {
			return fmt.Errorf("fetch sitemap: %w", err)
		}
		urls, err = s.source.ProductURLs(bytes.NewReader(body))
	} else {
		urls, err = s.source.ProductURLsFromFile(s.path)
	}
	if err != nil {
		return fmt.Errorf("parse sitemap: %w", err)
	}

	run.State.SetPending(urls)
	run.Summary.SitemapSource = s.path
	run.Summary.TotalURLs = len(urls)
	return nil
}

// FetchDetailsStep walks the pending queue sequentially: fetch each
// detail page, extract a product record, mark the URL processed.
//
// Per-item failures are counted and logged, never fatal. The step
// checkpoints every checkpointInterval products and once more before
// returning, including on cancellation, so an interrupted run loses at
// most the in-flight page.
type FetchDetailsStep struct {
	fetcher   *fetch.Fetcher
	extractor *extract.Extractor
	store     *checkpoint.Store

	checkpointInterval int
	breakInterval      int
	breakMin           time.Duration
	breakMax           time.Duration
	limit              int
	checkRobots        bool
	logger             *slog.Logger
}

// FetchDetailsOption configures a FetchDetailsStep.
type FetchDetailsOption func(*FetchDetailsStep)

// WithCheckpointInterval sets how many products are processed between
// checkpoint saves.
func WithCheckpointInterval(n int) FetchDetailsOption {
	return func(s *FetchDetailsStep) {
		if n > 0 {
			s.checkpointInterval = n
		}
	}
}

// WithBreakSchedule pauses for a random duration in [min, max] every n
// products. n of 0 disables breaks.
func WithBreakSchedule(n int, min, max time.Duration) FetchDetailsOption {
	return func(s *FetchDetailsStep) {
		s.breakInterval = n
		s.breakMin = min
		s.breakMax = max
	}
}

// WithLimit caps how many products this run processes. 0 means all.
func WithLimit(n int) FetchDetailsOption {
	return func(s *FetchDetailsStep) {
		s.limit = n
	}
}

// WithRobotsCheck enables the robots.txt check before the loop starts.
func WithRobotsCheck(enabled bool) FetchDetailsOption {
	return func(s *FetchDetailsStep) {
		s.checkRobots = enabled
	}
}

// WithFetchLogger sets a custom logger for the fetch loop.
func WithFetchLogger(logger *slog.Logger) FetchDetailsOption {
	return func(s *FetchDetailsStep) {
		s.logger = logger
	}
}

// NewFetchDetailsStep creates the detail-fetching step.
func NewFetchDetailsStep(fetcher *fetch.Fetcher, extractor *extract.Extractor, store *checkpoint.Store, opts ...FetchDetailsOption) *FetchDetailsStep {
	s := &FetchDetailsStep{
		fetcher:            fetcher,
		extractor:          extractor,
		store:              store,
		checkpointInterval: 25,
		breakInterval:      100,
		breakMin:           30 * time.Second,
		breakMax:           60 * time.Second,
		checkRobots:        true,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FetchDetailsStep) Name() string {
	return "fetch_details"
}

// Do runs the fetch loop until the queue is empty, the limit is hit,
// or the context is cancelled. State is checkpointed before every
// return path.
func (s *FetchDetailsStep) Do(ctx context.Context, run *Run) error {
	if s.checkRobots {
		if err := s.fetcher.CheckRobots(ctx); err != nil {
			// Unreachable robots.txt is not a reason to abort; the
			// fetcher then permits everything, like a 404 would.
			s.logger.Warn("robots.txt check failed", "error", err)
		}
	}

	// Snapshot the queue: MarkProcessed mutates Pending as we go.
	queue := make([]string, len(run.State.Pending))
	copy(queue, run.State.Pending)

	start := time.Now()
	var stats loopStats
	handled := 0
	for _, pageURL := range queue {
		if s.limit > 0 && handled >= s.limit {
			s.logger.Info("product limit reached", "limit", s.limit)
			break
		}

		select {
		case <-ctx.Done():
			run.Summary.Interrupted = true
			if err := s.store.Save(run.State); err != nil {
				s.logger.Error("checkpoint on interrupt failed", "error", err)
			}
			return ctx.Err()
		default:
		}

		if !s.fetcher.Allowed(pageURL) {
			s.logger.Warn("skipping URL disallowed by robots.txt", "url", pageURL)
			run.State.MarkProcessed(pageURL)
			continue
		}

		if err := s.processOne(ctx, run, pageURL, &stats); err != nil {
			// The fetch was aborted by cancellation, not refused by the
			// site. The URL stays pending so a resumed run retries it.
			run.Summary.Interrupted = true
			if saveErr := s.store.Save(run.State); saveErr != nil {
				s.logger.Error("checkpoint on interrupt failed", "error", saveErr)
			}
			return err
		}
		run.State.MarkProcessed(pageURL)
		handled++

		if handled%s.checkpointInterval == 0 {
			if err := s.store.Save(run.State); err != nil {
				s.logger.Error("checkpoint save failed", "error", err)
			} else {
				s.logger.Info("checkpoint saved",
					"processed", run.State.ProcessedCount(),
					"records", len(run.State.Records),
					"fetch_errors", stats.fetchErrors,
					"extract_errors", stats.extractErrors,
					"eta", etaFor(start, handled, run.State.Remaining()),
				)
			}
		}

		if s.breakInterval > 0 && handled%s.breakInterval == 0 && run.State.Remaining() > 0 {
			if err := s.fetcher.Break(ctx, s.breakMin, s.breakMax); err != nil {
				run.Summary.Interrupted = true
				if saveErr := s.store.Save(run.State); saveErr != nil {
					s.logger.Error("checkpoint on interrupt failed", "error", saveErr)
				}
				return err
			}
		}
	}

	if err := s.store.Save(run.State); err != nil {
		return fmt.Errorf("final checkpoint: %w", err)
	}
	return nil
}

// loopStats breaks the run's error count down by phase for progress
// logging.
type loopStats struct {
	fetchErrors   int
	extractErrors int
}

// processOne fetches and extracts a single product page. Page and
// extraction failures are counted in the run state and logged; the only
// returned error is cancellation, which means the page was never served
// and must stay pending.
func (s *FetchDetailsStep) processOne(ctx context.Context, run *Run, pageURL string, stats *loopStats) error {
	body, err := s.fetcher.GetPage(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("fetch failed", "url", pageURL, "error", err)
		run.State.ErrorCount++
		stats.fetchErrors++
		run.Fetches = append(run.Fetches, model.FetchResult{
			URL:        pageURL,
			StatusCode: statusOf(err),
			Error:      err.Error(),
			FetchedAt:  time.Now().UTC(),
		})
		return nil
	}

	rec, err := s.extractor.Product(pageURL, body)
	if err != nil {
		var extErr *extract.ExtractionError
		if errors.As(err, &extErr) {
			s.logger.Warn("extraction failed",
				"url", pageURL,
				"field", extErr.Field,
			)
		} else {
			s.logger.Warn("extraction failed", "url", pageURL, "error", err)
		}
		run.State.ErrorCount++
		stats.extractErrors++
		run.Fetches = append(run.Fetches, model.FetchResult{
			URL:        pageURL,
			StatusCode: 200,
			Error:      err.Error(),
			FetchedAt:  time.Now().UTC(),
		})
		return nil
	}

	if err := run.State.AddRecord(rec); err != nil {
		s.logger.Warn("record rejected", "url", pageURL, "error", err)
		run.State.ErrorCount++
		stats.extractErrors++
		run.Fetches = append(run.Fetches, model.FetchResult{
			URL:        pageURL,
			StatusCode: 200,
			Error:      err.Error(),
			FetchedAt:  time.Now().UTC(),
		})
		return nil
	}

	run.Fetches = append(run.Fetches, model.FetchResult{
		URL:        pageURL,
		ProductID:  rec.ID,
		StatusCode: 200,
		FetchedAt:  time.Now().UTC(),
	})

	s.logger.Info("scraped product",
		"id", rec.ID,
		"name", rec.Name,
		"progress", fmt.Sprintf("%d/%d", run.State.ProcessedCount()+1, run.Summary.TotalURLs),
	)
	return nil
}

// statusOf pulls the terminal HTTP status out of a fetch failure,
// 0 for transport-level errors.
func statusOf(err error) int {
	var fetchErr *fetch.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	return 0
}

// etaFor projects the remaining run time from the pace so far.
func etaFor(start time.Time, handled, remaining int) time.Duration {
	if handled == 0 {
		return 0
	}
	perItem := time.Since(start) / time.Duration(handled)
	return (perItem * time.Duration(remaining)).Round(time.Second)
}

// DownloadImagesStep downloads every record's image variants and
// persists the updated state so local image paths survive a later
// resume.
type DownloadImagesStep struct {
	downloader *images.Downloader
	store      *checkpoint.Store
	logger     *slog.Logger
}

// NewDownloadImagesStep creates the image download step.
func NewDownloadImagesStep(downloader *images.Downloader, store *checkpoint.Store, logger *slog.Logger) *DownloadImagesStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadImagesStep{downloader: downloader, store: store, logger: logger}
}

// Name returns the step name.
func (s *DownloadImagesStep) Name() string {
	return "download_images"
}

// Do runs the image downloader over the accumulated records.
func (s *DownloadImagesStep) Do(ctx context.Context, run *Run) error {
	stats, err := s.downloader.Run(ctx, run.State.Records)

	run.Summary.ImagesDownloaded = stats.Downloaded
	run.Summary.ImagesSkipped = stats.Skipped
	run.Summary.ImagesFailed = stats.Failed
	run.State.ErrorCount += stats.Failed

	s.logger.Info("image download finished",
		"downloaded", stats.Downloaded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)

	if saveErr := s.store.Save(run.State); saveErr != nil {
		s.logger.Error("checkpoint after image download failed", "error", saveErr)
	}
	return err
}

// ExportStep writes products.json and products.csv into the output
// directory.
type ExportStep struct {
	dir string
}

// NewExportStep creates the export step writing into dir.
func NewExportStep(dir string) *ExportStep {
	return &ExportStep{dir: dir}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Do writes the export files for all records scraped so far.
func (s *ExportStep) Do(_ context.Context, run *Run) error {
	if err := export.WriteFiles(s.dir, run.State.Records); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
