package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/masonlabs/storescan/internal/model"
)

// Client fetches image bytes and probes URLs. *fetch.Fetcher satisfies it.
type Client interface {
	Download(ctx context.Context, rawURL string) ([]byte, error)
	Head(ctx context.Context, rawURL string) (int, int64, error)
}

// Stats summarizes one downloader run.
type Stats struct {
	// Downloaded counts files written during this run.
	Downloaded int
	// Skipped counts files that already existed on disk.
	Skipped int
	// Failed counts variants that probed OK but could not be fetched
	// or written.
	Failed int
}

// Downloader saves product photos under dir/<productID>/.
type Downloader struct {
	client      Client
	dir         string
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger

	mu sync.Mutex
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithConcurrency bounds the number of in-flight downloads.
func WithConcurrency(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithPacing spaces successive requests by at least interval.
func WithPacing(interval time.Duration) Option {
	return func(d *Downloader) {
		if interval > 0 {
			d.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// WithLogger sets the logger used for per-image diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Downloader that writes into dir.
func New(client Client, dir string, opts ...Option) *Downloader {
	d := &Downloader{
		client:      client,
		dir:         dir,
		concurrency: 3,
		limiter:     rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Run downloads every variant of every image URL in records. Each
// product's files land in a directory named after its ID, and the
// relative paths of files present after the run (downloaded now or
// on an earlier run) are appended to the record's LocalImages.
//
// A variant that fails to download is logged and counted in
// Stats.Failed; the batch continues. Run returns an error only when
// the context is cancelled or a product directory cannot be created.
func (d *Downloader) Run(ctx context.Context, records []*model.ProductRecord) (Stats, error) {
	var stats Stats

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, rec := range records {
		if rec == nil || rec.ID == "" || len(rec.ImageURLs) == 0 {
			continue
		}
		productDir := filepath.Join(d.dir, rec.ID)
		if err := os.MkdirAll(productDir, 0750); err != nil {
			return stats, fmt.Errorf("images: create product directory: %w", err)
		}

		// LocalImages reflects the files present after this run;
		// rebuilt from scratch so reruns do not duplicate entries.
		rec.LocalImages = nil

		for i, imageURL := range rec.ImageURLs {
			for _, v := range Variants(imageURL) {
				name := FileName(i+1, v)
				dest := filepath.Join(productDir, name)
				rel := filepath.Join(rec.ID, name)

				if _, err := os.Stat(dest); err == nil {
					d.note(&stats.Skipped, rec, rel)
					continue
				}

				variant := v
				g.Go(func() error {
					ok, err := d.fetchOne(ctx, variant, dest)
					switch {
					case err != nil && ctx.Err() != nil:
						return ctx.Err()
					case err != nil:
						d.logger.Warn("image download failed",
							"url", variant.URL, "error", err)
						d.count(&stats.Failed)
					case ok:
						d.note(&stats.Downloaded, rec, rel)
					}
					return nil
				})
			}
		}
	}

	err := g.Wait()
	return stats, err
}

// fetchOne probes a single variant and writes it to dest when the CDN
// has it. It reports false without error when the variant does not
// exist remotely.
func (d *Downloader) fetchOne(ctx context.Context, v Variant, dest string) (bool, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return false, err
	}

	status, length, err := d.client.Head(ctx, v.URL)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK || length <= 0 {
		return false, nil
	}

	body, err := d.client.Download(ctx, v.URL)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(dest, body, 0640); err != nil {
		return false, fmt.Errorf("write %s: %w", dest, err)
	}
	return true, nil
}

// note bumps a counter and records the local path on the product.
func (d *Downloader) note(counter *int, rec *model.ProductRecord, rel string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	*counter++
	rec.LocalImages = append(rec.LocalImages, rel)
}

func (d *Downloader) count(counter *int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	*counter++
}
