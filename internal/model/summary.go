package model

import "time"

// RunSummary aggregates the outcome of a scrape run for reporting.
// It is derived from RunState plus image download counters after the run
// finishes (or is interrupted), and feeds both the markdown report and the
// run-history database.
type RunSummary struct {
	// SitemapSource is the sitemap path or URL the run started from.
	SitemapSource string `json:"sitemap_source"`

	// TotalURLs is the number of unique product URLs the sitemap yielded.
	TotalURLs int `json:"total_urls"`

	// Scraped is the number of product records produced.
	Scraped int `json:"scraped"`

	// Errors is the number of per-item failures across all phases.
	Errors int `json:"errors"`

	// ImagesDownloaded, ImagesSkipped and ImagesFailed count the image
	// download phase. Skipped means the target file already existed.
	ImagesDownloaded int `json:"images_downloaded"`
	ImagesSkipped    int `json:"images_skipped"`
	ImagesFailed     int `json:"images_failed"`

	// Interrupted reports whether the run ended on a signal rather than
	// by exhausting the pending queue.
	Interrupted bool `json:"interrupted"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Elapsed returns the wall-clock duration of the run.
func (s *RunSummary) Elapsed() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
