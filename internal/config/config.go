package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
)

// Default configuration values.
// The delay and interval values follow the operating history of the scraper
// against the target site: they are deliberately conservative because the
// sequential fetch loop exists precisely to avoid server-side throttling.
const (
	// DefaultBaseURL is the site the scraper targets.
	DefaultBaseURL = "https://masonstores.com"

	// DefaultOutputDir is where exports, images and the checkpoint file land.
	DefaultOutputDir = "output"

	// DefaultDelayMin and DefaultDelayMax bound the randomized politeness
	// delay between detail page requests. 3-6 seconds has proven low enough
	// to finish a few-thousand-product run overnight without tripping
	// throttling.
	DefaultDelayMin = 3 * time.Second
	DefaultDelayMax = 6 * time.Second

	// DefaultCheckpointInterval is how many processed products trigger a
	// checkpoint save. 25 keeps the worst-case loss on a crash under two
	// minutes of scraping at the default delays.
	DefaultCheckpointInterval = 25

	// DefaultBreakInterval is how many products are scraped between long
	// pauses, and DefaultBreakMin/Max bound the pause length. The pause
	// also rotates the outbound User-Agent.
	DefaultBreakInterval = 100
	DefaultBreakMin      = 30 * time.Second
	DefaultBreakMax      = 60 * time.Second

	// DefaultImageConcurrency is the number of concurrent image downloads.
	// The observed safe range against the target CDN is 3-10; the default
	// stays at the bottom of it.
	DefaultImageConcurrency = 3

	// DefaultImageDelay paces image downloads within each worker.
	DefaultImageDelay = 500 * time.Millisecond

	// DefaultRequestTimeout is the per-request timeout for page fetches.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultRetryCount is how many times a failed fetch is retried before
	// the URL is skipped and counted as an error.
	DefaultRetryCount = 3

	// DefaultRetryWaitMin and DefaultRetryWaitMax bound the exponential
	// backoff between retries of the same request.
	DefaultRetryWaitMin = 5 * time.Second
	DefaultRetryWaitMax = 30 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "storescan"
)

// Config holds all options for a scrape run.
// It is populated from defaults, the config file, environment variables and
// CLI flags, in that order, then validated once before the run starts.
//
// Design decision: a single flat struct, following the same reasoning as the
// rest of the CLI: the option count is manageable and nesting would add
// ceremony without clarity.
type Config struct {
	// BaseURL is the root of the target site. Product URLs from the sitemap
	// must live under this host.
	BaseURL string `envconfig:"BASE_URL"`

	// SitemapPath is a local file path or URL of the sitemap document.
	SitemapPath string `envconfig:"SITEMAP"`

	// OutputDir receives products.json, products.csv, report.md, the
	// progress checkpoint and the images/ tree.
	OutputDir string `envconfig:"OUTPUT_DIR"`

	// Resume loads the previous checkpoint instead of starting fresh.
	Resume bool `envconfig:"-"`

	// DelayMin and DelayMax bound the randomized delay between detail
	// page requests.
	DelayMin time.Duration `envconfig:"DELAY_MIN"`
	DelayMax time.Duration `envconfig:"DELAY_MAX"`

	// CheckpointInterval is the number of processed products between
	// checkpoint saves.
	CheckpointInterval int `envconfig:"CHECKPOINT_INTERVAL"`

	// BreakInterval, BreakMin and BreakMax control the long periodic pause
	// in the fetch loop. BreakInterval of 0 disables breaks.
	BreakInterval int           `envconfig:"BREAK_INTERVAL"`
	BreakMin      time.Duration `envconfig:"BREAK_MIN"`
	BreakMax      time.Duration `envconfig:"BREAK_MAX"`

	// ImageConcurrency bounds the image download worker count.
	ImageConcurrency int `envconfig:"IMAGE_CONCURRENCY"`

	// ImageDelay paces downloads within each image worker.
	ImageDelay time.Duration `envconfig:"IMAGE_DELAY"`

	// SkipImages disables the image download phase entirely.
	SkipImages bool `envconfig:"SKIP_IMAGES"`

	// Limit caps the number of products scraped in this run. 0 means all.
	// Useful for selector dry-runs against a live site.
	Limit int `envconfig:"LIMIT"`

	// RequestTimeout is the per-request HTTP timeout.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`

	// RetryCount, RetryWaitMin and RetryWaitMax configure fetch retries.
	RetryCount   int           `envconfig:"RETRY_COUNT"`
	RetryWaitMin time.Duration `envconfig:"RETRY_WAIT_MIN"`
	RetryWaitMax time.Duration `envconfig:"RETRY_WAIT_MAX"`

	// IgnoreRobots skips the robots.txt check before the run.
	IgnoreRobots bool `envconfig:"IGNORE_ROBOTS"`

	// Headers are extra HTTP headers sent with every request, from the
	// config file. Values may be credentials and are redacted in logs.
	Headers map[string]string `envconfig:"-"`

	// Cookie is an optional Cookie header value, from the config file.
	Cookie string `envconfig:"-"`

	// Verbose switches logging from warnings-only to debug.
	Verbose bool `envconfig:"-"`

	// DBDir is the directory holding the run-history database.
	// Defaults to the XDG data directory.
	DBDir string `envconfig:"DB_DIR"`

	// SaveHistory controls whether run outcomes are recorded in the
	// run-history database.
	SaveHistory bool `envconfig:"-"`
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor rather than zero values, because most
// defaults are non-zero and the constructor doubles as their documentation.
func NewConfig() *Config {
	return &Config{
		BaseURL:            DefaultBaseURL,
		OutputDir:          DefaultOutputDir,
		DelayMin:           DefaultDelayMin,
		DelayMax:           DefaultDelayMax,
		CheckpointInterval: DefaultCheckpointInterval,
		BreakInterval:      DefaultBreakInterval,
		BreakMin:           DefaultBreakMin,
		BreakMax:           DefaultBreakMax,
		ImageConcurrency:   DefaultImageConcurrency,
		ImageDelay:         DefaultImageDelay,
		RequestTimeout:     DefaultRequestTimeout,
		RetryCount:         DefaultRetryCount,
		RetryWaitMin:       DefaultRetryWaitMin,
		RetryWaitMax:       DefaultRetryWaitMax,
		DBDir:              XDGDataDir(),
		SaveHistory:        true,
	}
}

// ApplyEnv overlays STORESCAN_* environment variables onto the config.
// Unset variables leave the current values untouched.
func (c *Config) ApplyEnv() error {
	return envconfig.Process(AppName, c)
}

// XDGDataDir returns the XDG data directory for storescan.
// On Linux: ~/.local/share/storescan
// On macOS: ~/Library/Application Support/storescan
// On Windows: %LOCALAPPDATA%\storescan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for storescan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after all layers are applied, before any network or
// filesystem activity.
func (c *Config) Validate() error {
	if c.SitemapPath == "" {
		return ErrNoSitemap
	}
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return ErrInvalidDelayRange
	}
	if c.CheckpointInterval <= 0 {
		return ErrInvalidCheckpointInterval
	}
	if c.ImageConcurrency <= 0 {
		return ErrInvalidImageConcurrency
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RetryCount < 0 {
		return ErrInvalidRetryCount
	}
	if c.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}
