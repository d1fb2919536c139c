package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// Design decision: package-level sentinel errors rather than fmt.Errorf at
// the point of failure, so callers can use errors.Is while the messages
// stay human-readable. None of the messages need dynamic values.
var (
	// ErrNoSitemap is returned when no sitemap path or URL is configured.
	ErrNoSitemap = errors.New("no sitemap specified: provide --sitemap with a file path or URL")

	// ErrNoBaseURL is returned when the target site base URL is empty.
	ErrNoBaseURL = errors.New("no base URL specified")

	// ErrInvalidDelayRange is returned when the politeness delay bounds are
	// negative or inverted.
	ErrInvalidDelayRange = errors.New("invalid delay range: min must be non-negative and max >= min")

	// ErrInvalidCheckpointInterval is returned when the checkpoint interval
	// is not positive. An interval of zero would checkpoint never, defeating
	// resume support.
	ErrInvalidCheckpointInterval = errors.New("invalid checkpoint interval: must be positive")

	// ErrInvalidImageConcurrency is returned when the image worker count is
	// not positive.
	ErrInvalidImageConcurrency = errors.New("invalid image concurrency: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid request timeout: must be positive")

	// ErrInvalidRetryCount is returned when the retry count is negative.
	// Use 0 to disable retries.
	ErrInvalidRetryCount = errors.New("invalid retry count: must be non-negative")

	// ErrInvalidLimit is returned when the product limit is negative.
	// Use 0 to scrape everything.
	ErrInvalidLimit = errors.New("invalid limit: must be non-negative")
)
