package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
)

// uaRotateEvery is how many requests share one User-Agent before the pool
// rotates. Rotating every request is itself a bot signature; a real browser
// keeps its identity for a session.
const uaRotateEvery = 50

// Fetcher retrieves pages and images from the target site.
//
// The only mutable state is the request counter used for User-Agent
// rotation bookkeeping; it is atomic so the concurrent image download
// phase can share the Fetcher with the sequential page loop.
type Fetcher struct {
	client   *resty.Client
	baseURL  string
	delayMin time.Duration
	delayMax time.Duration
	logger   *slog.Logger

	// requestCount counts page requests for rotation and reporting.
	requestCount atomic.Int64

	// robots holds the site's robots.txt rules once CheckRobots has run.
	robots *robotstxt.RobotsData
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDelayRange sets the randomized politeness delay bounds applied
// between distinct page requests.
func WithDelayRange(min, max time.Duration) Option {
	return func(f *Fetcher) {
		f.delayMin = min
		f.delayMax = max
	}
}

// WithRetry configures the retry count and exponential backoff bounds for
// each request. resty doubles the wait per attempt up to waitMax.
func WithRetry(count int, waitMin, waitMax time.Duration) Option {
	return func(f *Fetcher) {
		f.client.
			SetRetryCount(count).
			SetRetryWaitTime(waitMin).
			SetRetryMaxWaitTime(waitMax)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client.SetTimeout(d)
	}
}

// WithHeaders adds extra headers to every request, typically credentials
// from the site config file.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.client.SetHeader(k, v)
		}
	}
}

// WithCookie sets a Cookie header on every request.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		if cookie != "" {
			f.client.SetHeader("Cookie", cookie)
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher for the given site base URL.
//
// Design decision: the Fetcher owns its resty client rather than accepting
// one, because the browser-header and retry discipline is the point of the
// type; tests can still point it at an httptest server via baseURL.
func New(baseURL string, opts ...Option) *Fetcher {
	client := resty.New().
		SetRetryCount(3).
		SetRetryWaitTime(5 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		SetTimeout(30 * time.Second)

	// Retry on transport errors and on throttling/server-error statuses.
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() == 429 || r.StatusCode() >= 500
	})

	for k, v := range browserHeaders {
		client.SetHeader(k, v)
	}
	client.SetHeader("User-Agent", randomUserAgent())

	f := &Fetcher{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		delayMin: 3 * time.Second,
		delayMax: 6 * time.Second,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// GetPage retrieves a page body, applying the politeness delay before the
// request and rotating the User-Agent on schedule. It returns a *FetchError
// after retries are exhausted or on a non-success status.
func (f *Fetcher) GetPage(ctx context.Context, pageURL string) ([]byte, error) {
	n := f.requestCount.Add(1)

	// No delay before the very first request of a run.
	if n > 1 {
		if err := f.politenessDelay(ctx); err != nil {
			return nil, err
		}
	}

	if n%uaRotateEvery == 0 {
		f.RotateUserAgent()
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Referer", f.baseURL).
		Get(pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Attempts: f.attempts(), Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode(), Attempts: f.attempts()}
	}

	f.logger.Debug("fetched page",
		"url", pageURL,
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
	)

	return resp.Body(), nil
}

// Download retrieves a binary resource (an image) without the politeness
// delay; the image download phase paces itself with its own rate limiter.
func (f *Fetcher) Download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Referer", f.baseURL).
		Get(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Attempts: f.attempts(), Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode(), Attempts: f.attempts()}
	}
	return resp.Body(), nil
}

// Head probes a URL and returns its status code and Content-Length.
// Used by the image variant discovery to avoid downloading candidates
// that do not exist.
func (f *Fetcher) Head(ctx context.Context, rawURL string) (int, int64, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Head(rawURL)
	if err != nil {
		return 0, 0, &FetchError{URL: rawURL, Attempts: f.attempts(), Err: err}
	}
	return resp.StatusCode(), resp.RawResponse.ContentLength, nil
}

// RotateUserAgent switches the client to a fresh identity from the pool.
// Called on schedule inside GetPage and by the run loop after long breaks.
func (f *Fetcher) RotateUserAgent() {
	ua := randomUserAgent()
	f.client.SetHeader("User-Agent", ua)
	f.logger.Debug("rotated user agent", "ua", ua)
}

// RequestCount returns the number of page requests issued so far.
func (f *Fetcher) RequestCount() int64 {
	return f.requestCount.Load()
}

// politenessDelay sleeps for a random duration within the configured
// bounds, or returns early when the context is cancelled.
func (f *Fetcher) politenessDelay(ctx context.Context) error {
	d := f.delayMin
	if span := f.delayMax - f.delayMin; span > 0 {
		d += time.Duration(rand.Int64N(int64(span)))
	}
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// attempts returns how many tries each request makes, for error reporting.
func (f *Fetcher) attempts() int {
	return f.client.RetryCount + 1
}

// CheckRobots fetches and parses the site's robots.txt.
// A missing robots.txt (404) permits everything, per the de facto standard.
func (f *Fetcher) CheckRobots(ctx context.Context) error {
	robotsURL := f.baseURL + "/robots.txt"

	resp, err := f.client.R().
		SetContext(ctx).
		Get(robotsURL)
	if err != nil {
		return fmt.Errorf("failed to fetch robots.txt: %w", err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode(), resp.Body())
	if err != nil {
		return fmt.Errorf("failed to parse robots.txt: %w", err)
	}

	f.robots = data
	f.logger.Debug("loaded robots.txt", "status", resp.StatusCode())
	return nil
}

// Allowed reports whether robots.txt permits fetching rawURL.
// Before CheckRobots has run (or when it was skipped) everything is allowed.
func (f *Fetcher) Allowed(rawURL string) bool {
	if f.robots == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return f.robots.TestAgent(u.Path, "storescan")
}

// Break pauses for a random duration within [min, max] and rotates the
// User-Agent afterwards. The run loop calls this every BreakInterval
// products to keep the traffic pattern human-shaped.
func (f *Fetcher) Break(ctx context.Context, min, max time.Duration) error {
	d := min
	if span := max - min; span > 0 {
		d += time.Duration(rand.Int64N(int64(span)))
	}

	f.logger.Info("taking a break", "duration", d.Round(time.Second))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
	}

	f.RotateUserAgent()
	return nil
}
