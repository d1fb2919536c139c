// Package scraper orchestrates a scrape run as a pipeline of steps.
//
// A run loads product URLs from the sitemap, fetches and extracts each
// detail page sequentially, downloads product images, and exports the
// results. Each phase is a Step; the Pipeline executes them in order
// against a shared Run that carries the mutable state and the summary.
//
// The fetch loop checkpoints its state periodically and on interrupt,
// so a cancelled run resumes where it left off.
package scraper
