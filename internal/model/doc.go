// Package model defines the core data structures shared across storescan.
//
// The two central types are ProductRecord, the structured result of scraping
// one product detail page, and RunState, the mutable state of a scrape run
// that the checkpoint store persists and reloads.
//
// Design decision: model has no dependencies on other internal packages.
// Every other package (sitemap, fetch, extract, checkpoint, export, images,
// scraper) depends on model, never the other way around. This keeps the
// dependency graph acyclic and makes the data structures trivially testable.
package model
