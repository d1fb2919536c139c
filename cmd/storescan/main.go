// Package main provides the entry point for the storescan CLI.
//
// storescan is a catalog scraper for the Mason Stores site. It walks the
// product URLs from the sitemap, extracts structured product records,
// downloads product images, and exports everything as JSON and CSV.
//
// Usage:
//
//	storescan scrape
//	storescan scrape --resume
//	storescan export -o output
//
// See --help for all available options.
package main

// main is the entry point for storescan.
func main() {
	Execute()
}
