// Package report renders a scrape run summary as Markdown.
//
// The report is written next to the export files so a run's outcome can
// be reviewed (or shared) without opening the JSON. It uses the
// nao1215/markdown library for fluent, type-safe markdown generation.
package report
