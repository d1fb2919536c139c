package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/masonlabs/storescan/internal/model"
)

// FileName is the report file name inside the output directory.
const FileName = "report.md"

// MarkdownWriter renders run summaries as Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that writes to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders the summary.
func (w *MarkdownWriter) Write(summary *model.RunSummary) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeImages(md, summary)
	w.writeAlert(md, summary)

	return md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("Scrape Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Sitemap", "`" + summary.SitemapSource + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", summary.Elapsed().Round(time.Second).String()},
			{"Status", statusText(summary)},
		},
	})
	md.PlainText("")
}

func statusText(summary *model.RunSummary) string {
	if summary.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

// writeCounts writes the scraping counters.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Products")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Product URLs in sitemap", strconv.Itoa(summary.TotalURLs)},
			{"Scraped", strconv.Itoa(summary.Scraped)},
			{"Errors", strconv.Itoa(summary.Errors)},
		},
	})
	md.PlainText("")
}

// writeImages writes the image download counters.
func (w *MarkdownWriter) writeImages(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Images")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Downloaded", strconv.Itoa(summary.ImagesDownloaded)},
			{"Skipped (already on disk)", strconv.Itoa(summary.ImagesSkipped)},
			{"Failed", strconv.Itoa(summary.ImagesFailed)},
		},
	})
	md.PlainText("")
}

// writeAlert writes a GitHub-flavored alert reflecting the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.Interrupted:
		md.Warningf(
			"The run was interrupted after %d of %d products. Rerun with --resume to continue.",
			summary.Scraped, summary.TotalURLs,
		)
	case summary.Errors > 0:
		md.Importantf(
			"%d item(s) failed during the run. Check the logs for the affected URLs.",
			summary.Errors,
		)
	default:
		md.Tip("All products scraped without errors.")
	}
	md.PlainText("")
}

// WriteFile renders the summary into dir/report.md.
func WriteFile(dir string, summary *model.RunSummary) error {
	path := filepath.Join(dir, FileName)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := NewMarkdownWriter(f).Write(summary); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
