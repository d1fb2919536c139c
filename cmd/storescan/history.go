package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/masonlabs/storescan/internal/config"
	"github.com/masonlabs/storescan/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past scrape runs",
		Long: `History lists past scrape runs recorded in the run-history database,
newest first: when each run started, how many products it scraped, and
whether it was interrupted.

With --run, the per-URL fetch outcomes of that run are shown instead,
so failed pages can be found without digging through logs.`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 10,
		"Number of runs to show (0 = all)")
	cmd.Flags().Int64("run", 0,
		"Show the per-URL fetch outcomes of this run ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the run-history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no run history yet: %w", err)
	}
	defer db.Close()

	if runID > 0 {
		return printFetches(cmd, db, runID)
	}

	entries, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-4s %-20s %-9s %-8s %-7s %-7s %s\n",
		"ID", "STARTED", "PRODUCTS", "ERRORS", "IMAGES", "STATUS", "SITEMAP")
	for _, e := range entries {
		status := "ok"
		if e.Summary.Interrupted {
			status = "partial"
		}
		fmt.Fprintf(out, "%-4d %-20s %-9s %-8d %-7d %-7s %s\n",
			e.ID,
			e.Summary.StartedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/%d", e.Summary.Scraped, e.Summary.TotalURLs),
			e.Summary.Errors,
			e.Summary.ImagesDownloaded,
			status,
			e.Summary.SitemapSource,
		)
	}
	return nil
}

// printFetches lists the per-URL outcomes of one run.
func printFetches(cmd *cobra.Command, db *database.RunDB, runID int64) error {
	results, err := db.ListFetches(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No fetches recorded for run %d.\n", runID)
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-7s %-20s %-24s %s\n", "STATUS", "PRODUCT", "FETCHED", "URL")
	for _, r := range results {
		status := fmt.Sprintf("%d", r.StatusCode)
		if !r.OK() {
			status += " !"
		}
		fmt.Fprintf(out, "%-7s %-20s %-24s %s\n",
			status,
			r.ProductID,
			r.FetchedAt.Local().Format("2006-01-02 15:04:05"),
			r.URL,
		)
		if r.Error != "" {
			fmt.Fprintf(out, "        %s\n", r.Error)
		}
	}
	return nil
}
