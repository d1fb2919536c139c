// Package main provides the entry point for the storescan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for storescan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storescan",
		Short: "Product catalog scraper for Mason Stores",
		Long: `storescan scrapes the Mason Stores product catalog into structured data.

It reads product URLs from the site's sitemap, fetches each detail page
with polite pacing and retries, extracts product records, downloads the
product images, and exports everything as JSON and CSV.

Progress is checkpointed continuously; an interrupted run can be picked
up with scrape --resume.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewImagesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
