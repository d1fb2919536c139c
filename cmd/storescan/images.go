package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/masonlabs/storescan/internal/checkpoint"
	"github.com/masonlabs/storescan/internal/config"
	"github.com/masonlabs/storescan/internal/images"
	"github.com/masonlabs/storescan/internal/log"
)

// NewImagesCmd creates the images command.
func NewImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Download product images from the checkpoint",
		Long: `Images downloads the product photos for every record in the checkpoint,
without re-scraping any detail pages.

Each image is probed in its known size variants (original, 800x800,
400x400) and saved under <output>/images/<product-id>/. Files already
on disk are skipped, so the command is safe to rerun after a partial
download.`,
		Args: cobra.NoArgs,
		RunE: runImagesCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory holding the checkpoint and the images tree")
	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Root URL of the target site")
	cmd.Flags().Int("image-concurrency", config.DefaultImageConcurrency,
		"Concurrent image downloads")

	return cmd
}

// runImagesCmd executes the images command.
func runImagesCmd(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	baseURL, err := cmd.Flags().GetString("base-url")
	if err != nil {
		return err
	}
	concurrency, err := cmd.Flags().GetInt("image-concurrency")
	if err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	store := checkpoint.New(dir)
	state, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if len(state.Records) == 0 {
		return fmt.Errorf("no products in checkpoint %s", filepath.Join(dir, checkpoint.FileName))
	}

	cfg := config.NewConfig()
	cfg.BaseURL = baseURL

	downloader := images.New(newFetcher(cfg, logger), filepath.Join(dir, "images"),
		images.WithConcurrency(concurrency),
		images.WithPacing(cfg.ImageDelay),
		images.WithLogger(logger),
	)

	stats, err := downloader.Run(cmd.Context(), state.Records)
	if err != nil {
		return fmt.Errorf("image download failed: %w", err)
	}

	// Persist the local image paths recorded on each product.
	if err := store.Save(state); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Images: %d downloaded, %d skipped, %d failed\n",
		stats.Downloaded, stats.Skipped, stats.Failed)
	return nil
}
