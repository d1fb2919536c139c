package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/masonlabs/storescan/internal/checkpoint"
	"github.com/masonlabs/storescan/internal/config"
	"github.com/masonlabs/storescan/internal/export"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-export products from the checkpoint",
		Long: `Export rewrites products.json and products.csv from the checkpoint in
the output directory, without touching the network.

Useful after an interrupted run, or to regenerate exports deleted by
accident.`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory holding the checkpoint and receiving the exports")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	state, err := checkpoint.New(dir).Load()
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if len(state.Records) == 0 {
		return fmt.Errorf("no products in checkpoint %s", filepath.Join(dir, checkpoint.FileName))
	}

	if err := export.WriteFiles(dir, state.Records); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d products to %s and %s\n",
		len(state.Records),
		filepath.Join(dir, export.JSONFileName),
		filepath.Join(dir, export.CSVFileName),
	)
	return nil
}
