package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/masonlabs/storescan/internal/checkpoint"
	"github.com/masonlabs/storescan/internal/export"
	"github.com/masonlabs/storescan/internal/model"
)

// seedCheckpoint writes a checkpoint with n records into dir.
func seedCheckpoint(t *testing.T, dir string, n int) {
	t.Helper()

	state := model.NewRunState()
	for i := 0; i < n; i++ {
		rec := &model.ProductRecord{
			ID:   "item-" + string(rune('a'+i)),
			Name: "Item " + string(rune('A'+i)),
		}
		if err := state.AddRecord(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := checkpoint.New(dir).Save(state); err != nil {
		t.Fatalf("seeding checkpoint: %v", err)
	}
}

func TestExportCmd(t *testing.T) {
	t.Parallel()

	t.Run("writes both export files from the checkpoint", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedCheckpoint(t, dir, 3)

		out, err := executeCommand(t, "export", "-o", dir)
		if err != nil {
			t.Fatalf("export command returned error: %v", err)
		}
		if !strings.Contains(out, "Exported 3 products") {
			t.Errorf("output = %q", out)
		}

		for _, name := range []string{export.JSONFileName, export.CSVFileName} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("export file %s missing: %v", name, err)
			}
		}
	})

	t.Run("empty checkpoint is an error", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if _, err := executeCommand(t, "export", "-o", dir); err == nil {
			t.Error("export on empty checkpoint returned nil error")
		}
	})
}

func TestImagesCmdEmptyCheckpoint(t *testing.T) {
	t.Parallel()

	if _, err := executeCommand(t, "images", "-o", t.TempDir()); err == nil {
		t.Error("images on empty checkpoint returned nil error")
	}
}

func TestImagesCmdNoImageURLs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedCheckpoint(t, dir, 2)

	out, err := executeCommand(t, "images", "-o", dir, "-u", "https://example.invalid")
	if err != nil {
		t.Fatalf("images command returned error: %v", err)
	}
	if !strings.Contains(out, "0 downloaded") {
		t.Errorf("output = %q", out)
	}
}
