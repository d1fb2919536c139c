package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/masonlabs/storescan/internal/model"
)

// Output file names inside the output directory.
const (
	JSONFileName = "products.json"
	CSVFileName  = "products.csv"
)

// WriteFiles writes both export formats under dir, creating it if needed.
func WriteFiles(dir string, records []*model.ProductRecord) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeFile(filepath.Join(dir, JSONFileName), records, WriteJSON); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, CSVFileName), records, WriteCSV)
}

// writeFile creates path and runs the given writer over it.
func writeFile(path string, records []*model.ProductRecord, write func(w io.Writer, records []*model.ProductRecord) error) error {
	f, err := os.Create(path) //nolint:gosec // Output path comes from user flags
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f, records); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
