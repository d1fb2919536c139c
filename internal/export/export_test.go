package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/masonlabs/storescan/internal/model"
)

// sampleRecords builds a small record set with multi-valued fields and
// non-ASCII content.
func sampleRecords() []*model.ProductRecord {
	price := 1299.0
	orig := 1999.0
	return []*model.ProductRecord{
		{
			ID:            "aianna-dinner-set",
			Name:          "Aianna Dinner Set — 24 Pieces",
			SKU:           "ADS-24",
			Price:         &price,
			OriginalPrice: &orig,
			Brand:         "Aianna",
			Categories:    []string{"Kitchen", "Dining"},
			Tags:          []string{"ceramic", "kitchen"},
			Description:   "Price in store: ₹1,299 — while stocks last & more",
			Specifications: map[string]string{
				"Material": "Ceramic",
				"Colour":   "Ivory",
			},
			Seller:       "Mason Home",
			Availability: "12 items In Stock",
			InStock:      true,
			ImageURLs: []string{
				"https://masonstores.com/storage/products/a-1.jpg",
				"https://masonstores.com/storage/products/a-2.jpg",
			},
			ProductURL: "https://masonstores.com/products/aianna-dinner-set",
			ScrapedAt:  time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:         "bare-product",
			Name:       "Bare Product",
			ProductURL: "https://masonstores.com/products/bare-product",
		},
	}
}

// TestWriteJSONRoundTrip tests field fidelity through JSON.
func TestWriteJSONRoundTrip(t *testing.T) {
	t.Parallel()

	records := sampleRecords()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, records); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	parsed, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}

	if diff := cmp.Diff(records, parsed, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

// TestWriteJSONPreservesNonASCII tests that currency symbols survive
// unescaped.
func TestWriteJSONPreservesNonASCII(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRecords()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "₹1,299") {
		t.Error("currency symbol should appear literally in JSON output")
	}
	if !strings.Contains(out, "— while stocks last & more") {
		t.Error("non-ASCII punctuation and ampersand should not be escaped")
	}
	if strings.Contains(out, `\u`) {
		t.Errorf("output should carry no unicode escapes:\n%s", out)
	}
}

// TestWriteJSONEmpty tests that an empty record set yields a JSON array.
func TestWriteJSONEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("output = %q, want []", got)
	}
}

// TestWriteCSV tests row counts, the fixed header and multi-value recovery.
func TestWriteCSV(t *testing.T) {
	t.Parallel()

	records := sampleRecords()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV output: %v", err)
	}

	if diff := cmp.Diff(csvHeader, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	// One data row per record
	if got := len(rows) - 1; got != len(records) {
		t.Fatalf("data rows = %d, want %d", got, len(records))
	}

	byName := func(row []string, col string) string {
		for i, h := range csvHeader {
			if h == col {
				return row[i]
			}
		}
		t.Fatalf("unknown column %q", col)
		return ""
	}

	first := rows[1]
	if got := byName(first, "id"); got != "aianna-dinner-set" {
		t.Errorf("id = %q", got)
	}
	if got := byName(first, "price"); got != "1299" {
		t.Errorf("price = %q, want 1299", got)
	}

	// Multi-valued fields recover by splitting on the delimiter
	tags := strings.Split(byName(first, "tags"), MultiValueDelimiter)
	if diff := cmp.Diff([]string{"ceramic", "kitchen"}, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	imgs := strings.Split(byName(first, "image_urls"), MultiValueDelimiter)
	if len(imgs) != 2 {
		t.Errorf("image_urls = %v, want 2 entries", imgs)
	}

	// Specifications cell is an embedded JSON object
	var specs map[string]string
	if err := json.Unmarshal([]byte(byName(first, "specifications")), &specs); err != nil {
		t.Fatalf("specifications cell is not JSON: %v", err)
	}
	if specs["Material"] != "Ceramic" {
		t.Errorf("specifications = %v", specs)
	}

	// Absent optional fields are empty cells
	second := rows[2]
	if got := byName(second, "price"); got != "" {
		t.Errorf("absent price = %q, want empty", got)
	}
	if got := byName(second, "specifications"); got != "" {
		t.Errorf("absent specifications = %q, want empty", got)
	}
	if got := byName(second, "scraped_at"); got != "" {
		t.Errorf("zero scraped_at = %q, want empty", got)
	}
}

// TestWriteFiles tests writing both formats to a directory.
func TestWriteFiles(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	if err := WriteFiles(dir, sampleRecords()); err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}

	for _, name := range []string{JSONFileName, CSVFileName} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
