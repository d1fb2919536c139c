package sitemap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestProductURLsXML tests extraction from standard XML sitemaps.
func TestProductURLsXML(t *testing.T) {
	t.Parallel()

	t.Run("extracts product URLs in order", func(t *testing.T) {
		t.Parallel()

		doc := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://masonstores.com/products/aianna-dinner-set</loc></url>
  <url><loc>https://masonstores.com/about</loc></url>
  <url><loc>https://masonstores.com/products/oak-side-table</loc></url>
  <url><loc>https://masonstores.com/products/copper-kettle</loc></url>
</urlset>`

		src := &Source{}
		got, err := src.ProductURLs(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("ProductURLs failed: %v", err)
		}

		want := []string{
			"https://masonstores.com/products/aianna-dinner-set",
			"https://masonstores.com/products/oak-side-table",
			"https://masonstores.com/products/copper-kettle",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("URL mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("removes duplicates preserving first occurrence", func(t *testing.T) {
		t.Parallel()

		doc := `<urlset>
  <url><loc>https://masonstores.com/products/b</loc></url>
  <url><loc>https://masonstores.com/products/a</loc></url>
  <url><loc>https://masonstores.com/products/b</loc></url>
</urlset>`

		src := &Source{}
		got, err := src.ProductURLs(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("ProductURLs failed: %v", err)
		}

		want := []string{
			"https://masonstores.com/products/b",
			"https://masonstores.com/products/a",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("URL mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("base host filters foreign product URLs", func(t *testing.T) {
		t.Parallel()

		doc := `<urlset>
  <url><loc>https://masonstores.com/products/a</loc></url>
  <url><loc>https://othersite.example/products/b</loc></url>
</urlset>`

		src := &Source{BaseHost: "masonstores.com"}
		got, err := src.ProductURLs(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("ProductURLs failed: %v", err)
		}

		want := []string{"https://masonstores.com/products/a"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("URL mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestProductURLsHTML tests the HTML table fallback format.
func TestProductURLsHTML(t *testing.T) {
	t.Parallel()

	doc := `<html><body><table>
  <tr><td class="url">https://masonstores.com/products/aianna-dinner-set</td><td>daily</td></tr>
  <tr><td class="url">https://masonstores.com/products/oak-side-table</td><td>daily</td></tr>
  <tr><td class="other">https://masonstores.com/products/not-this-one</td></tr>
</table></body></html>`

	src := &Source{}
	got, err := src.ProductURLs(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ProductURLs failed: %v", err)
	}

	want := []string{
		"https://masonstores.com/products/aianna-dinner-set",
		"https://masonstores.com/products/oak-side-table",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("URL mismatch (-want +got):\n%s", diff)
	}
}

// TestProductURLsErrors tests malformed and empty documents.
func TestProductURLsErrors(t *testing.T) {
	t.Parallel()

	t.Run("no product URLs", func(t *testing.T) {
		t.Parallel()

		doc := `<urlset><url><loc>https://masonstores.com/about</loc></url></urlset>`

		src := &Source{}
		_, err := src.ProductURLs(strings.NewReader(doc))
		if !errors.Is(err, ErrNoProductURLs) {
			t.Errorf("expected ErrNoProductURLs, got %v", err)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		src := &Source{}
		_, err := src.ProductURLs(strings.NewReader(""))
		if err == nil {
			t.Error("expected error for empty document")
		}
	})

	t.Run("bare marker without slug is not a product", func(t *testing.T) {
		t.Parallel()

		doc := `<urlset><url><loc>https://masonstores.com/products/</loc></url></urlset>`

		src := &Source{}
		_, err := src.ProductURLs(strings.NewReader(doc))
		if !errors.Is(err, ErrNoProductURLs) {
			t.Errorf("expected ErrNoProductURLs, got %v", err)
		}
	})
}

// TestProductURLsFromFile tests reading a sitemap from disk.
func TestProductURLsFromFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sitemap.xml")
	doc := `<urlset><url><loc>https://masonstores.com/products/a</loc></url></urlset>`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("failed to write sitemap: %v", err)
	}

	src := &Source{}
	got, err := src.ProductURLsFromFile(path)
	if err != nil {
		t.Fatalf("ProductURLsFromFile failed: %v", err)
	}
	if len(got) != 1 || got[0] != "https://masonstores.com/products/a" {
		t.Errorf("unexpected URLs: %v", got)
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := src.ProductURLsFromFile(filepath.Join(tmpDir, "missing.xml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
