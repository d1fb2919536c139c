package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/masonlabs/storescan/internal/model"
)

// MultiValueDelimiter joins multi-valued fields (tags, categories, image
// URLs) inside a single CSV cell. Recover the values by splitting on it.
const MultiValueDelimiter = "|"

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{
	"id",
	"name",
	"sku",
	"price",
	"original_price",
	"brand",
	"categories",
	"tags",
	"description",
	"specifications",
	"seller",
	"availability",
	"in_stock",
	"image_urls",
	"local_images",
	"product_url",
	"scraped_at",
}

// WriteCSV writes records as a flat table with a fixed header row.
// The row count always equals len(records).
func WriteCSV(w io.Writer, records []*model.ProductRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row, err := csvRow(rec)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", rec.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// csvRow flattens one record into the fixed column order.
func csvRow(rec *model.ProductRecord) ([]string, error) {
	specs := ""
	if len(rec.Specifications) > 0 {
		data, err := json.Marshal(rec.Specifications)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize specifications for %s: %w", rec.ID, err)
		}
		specs = string(data)
	}

	scrapedAt := ""
	if !rec.ScrapedAt.IsZero() {
		scrapedAt = rec.ScrapedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	return []string{
		rec.ID,
		rec.Name,
		rec.SKU,
		formatPrice(rec.Price),
		formatPrice(rec.OriginalPrice),
		rec.Brand,
		strings.Join(rec.Categories, MultiValueDelimiter),
		strings.Join(rec.Tags, MultiValueDelimiter),
		rec.Description,
		specs,
		rec.Seller,
		rec.Availability,
		strconv.FormatBool(rec.InStock),
		strings.Join(rec.ImageURLs, MultiValueDelimiter),
		strings.Join(rec.LocalImages, MultiValueDelimiter),
		rec.ProductURL,
		scrapedAt,
	}, nil
}

// formatPrice renders a price cell, empty when the price is absent.
func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
