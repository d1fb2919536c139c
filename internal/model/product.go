package model

import (
	"strings"
	"time"
)

// MaxDescriptionRunes caps the stored product description length.
// Detail pages embed entire specification sheets in the description tab;
// anything past this limit adds noise without adding searchable value.
const MaxDescriptionRunes = 2000

// MaxImageURLs caps the number of image URLs kept per product.
// Galleries repeat the same photo in several slider widgets, so a small
// cap keeps the download phase proportional to real content.
const MaxImageURLs = 5

// ProductRecord is the structured result of scraping one product detail page.
//
// A record is created once per successfully parsed page and is not mutated
// afterwards, except that the image download phase appends LocalImages paths.
// Name and ID are mandatory; every other field is best-effort and may be
// empty or nil when the page does not carry it.
type ProductRecord struct {
	// ID is the product's URL slug (the path segment after /products/).
	// It is unique across a run and keys the image directory tree.
	ID string `json:"id"`

	// Name is the product title. Mandatory.
	Name string `json:"name"`

	// SKU is the stock keeping unit shown on the detail page, if any.
	SKU string `json:"sku,omitempty"`

	// Price is the current sale price. Nil when the page carries no
	// parseable price, which is recorded as absent rather than zero.
	Price *float64 `json:"price,omitempty"`

	// OriginalPrice is the pre-discount price, if the page shows one.
	OriginalPrice *float64 `json:"original_price,omitempty"`

	// Brand is derived from the brand link on the detail page.
	Brand string `json:"brand,omitempty"`

	// Categories are the category names linked from the detail info block,
	// in page order, deduplicated.
	Categories []string `json:"categories,omitempty"`

	// Tags are the product tag names linked from the detail info block.
	Tags []string `json:"tags,omitempty"`

	// Description is the detail tab text, capped at MaxDescriptionRunes.
	Description string `json:"description,omitempty"`

	// Specifications maps attribute names (Material, Colour, ...) to values
	// mined from the description text.
	Specifications map[string]string `json:"specifications,omitempty"`

	// Seller is the store name linked from the short description block.
	Seller string `json:"seller,omitempty"`

	// Availability is the raw stock status text from the page.
	Availability string `json:"availability,omitempty"`

	// InStock reports whether the availability text indicates stock.
	InStock bool `json:"in_stock"`

	// ImageURLs are the gallery image URLs in page order, deduplicated,
	// capped at MaxImageURLs.
	ImageURLs []string `json:"image_urls,omitempty"`

	// LocalImages are filesystem paths of downloaded image files.
	// Populated by the image download phase.
	LocalImages []string `json:"local_images,omitempty"`

	// ProductURL is the canonical detail page URL this record came from.
	ProductURL string `json:"product_url"`

	// ScrapedAt is when the detail page was fetched.
	ScrapedAt time.Time `json:"scraped_at"`
}

// SlugFromURL derives a product ID from a detail page URL.
// It returns the path segment following "/products/", without a trailing
// slash, or an empty string when the URL is not a product URL.
func SlugFromURL(rawURL string) string {
	const marker = "/products/"
	i := strings.Index(rawURL, marker)
	if i < 0 {
		return ""
	}
	slug := strings.Trim(rawURL[i+len(marker):], "/")
	// Drop query strings and fragments that survived sitemap extraction.
	if j := strings.IndexAny(slug, "?#"); j >= 0 {
		slug = slug[:j]
	}
	return slug
}
