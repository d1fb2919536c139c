package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/masonlabs/storescan/internal/model"
)

// ExtractionError reports that a page could not be turned into a record
// because a mandatory field was missing.
type ExtractionError struct {
	// URL is the page that failed extraction.
	URL string

	// Field is the mandatory field that was absent.
	Field string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: missing mandatory field %q", e.URL, e.Field)
}

// Extractor parses product detail pages.
type Extractor struct {
	// base resolves relative image URLs.
	base *url.URL
}

// New creates an Extractor for the given site base URL.
func New(baseURL string) (*Extractor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Extractor{base: u}, nil
}

// excluded image name fragments: gallery fallback scans site-wide <img>
// tags, and these are never product photos.
var skipImageNames = []string{"icon", "logo", "banner", "placeholder"}

// thumbSuffix marks the tiny slider thumbnails that duplicate gallery images.
const thumbSuffix = "150x150"

// productStoragePath is the CDN path prefix that product photos live under.
const productStoragePath = "/storage/products/"

// Product parses body into a ProductRecord for the given detail page URL.
// Name and ID are mandatory; all other fields are best-effort.
func (e *Extractor) Product(pageURL string, body []byte) (*model.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page: %w", err)
	}

	id := model.SlugFromURL(pageURL)
	if id == "" {
		return nil, &ExtractionError{URL: pageURL, Field: "id"}
	}

	name := cleanText(doc.Find("h2.title-detail").First().Text())
	if name == "" {
		return nil, &ExtractionError{URL: pageURL, Field: "name"}
	}

	rec := &model.ProductRecord{
		ID:         id,
		Name:       name,
		ProductURL: pageURL,
		ScrapedAt:  time.Now().UTC(),
	}

	rec.Price = ParsePrice(doc.Find(".current-price").First().Text())
	rec.OriginalPrice = ParsePrice(doc.Find(".old-price").First().Text())

	rec.SKU = e.sku(doc)
	rec.Brand = cleanText(doc.Find("a[href*='/brands/']").First().Text())
	rec.Categories = linkTexts(doc, ".detail-info a[href*='/product-categories/']")
	rec.Tags = linkTexts(doc, ".detail-info a[href*='/product-tags/']")

	rec.Description = e.description(doc)
	rec.Specifications = MineSpecifications(rec.Description)
	rec.Seller = cleanText(doc.Find(".short-desc a[href*='/stores/']").First().Text())

	if avail := cleanText(doc.Find(".number-items-available").First().Text()); avail != "" {
		rec.Availability = avail
		rec.InStock = strings.Contains(strings.ToLower(avail), "in stock")
	}

	rec.ImageURLs = e.galleryImages(doc)

	return rec, nil
}

// sku reads the visible SKU text, falling back to the hidden product id
// input some templates render instead.
func (e *Extractor) sku(doc *goquery.Document) string {
	if text := cleanText(doc.Find("#product-sku .sku-text").First().Text()); text != "" && text != ":" {
		return text
	}
	if v, ok := doc.Find("input.hidden-product-id").First().Attr("value"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// description reads the active detail tab, trying the inactive tab as a
// fallback, and caps the result length.
func (e *Extractor) description(doc *goquery.Document) string {
	sel := doc.Find(".tab-pane.active").First()
	if sel.Length() == 0 {
		sel = doc.Find(".tab-content .tab-pane").First()
	}

	text := cleanText(sel.Text())
	runes := []rune(text)
	if len(runes) > model.MaxDescriptionRunes {
		text = string(runes[:model.MaxDescriptionRunes])
	}
	return text
}

// galleryImages collects product photo URLs from the detail gallery,
// excluding thumbnails, resolved against the base URL, deduplicated and
// capped at model.MaxImageURLs.
func (e *Extractor) galleryImages(doc *goquery.Document) []string {
	images := make([]string, 0, model.MaxImageURLs)

	gallery := doc.Find("div.detail-gallery, div.product-image-slider").First()
	gallery.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := imgSrc(img)
		if src == "" || !strings.Contains(src, productStoragePath) || strings.Contains(src, thumbSuffix) {
			return
		}
		images = append(images, e.resolve(src))
	})

	// Fallback: when there is no gallery widget, take the first plausible
	// product photo from anywhere in the page.
	if len(images) == 0 {
		doc.Find("img[src*='" + productStoragePath + "']").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := imgSrc(img)
			if src == "" || strings.Contains(src, thumbSuffix) {
				return true
			}
			name := strings.ToLower(src[strings.LastIndex(src, "/")+1:])
			for _, skip := range skipImageNames {
				if strings.Contains(name, skip) {
					return true
				}
			}
			images = append(images, e.resolve(src))
			return false
		})
	}

	return dedupeStrings(images, model.MaxImageURLs)
}

// imgSrc reads an image source across the lazy-loading attribute variants
// the site's slider widgets use.
func imgSrc(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// resolve makes src absolute against the extractor's base URL.
func (e *Extractor) resolve(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	return e.base.ResolveReference(u).String()
}

// linkTexts collects cleaned, deduplicated link texts for a selector.
func linkTexts(doc *goquery.Document, selector string) []string {
	texts := make([]string, 0)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			texts = append(texts, text)
		}
	})
	out := dedupeStrings(texts, 0)
	if len(out) == 0 {
		return nil
	}
	return out
}

// innerWhitespace collapses runs of whitespace left behind by nested markup.
var innerWhitespace = regexp.MustCompile(`\s+`)

// cleanText normalizes extracted text: NFC unicode normalization plus
// whitespace collapsing. Detail pages mix composed and decomposed accents
// depending on which CMS editor touched them last.
func cleanText(s string) string {
	s = norm.NFC.String(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// dedupeStrings removes duplicates preserving order, optionally capping
// the result. A max of 0 means unlimited.
func dedupeStrings(in []string, max int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
