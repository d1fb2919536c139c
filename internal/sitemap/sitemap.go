package sitemap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoProductURLs is returned when a sitemap parses cleanly but contains
// no recognizable product URLs. Callers treat this the same as a malformed
// document: there is nothing to scrape.
var ErrNoProductURLs = errors.New("sitemap contains no product URLs")

// productPathMarker identifies product detail pages within a site's URL space.
const productPathMarker = "/products/"

// urlset mirrors the standard sitemap XML structure.
type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// Source extracts product URLs from sitemap documents.
// A zero Source accepts product URLs from any host; set BaseHost to
// restrict extraction to a single site.
type Source struct {
	// BaseHost, when non-empty, restricts extraction to URLs whose host
	// matches (case-insensitively). Product pages on other hosts are
	// dropped silently.
	BaseHost string
}

// ProductURLs parses the sitemap document in r and returns the product
// URLs it contains, in document order, with duplicates removed.
//
// The document is first tried as XML; if that fails or yields nothing,
// the HTML table fallback is tried on the same bytes. ErrNoProductURLs
// is returned when neither form yields a product URL.
func (s *Source) ProductURLs(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read sitemap: %w", err)
	}

	urls, xmlErr := s.fromXML(data)
	if len(urls) == 0 {
		var htmlErr error
		urls, htmlErr = s.fromHTML(data)
		if len(urls) == 0 {
			if xmlErr != nil {
				return nil, fmt.Errorf("failed to parse sitemap: %w", xmlErr)
			}
			if htmlErr != nil {
				return nil, fmt.Errorf("failed to parse sitemap: %w", htmlErr)
			}
			return nil, ErrNoProductURLs
		}
	}

	return dedupe(urls), nil
}

// ProductURLsFromFile reads path and extracts product URLs from it.
func (s *Source) ProductURLsFromFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided sitemap path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open sitemap file: %w", err)
	}
	defer f.Close()

	return s.ProductURLs(f)
}

// fromXML extracts product URLs from a standard XML sitemap.
func (s *Source) fromXML(data []byte) ([]string, error) {
	var set urlset
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if s.isProductURL(loc) {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// fromHTML extracts product URLs from the HTML table rendering of the
// sitemap, where each URL lives in a <td class="url"> cell.
func (s *Source) fromHTML(data []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" && hasClass(n, "url") {
			text := strings.TrimSpace(nodeText(n))
			if s.isProductURL(text) {
				urls = append(urls, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return urls, nil
}

// isProductURL reports whether raw is an absolute product detail URL,
// optionally constrained to BaseHost.
func (s *Source) isProductURL(raw string) bool {
	if raw == "" {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !strings.Contains(u.Path, productPathMarker) {
		return false
	}
	// The marker alone is not a product page; a slug must follow it.
	if strings.TrimPrefix(u.Path[strings.Index(u.Path, productPathMarker):], productPathMarker) == "" {
		return false
	}
	if s.BaseHost != "" && !strings.EqualFold(u.Hostname(), s.BaseHost) {
		return false
	}
	return true
}

// dedupe removes duplicate URLs while preserving first-seen order.
func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	unique := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	return unique
}

// hasClass reports whether n carries the given class name.
func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// nodeText collects the text content beneath n.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
