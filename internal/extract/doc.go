// Package extract parses fetched product detail pages into ProductRecords.
//
// Extraction is selector-driven via goquery. Name and ID are mandatory;
// every other field is best-effort: when a page does not carry a field the
// record stores an empty or nil value and extraction still succeeds. Only
// a page with no recognizable product title fails with *ExtractionError.
//
// The selectors encode the target site's markup (title-detail headings,
// detail-info link blocks, detail-gallery sliders). When the site changes
// its templates, this package is the only one that needs to follow.
package extract
