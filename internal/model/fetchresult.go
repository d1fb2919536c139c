package model

import "time"

// FetchResult records the outcome of one detail page fetch. The fetch
// loop accumulates one per attempted URL, and the run-history database
// stores them alongside the run so failed pages can be inspected after
// the fact.
//
// A successful fetch has an empty Error and a ProductID; a fetch
// failure carries the terminal HTTP status (0 for transport errors);
// an extraction failure has status 200 and the extraction error text.
type FetchResult struct {
	// URL is the detail page that was fetched.
	URL string `json:"url"`

	// ProductID is the resulting record's ID, empty on failure.
	ProductID string `json:"product_id,omitempty"`

	// StatusCode is the final HTTP status of the fetch, 0 when the
	// request failed at the transport level.
	StatusCode int `json:"status_code,omitempty"`

	// Error is the failure text, empty on success.
	Error string `json:"error,omitempty"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetched_at"`
}

// OK reports whether the fetch produced a product record.
func (r FetchResult) OK() bool {
	return r.Error == ""
}
