package model

import (
	"fmt"
	"time"
)

// RunState is the complete mutable state of a scrape run.
//
// It is owned exclusively by the sequential fetch loop: there are no
// concurrent writers, so none of the methods take locks. The checkpoint
// store serializes the whole struct periodically and on interrupt, and
// reloads it when a run starts in resume mode.
//
// Invariants maintained by the mutators:
//   - every record ID appears at most once in Records
//   - the union of Processed and Pending equals the full URL source
type RunState struct {
	// Pending holds the product URLs not yet fetched, in sitemap order.
	Pending []string `json:"pending"`

	// Processed marks the URLs already handled, whether they produced a
	// record or failed permanently.
	Processed map[string]bool `json:"processed"`

	// Records accumulates the scraped products in completion order.
	Records []*ProductRecord `json:"records"`

	// ErrorCount tallies per-item failures (fetch, parse, extract).
	// Item failures never abort the run; they are counted here instead.
	ErrorCount int `json:"error_count"`

	// CheckpointedAt is the time of the last successful checkpoint save.
	CheckpointedAt time.Time `json:"checkpointed_at"`
}

// NewRunState creates an empty RunState.
func NewRunState() *RunState {
	return &RunState{
		Pending:   make([]string, 0),
		Processed: make(map[string]bool),
		Records:   make([]*ProductRecord, 0),
	}
}

// SetPending replaces the pending queue with the given URLs, skipping any
// already marked processed. It preserves the order of urls.
func (s *RunState) SetPending(urls []string) {
	pending := make([]string, 0, len(urls))
	for _, u := range urls {
		if !s.Processed[u] {
			pending = append(pending, u)
		}
	}
	s.Pending = pending
}

// MarkProcessed records that url has been handled and removes it from the
// pending queue.
func (s *RunState) MarkProcessed(url string) {
	if s.Processed == nil {
		s.Processed = make(map[string]bool)
	}
	s.Processed[url] = true
	for i, u := range s.Pending {
		if u == url {
			s.Pending = append(s.Pending[:i], s.Pending[i+1:]...)
			break
		}
	}
}

// AddRecord appends a record, enforcing ID uniqueness across the run.
// A duplicate ID is a programming error upstream (the sitemap source
// deduplicates URLs), so it is rejected rather than silently merged.
func (s *RunState) AddRecord(rec *ProductRecord) error {
	for _, existing := range s.Records {
		if existing.ID == rec.ID {
			return fmt.Errorf("duplicate product id %q", rec.ID)
		}
	}
	s.Records = append(s.Records, rec)
	return nil
}

// Remaining returns the number of URLs still pending.
func (s *RunState) Remaining() int {
	return len(s.Pending)
}

// ProcessedCount returns the number of URLs already handled.
func (s *RunState) ProcessedCount() int {
	return len(s.Processed)
}

// Normalize restores invariants after JSON round-trips, where empty maps
// and slices may come back nil. Call after deserializing a checkpoint.
func (s *RunState) Normalize() {
	if s.Pending == nil {
		s.Pending = make([]string, 0)
	}
	if s.Processed == nil {
		s.Processed = make(map[string]bool)
	}
	if s.Records == nil {
		s.Records = make([]*ProductRecord, 0)
	}
}
