package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/masonlabs/storescan/internal/model"
)

// WriteJSON writes records as a single indented JSON array.
//
// HTML escaping is disabled so currency symbols and other non-ASCII
// characters stay readable in the output file instead of turning into
// \uXXXX escapes.
func WriteJSON(w io.Writer, records []*model.ProductRecord) error {
	if records == nil {
		records = []*model.ProductRecord{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode products JSON: %w", err)
	}
	return nil
}

// ReadJSON parses a products JSON document written by WriteJSON.
// The images subcommand uses it to reload an exported record set.
func ReadJSON(r io.Reader) ([]*model.ProductRecord, error) {
	var records []*model.ProductRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse products JSON: %w", err)
	}
	return records, nil
}
