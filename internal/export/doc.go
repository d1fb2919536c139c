// Package export serializes scraped product records to JSON and CSV.
//
// Both writers are pure functions of the record slice: no network, no
// checkpoint state. The JSON form is the faithful one; the CSV form
// flattens multi-valued fields into single delimited cells for spreadsheet
// use, with the specifications map carried as an embedded JSON object.
package export
