// Package database provides SQLite-based storage for run history.
//
// Each finished (or interrupted) scrape run is recorded as a row in the
// runs table, with its summary serialized alongside the counters so the
// history command can show trends without re-reading export files.
//
// Design decision: SQLite via modernc.org/sqlite because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Run history is tiny; a server database would be overkill
package database
