// Package checkpoint persists RunState snapshots so an interrupted scrape
// can resume where it left off.
//
// Saves are atomic: the snapshot is written to a temporary file in the same
// directory and renamed over the previous checkpoint, so a crash mid-write
// never leaves a truncated checkpoint behind. Within a run, saves are only
// issued from the sequential fetch loop, so the write path never overlaps
// with itself.
package checkpoint
