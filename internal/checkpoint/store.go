package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/masonlabs/storescan/internal/model"
)

// FileName is the checkpoint file name inside the output directory.
const FileName = "progress.json"

// Store saves and loads RunState snapshots under a directory.
type Store struct {
	// path is the checkpoint file location.
	path string
}

// New creates a Store rooted at dir. The directory is created on the first
// save if needed.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Save atomically persists the state, stamping CheckpointedAt first.
//
// The write-to-temp-then-rename discipline guarantees that Load never sees
// a partial document, even when the process dies mid-save.
func (s *Store) Save(state *model.RunState) error {
	state.CheckpointedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close checkpoint temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}

	return nil
}

// Load returns the most recent checkpoint, or a fresh empty RunState when
// none exists yet.
func (s *Store) Load() (*model.RunState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewRunState(), nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var state model.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	state.Normalize()

	return &state, nil
}

// Remove deletes the checkpoint file. Called after a run completes cleanly,
// so a later run does not accidentally resume finished state.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}
