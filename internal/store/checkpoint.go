package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"stock-screener/internal/types"
)

// CheckpointStore persists per-symbol analysis documents to one JSON file.
// Save replaces the whole file, so a crash between symbols loses at most the
// symbol in flight.
type CheckpointStore struct {
	path string
}

func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Load reads the checkpoint. A missing file is an empty checkpoint, not an
// error.
func (s *CheckpointStore) Load() (map[string]*types.StockRecord, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*types.StockRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", s.path, err)
	}

	records := map[string]*types.StockRecord{}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", s.path, err)
	}
	return records, nil
}

// Save writes the whole document set, replacing any previous content.
func (s *CheckpointStore) Save(records map[string]*types.StockRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint dir: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint %s: %w", s.path, err)
	}
	return nil
}
