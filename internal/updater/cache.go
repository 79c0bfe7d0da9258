package updater

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pointy-labs/pointy/internal/platform"
)

// State records the last automatic update run.
type State struct {
	CheckedAt time.Time `json:"checked_at"`
	RunID     string    `json:"run_id"`
	Updated   int       `json:"updated"`
	Failed    int       `json:"failed"`
}

// LoadState reads the update state file.
// Returns nil, nil if the file does not exist (first run).
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading update state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing update state: %w", err)
	}
	return &s, nil
}

// SaveState writes the update state file.
func SaveState(path string, s *State) error {
	if err := os.MkdirAll(filepath.Dir(path), platform.DirPerm); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling update state: %w", err)
	}
	if err := os.WriteFile(path, data, platform.FilePerm); err != nil {
		return fmt.Errorf("writing update state: %w", err)
	}
	return nil
}

// IsStale returns true if s is nil or older than maxAge.
func IsStale(s *State, maxAge time.Duration) bool {
	if s == nil {
		return true
	}
	return time.Since(s.CheckedAt) > maxAge
}
