package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State remembers the last commit a journal entry was generated for, so a
// restarted watcher does not re-process it.
type State struct {
	LastHash  string    `json:"last_hash"`
	UpdatedAt time.Time `json:"updated_at"`

	path string // not serialized
}

func statePath(repoPath string) string {
	return filepath.Join(repoPath, ".git", "commitstory-state.json")
}

// LoadState reads the watcher state, or starts fresh if none exists.
func LoadState(repoPath string) (*State, error) {
	p := statePath(repoPath)

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{path: p}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	s.path = p
	return &s, nil
}

// Mark records hash as processed and persists immediately.
func (s *State) Mark(hash string) error {
	s.LastHash = hash
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Seen reports whether hash was the last processed commit.
func (s *State) Seen(hash string) bool {
	return s.LastHash == hash
}
