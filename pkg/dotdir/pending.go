package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	pendingFile = "pending.json"
)

// PendingCommit is a topic that was selected by a discovery cycle but not yet
// confirmed as written to the topic memory. It is written before the commit
// phase and removed after it, so a crash in between leaves it behind for the
// next run to replay.
type PendingCommit struct {
	// ID is the deterministic topic id of Title.
	ID string `json:"id"`

	// Title is the selected topic text.
	Title string `json:"title"`

	// Score is the rank the candidate was selected with.
	Score float64 `json:"score"`

	// Justification is carried through from the candidate untouched.
	Justification string `json:"justification,omitempty"`

	// ProposedAt is when the selection was made.
	ProposedAt time.Time `json:"proposed_at"`
}

// Journal persists a single PendingCommit inside a scout directory.
type Journal struct {
	path string
}

// NewJournal returns a journal stored in the scout directory resolved from
// overrideDir.
func (m *Manager) NewJournal(overrideDir string) (*Journal, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	return &Journal{path: filepath.Join(dir, pendingFile)}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Load returns the pending commit, or nil, nil when nothing is pending.
func (j *Journal) Load() (*PendingCommit, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pending commit: %w", err)
	}

	pending := &PendingCommit{}
	if err := json.Unmarshal(data, pending); err != nil {
		return nil, fmt.Errorf("parsing pending commit: %w", err)
	}

	return pending, nil
}

// Save records pending, replacing whatever was there.
func (j *Journal) Save(pending *PendingCommit) error {
	if pending == nil {
		return errors.New("cannot save nil pending commit")
	}

	data, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling pending commit: %w", err)
	}

	// write-then-rename so a crash never leaves a torn journal
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing pending commit: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("writing pending commit: %w", err)
	}

	return nil
}

// Clear removes the pending commit. Clearing an empty journal is not an error.
func (j *Journal) Clear() error {
	if err := os.Remove(j.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing pending commit: %w", err)
	}

	return nil
}
