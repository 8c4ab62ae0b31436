// Package history keeps one JSON document per completed run under
// state/runs/ so later runs and the review screen can see what a week
// looked like.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/saulrichardson/allstate-weekly-lists/internal/logbook"
)

// Run is the durable record of one assignment run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Assigned maps employee name to source name to the row ids placed
	// there. Row ids are run-scoped ingestion sequence numbers.
	Assigned map[string]map[string][]int `json:"assigned"`

	// Unassigned lists the row ids nobody took.
	Unassigned []int `json:"unassigned,omitempty"`

	Counts Counts `json:"counts"`
}

// Counts summarizes a run at a glance.
type Counts struct {
	Records    int `json:"records"`
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
	Employees  int `json:"employees"`
}

// Store reads and writes run records in a single directory.
type Store struct {
	dir  string
	book *logbook.Logbook
}

// Option adjusts a Store.
type Option func(*Store)

// WithLogbook reports skipped records into the shared journal.
func WithLogbook(book *logbook.Logbook) Option {
	return func(s *Store) { s.book = book }
}

// NewStore builds a store rooted at dir. The directory is created on
// first append, not here.
func NewStore(dir string, opts ...Option) *Store {
	store := &Store{dir: dir}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Append persists the run as <id>.json and returns the path written.
func (s *Store) Append(run Run) (string, error) {
	if strings.TrimSpace(run.ID) == "" {
		return "", fmt.Errorf("history: run id is empty")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("history: create runs dir: %w", err)
	}
	encoded, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("history: encode run %s: %w", run.ID, err)
	}
	path := filepath.Join(s.dir, run.ID+".json")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("history: write run %s: %w", run.ID, err)
	}
	return path, nil
}

// List returns every readable run record, newest start time first. A
// record that fails to decode is skipped, not fatal: one corrupt file
// must not hide the rest of the history.
func (s *Store) List() ([]Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: read runs dir: %w", err)
	}

	var runs []Run
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			s.book.Warn("skipping unreadable run record %s: %v", entry.Name(), err)
			continue
		}
		var run Run
		if err := json.Unmarshal(raw, &run); err != nil {
			s.book.Warn("skipping malformed run record %s: %v", entry.Name(), err)
			continue
		}
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}

// Latest returns the most recent run, or nil when the store is empty.
func (s *Store) Latest() (*Run, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}
