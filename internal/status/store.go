// Package status persists one record per job invocation in a single JSON
// document. Records are created when a child is about to be spawned and
// patched exactly once with the exit code after it terminates.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a single invocation record. StatusCode is nil while the child
// is still running.
type Entry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Timestamp  int64  `json:"timestamp"`
	StatusCode *int   `json:"statusCode,omitempty"`
}

// NewEntry creates an entry for a job that is about to start, stamped with
// the current time in epoch milliseconds.
func NewEntry(name string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Store is a JSON-file-backed collection of entries. All mutations are
// serialized and flushed to disk immediately; durability is best-effort.
type Store struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// Open loads the store at path, creating an empty one if the file does
// not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("status: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.entries); err != nil {
		return nil, fmt.Errorf("status: parsing %s: %w", path, err)
	}
	return s, nil
}

// Insert appends an entry and persists the document.
func (s *Store) Insert(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	return s.flush()
}

// Update patches the entry with the given id with its exit code.
func (s *Store) Update(id string, code int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			c := code
			s.entries[i].StatusCode = &c
			return s.flush()
		}
	}
	return fmt.Errorf("status: no entry with id %s", id)
}

// FindByName returns all entries for the given job, sorted by timestamp
// descending (most recent first).
func (s *Store) FindByName(name string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, e := range s.entries {
		if e.Name == name {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// LastTimestamp returns the most recent invocation timestamp for the job,
// or false if the job has never run.
func (s *Store) LastTimestamp(name string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last int64
	found := false
	for _, e := range s.entries {
		if e.Name == name && (!found || e.Timestamp > last) {
			last = e.Timestamp
			found = true
		}
	}
	return last, found
}

// flush writes the whole document. Caller must hold s.mu.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("status: encoding entries: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("status: creating data dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("status: writing %s: %w", s.path, err)
	}
	return nil
}
