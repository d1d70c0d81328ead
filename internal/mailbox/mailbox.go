// Package mailbox is a small append-only message log addressable by
// source tag. Jobs post progress notes under their own name; the
// supervisor posts failure notices under the reserved @errors source.
package mailbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrorsSource is the reserved source tag for supervisor-emitted
// failure notifications.
const ErrorsSource = "@errors"

// Message is a single time-stamped mailbox record.
type Message struct {
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Store is a JSON-file-backed mailbox. Messages are never mutated, only
// added or bulk-deleted; writes are serialized under one mutex.
type Store struct {
	mu       sync.Mutex
	path     string
	messages []Message
}

// Open loads the mailbox at path, creating an empty one if the file does
// not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mailbox: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.messages); err != nil {
		return nil, fmt.Errorf("mailbox: parsing %s: %w", path, err)
	}
	return s, nil
}

// Add stamps text with the current time, stores it under source, and
// returns the stored record.
func (s *Store) Add(source, text string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Message{
		Source:    source,
		Timestamp: time.Now().Format(time.UnixDate),
		Message:   text,
	}
	s.messages = append(s.messages, m)
	if err := s.flush(); err != nil {
		return m, err
	}
	return m, nil
}

// ListBySource returns all messages with the given source.
func (s *Store) ListBySource(source string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Message
	for _, m := range s.messages {
		if m.Source == source {
			out = append(out, m)
		}
	}
	return out
}

// ListAll returns every message in the mailbox.
func (s *Store) ListAll() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Count returns the total number of messages.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// ClearBySource removes and returns all messages with the given source.
func (s *Store) ClearBySource(source string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed, kept []Message
	for _, m := range s.messages {
		if m.Source == source {
			removed = append(removed, m)
		} else {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	if err := s.flush(); err != nil {
		return removed, err
	}
	return removed, nil
}

// ClearAll removes and returns every message.
func (s *Store) ClearAll() ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.messages
	s.messages = nil
	if err := s.flush(); err != nil {
		return removed, err
	}
	return removed, nil
}

// flush writes the whole document. Caller must hold s.mu.
func (s *Store) flush() error {
	msgs := s.messages
	if msgs == nil {
		msgs = []Message{}
	}
	raw, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("mailbox: encoding messages: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mailbox: creating data dir: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("mailbox: writing %s: %w", s.path, err)
	}
	return nil
}
