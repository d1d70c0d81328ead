package mailbox

import (
	"path/filepath"
	"testing"
)

func TestStore_AddAndList(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "mailbox.json"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	m, err := s.Add("backup", "snapshot complete")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if m.Source != "backup" || m.Message != "snapshot complete" {
		t.Fatalf("stored record mismatch: %+v", m)
	}
	if m.Timestamp == "" {
		t.Fatal("message should be stamped with the current time")
	}

	if _, err := s.Add(ErrorsSource, "backup failed with status code 1"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if got := s.ListBySource("backup"); len(got) != 1 {
		t.Fatalf("ListBySource(backup) = %d messages, want 1", len(got))
	}
	if got := s.ListAll(); len(got) != 2 {
		t.Fatalf("ListAll = %d messages, want 2", len(got))
	}
	if s.Count() != 2 {
		t.Fatalf("Count = %d, want 2", s.Count())
	}
}

func TestStore_ClearBySourceRemovesExactlyThatSource(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "mailbox.json"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	_, _ = s.Add("a", "one")
	_, _ = s.Add("b", "two")
	_, _ = s.Add("a", "three")

	removed, err := s.ClearBySource("a")
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed %d messages, want 2", len(removed))
	}
	for _, m := range removed {
		if m.Source != "a" {
			t.Fatalf("removed message with source %q", m.Source)
		}
	}
	if got := s.ListAll(); len(got) != 1 || got[0].Source != "b" {
		t.Fatalf("remaining messages wrong: %+v", got)
	}
}

func TestStore_ClearAll(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "mailbox.json"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	_, _ = s.Add("a", "one")
	_, _ = s.Add("b", "two")

	removed, err := s.ClearAll()
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed %d messages, want 2", len(removed))
	}
	if s.Count() != 0 {
		t.Fatalf("Count after ClearAll = %d, want 0", s.Count())
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mailbox.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := s.Add("notes", "hello"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got := s2.ListBySource("notes")
	if len(got) != 1 || got[0].Message != "hello" {
		t.Fatalf("reopened mailbox lost data: %+v", got)
	}
}
