package schedule

import (
	"testing"
	"time"
)

func TestParse_RejectsMalformedExpressions(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "not cron", "* * * *", "61 * * * *", "* * * * * *"} {
		if _, err := Parse(expr); err == nil {
			t.Errorf("Parse(%q) should fail", expr)
		}
	}
}

func TestParse_AcceptsStandardExpressions(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"* * * * *", "*/5 * * * *", "0 0 * * 0", "30 4 1 1 *"} {
		if _, err := Parse(expr); err != nil {
			t.Errorf("Parse(%q) failed: %v", expr, err)
		}
	}
}

func TestSpec_NextAfterIsStrictlyAfter(t *testing.T) {
	t.Parallel()

	s, err := Parse("* * * * *")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	next := s.NextAfter(at)
	if !next.After(at) {
		t.Fatalf("NextAfter(%v) = %v, not strictly after", at, next)
	}
	if next != at.Add(time.Minute) {
		t.Fatalf("NextAfter on a minute boundary = %v, want %v", next, at.Add(time.Minute))
	}
}

func TestSpec_CountBetween(t *testing.T) {
	t.Parallel()

	s, err := Parse("* * * * *")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	start := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)

	if got := s.CountBetween(start, start.Add(5*time.Minute)); got != 5 {
		t.Fatalf("CountBetween over 5 minutes = %d, want 5", got)
	}
	if got := s.CountBetween(start, start); got != 0 {
		t.Fatalf("CountBetween over empty window = %d, want 0", got)
	}
	// The boundary instant itself counts (not after "until").
	if got := s.CountBetween(start, start.Add(30*time.Second)); got != 1 {
		t.Fatalf("CountBetween up to a boundary = %d, want 1", got)
	}
}
