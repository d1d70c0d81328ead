// Package schedule provides cron expression parsing and a passive
// polling scheduler that fires registered callbacks at matching instants.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// parser accepts standard five-field cron expressions
// (minute, hour, day-of-month, month, day-of-week).
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Spec is a parsed cron expression.
type Spec struct {
	expr  string
	sched cron.Schedule
}

// Parse parses a five-field cron expression.
func Parse(expr string) (Spec, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return Spec{}, fmt.Errorf("schedule: invalid cron expression %q: %w", expr, err)
	}
	return Spec{expr: expr, sched: sched}, nil
}

// String returns the original expression.
func (s Spec) String() string {
	return s.expr
}

// NextAfter returns the next firing instant strictly after t.
func (s Spec) NextAfter(t time.Time) time.Time {
	return s.sched.Next(t)
}

// CountBetween returns how many firing instants fall strictly after
// `after` and not after `until`.
func (s Spec) CountBetween(after, until time.Time) int {
	n := 0
	for t := s.sched.Next(after); !t.IsZero() && !t.After(until); t = s.sched.Next(t) {
		n++
	}
	return n
}
