package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/flemzord/chron/internal/schedule"
)

// Kind distinguishes always-on jobs from cron-driven ones.
type Kind string

// Job kinds.
const (
	KindStartup   Kind = "startup"
	KindScheduled Kind = "scheduled"
)

// Registration errors.
var (
	ErrInvalidName   = errors.New("supervisor: invalid job name")
	ErrDuplicateName = errors.New("supervisor: duplicate job name")
	ErrInvalidCron   = errors.New("supervisor: invalid cron expression")
)

// namePattern is the kebab-case job naming rule: alphanumeric segments
// joined by single dashes.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)*$`)

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// CatchUpLimit bounds how many missed scheduled runs are made up on
// registration. The zero value makes up nothing.
type CatchUpLimit struct {
	// All makes up every missed run, ignoring Count.
	All   bool
	Count int
}

// CatchUpAll is the "all" sentinel.
func CatchUpAll() CatchUpLimit { return CatchUpLimit{All: true} }

// limit returns how many of missed runs to make up.
func (c CatchUpLimit) limit(missed int) int {
	if c.All {
		return missed
	}
	return min(missed, c.Count)
}

// ScheduleOptions configure a scheduled job.
type ScheduleOptions struct {
	AllowConcurrentRuns bool
	MakeUpMissedRuns    CatchUpLimit
}

// Job is one registered unit of supervision. Its gen context is the
// cancel token of the registry generation it was registered under.
type Job struct {
	Name            string
	Command         string
	Kind            Kind
	KeepAlive       bool
	AllowConcurrent bool
	Cron            schedule.Spec

	handle schedule.Handle
	gen    context.Context

	// runLock serializes invocations when concurrent runs are not
	// allowed. TryLock on the scheduler path makes check-and-run atomic.
	runLock sync.Mutex

	mu   sync.Mutex
	proc *os.Process
}

func (j *Job) setProc(p *os.Process) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.proc = p
}

func (j *Job) clearProc() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.proc = nil
}

// Proc returns the in-flight child process, or nil.
func (j *Job) Proc() *os.Process {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.proc
}
