// Package supervisor owns the job registry and the lifecycle of every
// child process: startup restart loops, scheduled execution with
// missed-run catch-up, and generation-wide cooperative cancellation.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/flemzord/chron/internal/logsink"
	"github.com/flemzord/chron/internal/mailbox"
	"github.com/flemzord/chron/internal/schedule"
	"github.com/flemzord/chron/internal/status"
)

const restartDelay = 5 * time.Second

// Config wires a Supervisor to its collaborators.
type Config struct {
	// DataDir is the chron data directory; job logs live under
	// DataDir/logs.
	DataDir string

	// Port is the control-plane port. When non-zero, children receive
	// CHRON_MAILBOX_URL pointing at their mailbox.
	Port int

	Logger    *slog.Logger
	Scheduler *schedule.Scheduler
	Status    *status.Store
	Mailbox   *mailbox.Store

	// Metrics may be nil.
	Metrics *Metrics
}

// Supervisor is the job registry and execution engine. All registry
// mutations happen under one mutex; execution paths only read the job
// they were handed.
type Supervisor struct {
	logger  *slog.Logger
	sched   *schedule.Scheduler
	status  *status.Store
	mail    *mailbox.Store
	metrics *Metrics
	logDir  string
	port    int

	delay time.Duration

	mu        sync.Mutex
	jobs      map[string]*Job
	order     []string
	gen       context.Context
	genCancel context.CancelFunc
}

// New creates a supervisor with a fresh generation token.
func New(cfg Config) *Supervisor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gen, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		logger:    logger,
		sched:     cfg.Scheduler,
		status:    cfg.Status,
		mail:      cfg.Mailbox,
		metrics:   cfg.Metrics,
		logDir:    filepath.Join(cfg.DataDir, "logs"),
		port:      cfg.Port,
		delay:     restartDelay,
		jobs:      make(map[string]*Job),
		gen:       gen,
		genCancel: cancel,
	}
}

// Startup validates and registers an always-on job and launches its
// restart loop. The loop runs the command to completion and, while
// keepAlive holds and the generation is alive, waits five seconds and
// runs it again.
func (s *Supervisor) Startup(name, command string, keepAlive bool) error {
	job := &Job{
		Name:      name,
		Command:   command,
		Kind:      KindStartup,
		KeepAlive: keepAlive,
	}
	if err := s.register(job); err != nil {
		return err
	}
	go s.startupLoop(job)
	return nil
}

func (s *Supervisor) startupLoop(job *Job) {
	for {
		if job.gen.Err() != nil {
			return
		}
		job.runLock.Lock()
		s.execute(job)
		job.runLock.Unlock()
		if !job.KeepAlive {
			return
		}
		select {
		case <-job.gen.Done():
			return
		case <-time.After(s.delay):
		}
	}
}

// Schedule validates and registers a cron-driven job, registers it with
// the scheduler, and synchronously makes up missed runs before
// returning.
func (s *Supervisor) Schedule(name, expr, command string, opts ScheduleOptions) error {
	spec, err := schedule.Parse(expr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCron, err)
	}

	job := &Job{
		Name:            name,
		Command:         command,
		Kind:            KindScheduled,
		AllowConcurrent: opts.AllowConcurrentRuns,
		Cron:            spec,
	}
	if err := s.register(job); err != nil {
		return err
	}

	h := s.sched.Register(spec, func() { s.onFire(job) })
	s.mu.Lock()
	job.handle = h
	s.mu.Unlock()

	s.catchUp(job, opts.MakeUpMissedRuns)
	return nil
}

// catchUp counts cron instants between the job's most recent recorded
// run and now, and executes up to the configured number of them
// sequentially.
func (s *Supervisor) catchUp(job *Job, limit CatchUpLimit) {
	last, ok := s.status.LastTimestamp(job.Name)
	if !ok {
		return
	}

	missed := job.Cron.CountBetween(time.UnixMilli(last), time.Now())
	n := limit.limit(missed)
	if n <= 0 {
		return
	}

	s.logger.Info(fmt.Sprintf("Making up %d of %d missed runs for %s", n, missed, job.Name))
	for i := 0; i < n; i++ {
		job.runLock.Lock()
		s.execute(job)
		job.runLock.Unlock()
	}
}

// onFire is the scheduler callback. It never blocks the tick thread:
// execution is handed to a fresh goroutine, or skipped when a previous
// run of a non-concurrent job is still holding the run lock.
func (s *Supervisor) onFire(job *Job) {
	if job.gen.Err() != nil {
		return
	}
	if job.AllowConcurrent {
		go s.execute(job)
		return
	}
	if !job.runLock.TryLock() {
		s.logger.Info(fmt.Sprintf("Skipping %s because it is still running", job.Name))
		return
	}
	go func() {
		defer job.runLock.Unlock()
		s.execute(job)
	}()
}

func (s *Supervisor) register(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateName(job.Name); err != nil {
		return err
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, job.Name)
	}

	job.gen = s.gen
	s.jobs[job.Name] = job
	s.order = append(s.order, job.Name)
	if s.metrics != nil {
		s.metrics.Registered.Set(float64(len(s.jobs)))
	}
	return nil
}

// Reset trips the current generation token (live children receive
// SIGTERM, pending execution paths bail out), unregisters every
// scheduled task, empties the registry, and installs a fresh token for
// subsequent registrations. It does not wait for children to exit.
func (s *Supervisor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.genCancel()
	for _, job := range s.jobs {
		if job.Kind == KindScheduled {
			s.sched.Unregister(job.handle)
		}
	}
	s.jobs = make(map[string]*Job)
	s.order = nil
	s.gen, s.genCancel = context.WithCancel(context.Background())
	if s.metrics != nil {
		s.metrics.Registered.Set(0)
	}
	s.logger.Info("supervisor: registry reset")
}

// JobStatus is a registry snapshot row.
type JobStatus struct {
	Name    string
	Kind    Kind
	Running bool
}

// ListJobs returns every registered job in registration order.
func (s *Supervisor) ListJobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		job := s.jobs[name]
		out = append(out, JobStatus{
			Name:    name,
			Kind:    job.Kind,
			Running: job.Proc() != nil,
		})
	}
	return out
}

// RecentRuns returns every recorded invocation of the job, most recent
// first.
func (s *Supervisor) RecentRuns(name string) []status.Entry {
	return s.status.FindByName(name)
}

// JobDetail is the inspection view of a single job.
type JobDetail struct {
	Name    string
	Kind    Kind
	Runs    []status.Entry
	NextRun *time.Time
	PID     *int
}

// Detail returns the inspection view of a job: its three most recent
// runs, the next firing instant for scheduled jobs, and the PID of a
// live child.
func (s *Supervisor) Detail(name string) (JobDetail, bool) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return JobDetail{}, false
	}

	runs := s.status.FindByName(name)
	if len(runs) > 3 {
		runs = runs[:3]
	}

	d := JobDetail{
		Name: job.Name,
		Kind: job.Kind,
		Runs: runs,
	}
	if job.Kind == KindScheduled {
		next := job.Cron.NextAfter(time.Now())
		d.NextRun = &next
	}
	if p := job.Proc(); p != nil {
		pid := p.Pid
		d.PID = &pid
	}
	return d, true
}

// LogPath returns where the job's log file lives, whether or not it
// exists yet.
func (s *Supervisor) LogPath(name string) string {
	return logsink.Path(s.logDir, name)
}

// Terminate sends SIGTERM to the job's running child. It reports false
// when the job is unknown or has no live process.
func (s *Supervisor) Terminate(name string) bool {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	p := job.Proc()
	if p == nil {
		return false
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		s.logger.Error(fmt.Sprintf("supervisor: signaling %s: %v", name, err))
		return false
	}
	return true
}

// Mailbox exposes the message store for the control plane.
func (s *Supervisor) Mailbox() *mailbox.Store {
	return s.mail
}
