package schedule

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const defaultTick = time.Second

// Handle identifies a registered task for later removal.
type Handle int64

// task is one registered callback with its precomputed next firing.
type task struct {
	spec Spec
	fn   func()
	next time.Time
}

// Scheduler polls registered tasks once per tick and invokes every task
// whose next firing is at or before now. A late tick catches the first
// missed instant; a task never fires twice for the same instant because
// its next firing is advanced past now before the callback runs.
//
// Callbacks run on the tick goroutine and must hand real work off
// elsewhere.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[Handle]*task
	nextID Handle
	tick   time.Duration
	logger *slog.Logger

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	stopped   chan struct{}
}

// NewScheduler creates a scheduler polling at a 1-second tick.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		tasks:   make(map[Handle]*task),
		tick:    defaultTick,
		logger:  logger,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Register adds a task firing at the spec's matching instants. The
// returned handle is accepted by Unregister.
func (s *Scheduler) Register(spec Spec, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	h := s.nextID
	s.tasks[h] = &task{
		spec: spec,
		fn:   fn,
		next: spec.NextAfter(time.Now()),
	}
	return h
}

// Unregister removes a task. Unknown handles are ignored.
func (s *Scheduler) Unregister(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, h)
}

// Start launches the polling loop. Safe to call multiple times; only
// the first call starts the goroutine.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		s.logger.Info("cron: scheduler started")
		go s.run()
	})
}

// Stop terminates the polling loop and waits for it to exit. Safe to
// call multiple times and before Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.started.Load() {
		<-s.stopped
		s.logger.Info("cron: scheduler stopped")
	}
}

func (s *Scheduler) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			for _, fn := range s.due(now) {
				fn()
			}
		}
	}
}

// due collects the callbacks of every task whose next firing is at or
// before now, advancing each task's next firing past now.
func (s *Scheduler) due(now time.Time) []func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fire []func()
	for _, t := range s.tasks {
		if t.next.After(now) {
			continue
		}
		fire = append(fire, t.fn)
		t.next = t.spec.NextAfter(now)
	}
	return fire
}
