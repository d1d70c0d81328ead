package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/flemzord/chron/internal/logsink"
	"github.com/flemzord/chron/internal/mailbox"
	"github.com/flemzord/chron/internal/status"
)

// execute runs one invocation of the job to completion: status entry,
// framed log capture, child process, exit-code recording, and the
// failure message. A generation already cancelled when execute is
// entered aborts silently; one cancelled later SIGTERMs the child.
func (s *Supervisor) execute(job *Job) {
	if job.gen.Err() != nil {
		return
	}

	entry := status.NewEntry(job.Name)
	if err := s.status.Insert(entry); err != nil {
		s.logger.Error(fmt.Sprintf("supervisor: recording run of %s: %v", job.Name, err))
	}
	if s.metrics != nil {
		s.metrics.Runs.WithLabelValues(job.Name).Inc()
	}

	sink, err := logsink.Open(s.logDir, job.Name)
	if err != nil {
		s.logger.Error(fmt.Sprintf("supervisor: opening log for %s: %v", job.Name, err))
		sink = nil
	}

	code, spawned := s.runChild(job, sink)

	if err := s.status.Update(entry.ID, code); err != nil {
		s.logger.Error(fmt.Sprintf("supervisor: recording exit of %s: %v", job.Name, err))
	}
	if code != 0 && s.metrics != nil {
		s.metrics.Failures.WithLabelValues(job.Name).Inc()
	}
	if spawned && code != 0 {
		s.postFailure(job.Name, code)
	}
	if sink != nil {
		if err := sink.Close(code); err != nil {
			s.logger.Error(fmt.Sprintf("supervisor: closing log for %s: %v", job.Name, err))
		}
	}
}

// runChild spawns the command under sh -c and waits for it. The second
// return reports whether the child actually started; a spawn failure
// yields (-1, false) and never posts a failure message.
func (s *Supervisor) runChild(job *Job, sink *logsink.File) (int, bool) {
	cmd := exec.Command("sh", "-c", job.Command)
	cmd.Env = s.childEnv(job.Name)
	if sink != nil {
		cmd.Stdout = sink.Handle()
		cmd.Stderr = sink.Handle()
	}

	if err := cmd.Start(); err != nil {
		s.logger.Error(fmt.Sprintf("supervisor: spawning %s: %v", job.Name, err))
		return -1, false
	}
	job.setProc(cmd.Process)
	defer job.clearProc()

	done := make(chan struct{})
	go func() {
		select {
		case <-job.gen.Done():
			if p := job.Proc(); p != nil {
				_ = p.Signal(syscall.SIGTERM)
			}
		case <-done:
		}
	}()

	err := cmd.Wait()
	close(done)
	if err == nil {
		return 0, true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	s.logger.Error(fmt.Sprintf("supervisor: waiting on %s: %v", job.Name, err))
	return -1, true
}

// childEnv is the parent environment plus the child's mailbox URL when
// the control plane is listening.
func (s *Supervisor) childEnv(name string) []string {
	env := os.Environ()
	if s.port > 0 {
		env = append(env, fmt.Sprintf("CHRON_MAILBOX_URL=http://0.0.0.0:%d/mailbox/%s", s.port, name))
	}
	return env
}

func (s *Supervisor) postFailure(name string, code int) {
	text := fmt.Sprintf("%s failed with status code %d", name, code)
	if _, err := s.mail.Add(mailbox.ErrorsSource, text); err != nil {
		s.logger.Error(fmt.Sprintf("supervisor: posting failure of %s: %v", name, err))
	}
}
