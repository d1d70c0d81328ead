// Package logsink frames each job invocation's output in a per-job
// append-only log file: a header with the start time, an 80-dash divider,
// the child's raw stdout/stderr, then a closing divider and status line.
package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var divider = strings.Repeat("-", 80)

// File is one invocation's view of a job log. It owns the underlying
// file handle from header to footer.
type File struct {
	f *os.File
}

// Path returns the log file location for a job inside dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".log")
}

// Open ensures dir exists, opens the job's log in append mode, and
// writes the invocation header.
func Open(dir, name string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logsink: creating log dir: %w", err)
	}

	f, err := os.OpenFile(Path(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logsink: opening log for %s: %w", name, err)
	}

	if _, err := fmt.Fprintf(f, "%s\n%s\n", time.Now().Format(time.RFC3339), divider); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("logsink: writing header for %s: %w", name, err)
	}
	return &File{f: f}, nil
}

// Handle returns the open file for direct redirection of a child
// process's stdout and stderr.
func (l *File) Handle() *os.File {
	return l.f
}

// Close writes the invocation footer with the exit code and closes the
// file.
func (l *File) Close(code int) error {
	_, werr := fmt.Fprintf(l.f, "%s\nStatus: %d\n\n", divider, code)
	cerr := l.f.Close()
	if werr != nil {
		return fmt.Errorf("logsink: writing footer: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("logsink: closing log: %w", cerr)
	}
	return nil
}
