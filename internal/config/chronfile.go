// Package config parses the chronfile, the TOML document declaring
// every supervised job, and applies it to the supervisor.
package config

import (
	"errors"
	"fmt"
)

// Chronfile is the parsed configuration document.
type Chronfile struct {
	Startup  map[string]StartupJob   `toml:"startup"`
	Schedule map[string]ScheduledJob `toml:"schedule"`
}

// StartupJob declares an always-on job.
type StartupJob struct {
	Command string `toml:"command"`

	// KeepAlive defaults to true when absent.
	KeepAlive *bool `toml:"keepAlive"`
}

// ScheduledJob declares a cron-driven job.
type ScheduledJob struct {
	Schedule            string  `toml:"schedule"`
	Command             string  `toml:"command"`
	AllowConcurrentRuns bool    `toml:"allowConcurrentRuns"`
	MakeUpMissedRuns    CatchUp `toml:"makeUpMissedRuns"`
}

// CatchUp is the makeUpMissedRuns value: a non-negative integer or the
// string "all". The zero value means no catch-up.
type CatchUp struct {
	All   bool
	Count int
}

// UnmarshalTOML accepts an integer count or the "all" sentinel.
func (c *CatchUp) UnmarshalTOML(v any) error {
	switch t := v.(type) {
	case int64:
		if t < 0 {
			return fmt.Errorf("config: makeUpMissedRuns must be non-negative, got %d", t)
		}
		c.Count = int(t)
	case string:
		if t != "all" {
			return fmt.Errorf("config: makeUpMissedRuns string must be %q, got %q", "all", t)
		}
		c.All = true
	default:
		return fmt.Errorf("config: makeUpMissedRuns must be a non-negative integer or %q", "all")
	}
	return nil
}

// validate checks that every declared job carries its required fields.
func (c *Chronfile) validate() error {
	var errs []error

	for name, job := range c.Startup {
		if job.Command == "" {
			errs = append(errs, fmt.Errorf("config: startup.%s: command is required", name))
		}
	}
	for name, job := range c.Schedule {
		if job.Schedule == "" {
			errs = append(errs, fmt.Errorf("config: schedule.%s: schedule is required", name))
		}
		if job.Command == "" {
			errs = append(errs, fmt.Errorf("config: schedule.%s: command is required", name))
		}
	}

	return errors.Join(errs...)
}
