package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/flemzord/chron/internal/supervisor"
)

// Load reads and strictly parses the chronfile at path. Unknown fields
// anywhere in the document are rejected.
func Load(path string) (*Chronfile, error) {
	var cfg Chronfile
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown fields in %s: %s", path, strings.Join(keys, ", "))
	}

	// The decoder matches field names case-insensitively, so job fields
	// are checked here against their exact spelling.
	jobFields := map[string]map[string]bool{
		"startup":  {"command": true, "keepAlive": true},
		"schedule": {"schedule": true, "command": true, "allowConcurrentRuns": true, "makeUpMissedRuns": true},
	}
	for _, k := range md.Keys() {
		if len(k) == 3 && !jobFields[k[0]][k[2]] {
			return nil, fmt.Errorf("config: unknown fields in %s: %s", path, k.String())
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Apply resets the supervisor and registers every declared job, startup
// entries first, each group in name order. The first registration
// failure aborts and propagates; jobs registered before it stay.
func Apply(sup *supervisor.Supervisor, cfg *Chronfile) error {
	sup.Reset()

	for _, name := range sortedKeys(cfg.Startup) {
		job := cfg.Startup[name]
		keepAlive := true
		if job.KeepAlive != nil {
			keepAlive = *job.KeepAlive
		}
		if err := sup.Startup(name, job.Command, keepAlive); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(cfg.Schedule) {
		job := cfg.Schedule[name]
		opts := supervisor.ScheduleOptions{
			AllowConcurrentRuns: job.AllowConcurrentRuns,
			MakeUpMissedRuns:    catchUpLimit(job.MakeUpMissedRuns),
		}
		if err := sup.Schedule(name, job.Schedule, job.Command, opts); err != nil {
			return err
		}
	}

	return nil
}

func catchUpLimit(c CatchUp) supervisor.CatchUpLimit {
	if c.All {
		return supervisor.CatchUpAll()
	}
	return supervisor.CatchUpLimit{Count: c.Count}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
