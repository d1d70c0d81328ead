package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/chron/internal/supervisor"
)

// jobJSON is one row of the GET / listing.
type jobJSON struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
}

// handleListJobs returns every registered job with its running state.
func (g *Gateway) handleListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		jobs := []jobJSON{}
		for _, j := range g.sup.ListJobs() {
			jobs = append(jobs, jobJSON{Name: j.Name, Running: j.Running})
		}
		writeJSON(w, jobs)
	}
}

// runJSON is one recorded invocation in a status response.
type runJSON struct {
	Timestamp  int64 `json:"timestamp"`
	StatusCode *int  `json:"statusCode,omitempty"`
}

// statusJSON is the GET /job/{name}/status response.
type statusJSON struct {
	Name    string          `json:"name"`
	Type    supervisor.Kind `json:"type"`
	Runs    []runJSON       `json:"runs"`
	NextRun string          `json:"nextRun,omitempty"`
	PID     *int            `json:"pid,omitempty"`
}

// handleJobStatus returns the detail view of one job.
func (g *Gateway) handleJobStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		d, ok := g.sup.Detail(name)
		if !ok {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}

		resp := statusJSON{
			Name: d.Name,
			Type: d.Kind,
			Runs: []runJSON{},
			PID:  d.PID,
		}
		for _, e := range d.Runs {
			resp.Runs = append(resp.Runs, runJSON{Timestamp: e.Timestamp, StatusCode: e.StatusCode})
		}
		if d.NextRun != nil {
			resp.NextRun = d.NextRun.Format(time.RFC3339)
		}
		writeJSON(w, resp)
	}
}

// handleTerminate signals a running job's child.
func (g *Gateway) handleTerminate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if g.sup.Terminate(name) {
			_, _ = w.Write([]byte("Terminated job"))
			return
		}
		_, _ = w.Write([]byte("Job not running"))
	}
}
