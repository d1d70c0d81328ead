package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired. Unmatched
// paths answer 400 and matched paths with a wrong method answer 405.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Bad request", http.StatusBadRequest)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	r.Get("/", g.handleListJobs())
	r.Get("/health", g.handleHealth())

	r.Route("/job/{name}", func(r chi.Router) {
		r.Get("/status", g.handleJobStatus())
		r.Get("/logs", g.handleGetLogs())
		r.Delete("/logs", g.handleDeleteLogs())
		r.Get("/logs/stream", g.handleStreamLogs())
		r.Get("/mailbox", g.handleJobMailbox())
		r.Post("/mailbox", g.handlePostMailbox())
		r.Delete("/mailbox", g.handleClearJobMailbox())
		r.Post("/terminate", g.handleTerminate())
	})

	r.Get("/mailbox/messages", g.handleAllMessages())
	r.Delete("/mailbox/messages", g.handleClearAll())
	r.Get("/mailbox/count", g.handleCount())
	// Self-reporting target handed to children via CHRON_MAILBOX_URL.
	// Static /mailbox routes above take precedence over the parameter.
	r.Post("/mailbox/{name}", g.handlePostMailbox())

	if g.config.Metrics != nil {
		r.Get("/metrics", promhttp.HandlerFor(g.config.Metrics, promhttp.HandlerOpts{}).ServeHTTP)
	}

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
