package gateway

import (
	"net/http"
	"time"
)

// healthResponse is the GET /health body.
type healthResponse struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime_seconds"`
}

// handleHealth is a liveness probe.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, healthResponse{
			Status: "ok",
			Uptime: int64(time.Since(g.startedAt) / time.Second),
		})
	}
}
