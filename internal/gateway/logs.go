package gateway

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

// handleGetLogs streams the job's log file as plain text.
func (g *Gateway) handleGetLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := g.sup.LogPath(chi.URLParam(r, "name"))
		f, err := os.Open(path)
		if err != nil {
			writeFSError(w, err)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.Copy(w, f)
	}
}

// handleDeleteLogs removes the job's log file.
func (g *Gateway) handleDeleteLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := g.sup.LogPath(chi.URLParam(r, "name"))
		if err := os.Remove(path); err != nil {
			writeFSError(w, err)
			return
		}
		_, _ = w.Write([]byte("Deleted log file"))
	}
}

// writeFSError maps a filesystem error onto the HTTP surface: missing
// file is 404, anything else is 500 with the error text.
func writeFSError(w http.ResponseWriter, err error) {
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "Log file not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
