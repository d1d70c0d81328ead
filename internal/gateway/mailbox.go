package gateway

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/chron/internal/mailbox"
)

// handleJobMailbox lists the messages posted under the job's name.
func (g *Gateway) handleJobMailbox() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs := g.sup.Mailbox().ListBySource(chi.URLParam(r, "name"))
		if msgs == nil {
			msgs = []mailbox.Message{}
		}
		writeJSON(w, msgs)
	}
}

// handlePostMailbox stores the request body as a message from the named
// source and returns the stored record. Serves both the /job/{name}
// route and the /mailbox/{name} alias children are pointed at.
func (g *Gateway) handlePostMailbox() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		m, err := g.sup.Mailbox().Add(name, string(body))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, m)
	}
}

// handleClearJobMailbox removes the job's messages and returns them.
func (g *Gateway) handleClearJobMailbox() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := g.sup.Mailbox().ClearBySource(chi.URLParam(r, "name"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if removed == nil {
			removed = []mailbox.Message{}
		}
		writeJSON(w, removed)
	}
}

// handleAllMessages lists every message in the mailbox.
func (g *Gateway) handleAllMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, g.sup.Mailbox().ListAll())
	}
}

// handleClearAll empties the mailbox and returns what was removed.
func (g *Gateway) handleClearAll() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		removed, err := g.sup.Mailbox().ClearAll()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if removed == nil {
			removed = []mailbox.Message{}
		}
		writeJSON(w, removed)
	}
}

// handleCount returns the total number of messages.
func (g *Gateway) handleCount() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, g.sup.Mailbox().Count())
	}
}
