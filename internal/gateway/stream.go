package gateway

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

const streamPoll = 500 * time.Millisecond

// handleStreamLogs upgrades to a websocket and follows the job's log
// file: the current contents first, then every appended chunk as its
// own text message. The stream ends when the client disconnects.
func (g *Gateway) handleStreamLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := g.sup.LogPath(chi.URLParam(r, "name"))
		f, err := os.Open(path)
		if err != nil {
			writeFSError(w, err)
			return
		}
		defer f.Close()

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := conn.CloseRead(r.Context())
		if err := g.tailFile(ctx, conn, f); err != nil {
			g.logger.Debug("log stream ended", "error", err)
		}
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

// tailFile pushes the file's current tail and then polls for appends.
func (g *Gateway) tailFile(ctx context.Context, conn *websocket.Conn, f *os.File) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if werr := conn.Write(ctx, websocket.MessageText, buf[:n]); werr != nil {
				return werr
			}
			continue
		}
		if err != nil && err != io.EOF {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(streamPoll):
		}
	}
}
