package gateway

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestStreamLogs(t *testing.T) {
	t.Parallel()

	srv, sup := newTestServer(t)

	resp, _ := get(t, srv.URL+"/job/quiet/logs/stream")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("absent log stream = %d, want 404", resp.StatusCode)
	}

	if err := os.WriteFile(sup.LogPath("tailed"), []byte("first\n"), 0o644); err != nil {
		t.Fatalf("writing log fixture: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(srv.URL, "http://", "ws://", 1) + "/job/tailed/logs/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dialing stream: %v", err)
	}
	defer conn.CloseNow()

	_, msg, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading initial tail: %v", err)
	}
	if string(msg) != "first\n" {
		t.Fatalf("initial tail = %q", msg)
	}

	// An append shows up as a further message.
	f, err := os.OpenFile(sup.LogPath("tailed"), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("reopening log: %v", err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatalf("appending: %v", err)
	}
	_ = f.Close()

	_, msg, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading appended tail: %v", err)
	}
	if string(msg) != "second\n" {
		t.Fatalf("appended tail = %q", msg)
	}
}
