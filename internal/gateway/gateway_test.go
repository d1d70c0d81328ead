package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/chron/internal/mailbox"
	"github.com/flemzord/chron/internal/status"
	"github.com/flemzord/chron/internal/supervisor"
)

// fakeSupervisor is a canned-response job engine for handler tests.
type fakeSupervisor struct {
	jobs       []supervisor.JobStatus
	details    map[string]supervisor.JobDetail
	logDir     string
	mail       *mailbox.Store
	terminated []string
	running    bool
}

func (f *fakeSupervisor) ListJobs() []supervisor.JobStatus { return f.jobs }

func (f *fakeSupervisor) Detail(name string) (supervisor.JobDetail, bool) {
	d, ok := f.details[name]
	return d, ok
}

func (f *fakeSupervisor) LogPath(name string) string {
	return filepath.Join(f.logDir, name+".log")
}

func (f *fakeSupervisor) Terminate(name string) bool {
	f.terminated = append(f.terminated, name)
	return f.running
}

func (f *fakeSupervisor) Mailbox() *mailbox.Store { return f.mail }

func newTestServer(t *testing.T) (*httptest.Server, *fakeSupervisor) {
	t.Helper()

	dir := t.TempDir()
	mb, err := mailbox.Open(filepath.Join(dir, "mailbox.json"))
	if err != nil {
		t.Fatalf("opening mailbox: %v", err)
	}
	sup := &fakeSupervisor{
		logDir:  dir,
		mail:    mb,
		details: map[string]supervisor.JobDetail{},
	}
	g := New(Config{Bind: "127.0.0.1:0", Logger: slog.Default(), Supervisor: sup})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)
	return srv, sup
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return drain(t, resp)
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("building %s %s: %v", method, url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return drain(t, resp)
}

func drain(t *testing.T, resp *http.Response) (*http.Response, string) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(raw)
}

func TestListJobs(t *testing.T) {
	t.Parallel()

	srv, sup := newTestServer(t)
	sup.jobs = []supervisor.JobStatus{
		{Name: "backup", Kind: supervisor.KindScheduled, Running: false},
		{Name: "server", Kind: supervisor.KindStartup, Running: true},
	}

	resp, body := get(t, srv.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(rows) != 2 || rows[0]["name"] != "backup" || rows[1]["running"] != true {
		t.Fatalf("rows = %v", rows)
	}
}

func TestJobStatus(t *testing.T) {
	t.Parallel()

	srv, sup := newTestServer(t)

	resp, _ := get(t, srv.URL+"/job/ghost/status")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown job status = %d, want 404", resp.StatusCode)
	}

	next := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
	code := 0
	pid := 4242
	sup.details["backup"] = supervisor.JobDetail{
		Name:    "backup",
		Kind:    supervisor.KindScheduled,
		Runs:    []status.Entry{{ID: "x", Name: "backup", Timestamp: 1754000000000, StatusCode: &code}},
		NextRun: &next,
		PID:     &pid,
	}

	resp, body := get(t, srv.URL+"/job/backup/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var d map[string]any
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if d["type"] != "scheduled" || d["nextRun"] != "2026-08-06T12:00:00Z" || d["pid"] != float64(4242) {
		t.Fatalf("detail = %v", d)
	}
	runs := d["runs"].([]any)
	if len(runs) != 1 || runs[0].(map[string]any)["statusCode"] != float64(0) {
		t.Fatalf("runs = %v", runs)
	}
}

func TestLogs(t *testing.T) {
	t.Parallel()

	srv, sup := newTestServer(t)

	resp, _ := get(t, srv.URL+"/job/quiet/logs")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("absent log GET = %d, want 404", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodDelete, srv.URL+"/job/quiet/logs", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("absent log DELETE = %d, want 404", resp.StatusCode)
	}

	if err := os.WriteFile(sup.LogPath("noisy"), []byte("some output\n"), 0o644); err != nil {
		t.Fatalf("writing log fixture: %v", err)
	}

	resp, body := get(t, srv.URL+"/job/noisy/logs")
	if resp.StatusCode != http.StatusOK || body != "some output\n" {
		t.Fatalf("log GET = %d %q", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodDelete, srv.URL+"/job/noisy/logs", "")
	if resp.StatusCode != http.StatusOK || body != "Deleted log file" {
		t.Fatalf("log DELETE = %d %q", resp.StatusCode, body)
	}
	if _, err := os.Stat(sup.LogPath("noisy")); !os.IsNotExist(err) {
		t.Fatal("log file still exists after DELETE")
	}
}

func TestMailboxRoutes(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/job/notify/mailbox", "backup done")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST mailbox = %d", resp.StatusCode)
	}
	var m mailbox.Message
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("parsing created record: %v", err)
	}
	if m.Source != "notify" || m.Message != "backup done" || m.Timestamp == "" {
		t.Fatalf("created record = %+v", m)
	}

	// The alias route handed to children behaves identically.
	resp, _ = do(t, http.MethodPost, srv.URL+"/mailbox/notify", "second")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST alias = %d", resp.StatusCode)
	}

	_, body = get(t, srv.URL+"/job/notify/mailbox")
	var msgs []mailbox.Message
	if err := json.Unmarshal([]byte(body), &msgs); err != nil {
		t.Fatalf("parsing list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}

	_, body = get(t, srv.URL+"/mailbox/count")
	if strings.TrimSpace(body) != "2" {
		t.Fatalf("count = %q, want 2", body)
	}

	resp, body = do(t, http.MethodDelete, srv.URL+"/job/notify/mailbox", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE job mailbox = %d", resp.StatusCode)
	}
	if err := json.Unmarshal([]byte(body), &msgs); err != nil || len(msgs) != 2 {
		t.Fatalf("removed = %q (%v)", body, err)
	}

	_, body = get(t, srv.URL+"/mailbox/messages")
	if err := json.Unmarshal([]byte(body), &msgs); err != nil || len(msgs) != 0 {
		t.Fatalf("messages after clear = %q (%v)", body, err)
	}

	_, _ = do(t, http.MethodPost, srv.URL+"/mailbox/other", "left over")
	resp, body = do(t, http.MethodDelete, srv.URL+"/mailbox/messages", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE all = %d", resp.StatusCode)
	}
	if err := json.Unmarshal([]byte(body), &msgs); err != nil || len(msgs) != 1 {
		t.Fatalf("cleared = %q (%v)", body, err)
	}
}

func TestTerminate(t *testing.T) {
	t.Parallel()

	srv, sup := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/job/idle/terminate", "")
	if resp.StatusCode != http.StatusOK || body != "Job not running" {
		t.Fatalf("terminate idle = %d %q", resp.StatusCode, body)
	}

	sup.running = true
	_, body = do(t, http.MethodPost, srv.URL+"/job/busy/terminate", "")
	if body != "Terminated job" {
		t.Fatalf("terminate busy = %q", body)
	}
	if len(sup.terminated) != 2 || sup.terminated[1] != "busy" {
		t.Fatalf("terminated = %v", sup.terminated)
	}
}

func TestRouteErrorMapping(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, _ := get(t, srv.URL+"/no/such/route")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown route = %d, want 400", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodPost, srv.URL+"/job/any/status", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method = %d, want 405", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	resp, body := get(t, srv.URL+"/health")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Fatalf("health = %d %q", resp.StatusCode, body)
	}
}
