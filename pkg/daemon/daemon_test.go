package daemon

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modoterra/logkeep/pkg/config"
	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/registry"
	"github.com/modoterra/logkeep/pkg/transport/uds"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.calls = append(r.calls, s)
	r.mu.Unlock()
}

func (r *recorder) Debug(msg string)       { r.add("debug:" + msg) }
func (r *recorder) Info(msg string)        { r.add("info:" + msg) }
func (r *recorder) Warn(msg string)        { r.add("warn:" + msg) }
func (r *recorder) Error(msg string)       { r.add("error:" + msg) }
func (r *recorder) Critical(msg string)    { r.add("critical:" + msg) }
func (r *recorder) Alert(msg string)       { r.add("alert:" + msg) }
func (r *recorder) SystemError(msg string) { r.add("system:" + msg) }

func numbered(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString("line ")
		b.WriteString(string(rune('0' + i%10)))
		b.WriteString("\n")
	}
	return b.String()
}

func logPaths(t *testing.T, entries ...registry.Entry) string {
	t.Helper()
	data, err := json.Marshal(registry.New(entries...))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func testConfig(t *testing.T, entries ...registry.Entry) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Socket = filepath.Join(t.TempDir(), "d.sock")
	cfg.LogPaths = logPaths(t, entries...)
	return cfg
}

// startDaemon runs d on its socket and returns a connected client.
func startDaemon(t *testing.T, d *Daemon) *uds.Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(func() {
		cancel()
		d.Shutdown()
	})

	sock := d.Config().Socket
	var client *uds.Client
	var err error
	for i := 0; i < 50; i++ {
		if client, err = uds.Dial(sock); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func call(t *testing.T, c *uds.Client, method string, req, out any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Call(ctx, method, req, out); err != nil {
		t.Fatalf("%s: %v", method, err)
	}
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListLogsInConfigOrder(t *testing.T) {
	dir := t.TempDir()
	app := writeLog(t, dir, "app.log", "hello\n")
	d := New(testConfig(t,
		registry.Entry{Name: "worker", Path: filepath.Join(dir, "worker.log")},
		registry.Entry{Name: "app", Path: app},
	), Options{}, quiet)
	c := startDaemon(t, d)

	var resp uds.ListLogsResponse
	call(t, c, uds.MethodListLogs, nil, &resp)

	if len(resp.Logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(resp.Logs))
	}
	if resp.Logs[0].Name != "worker" || resp.Logs[0].Exists {
		t.Errorf("unexpected first log: %+v", resp.Logs[0])
	}
	if resp.Logs[1].Name != "app" || !resp.Logs[1].Exists || resp.Logs[1].SizeBytes != 6 {
		t.Errorf("unexpected second log: %+v", resp.Logs[1])
	}
}

func TestTrimLog(t *testing.T) {
	dir := t.TempDir()
	app := writeLog(t, dir, "app.log", numbered(40))
	d := New(testConfig(t, registry.Entry{Name: "app", Path: app}), Options{}, quiet)
	c := startDaemon(t, d)

	var out core.Outcome
	call(t, c, uds.MethodTrimLog, uds.LogRequest{Name: "app"}, &out)

	if !out.OK {
		t.Fatalf("expected success, got %+v", out)
	}
	if want := "Trimmed: app (" + app + ")"; out.Summary != want {
		t.Errorf("summary: got %q, want %q", out.Summary, want)
	}
	data, _ := os.ReadFile(app)
	if got := strings.Count(string(data), "\n"); got != 25 {
		t.Errorf("expected 25 lines, got %d", got)
	}
}

func TestTrimUnknownLog(t *testing.T) {
	d := New(testConfig(t), Options{}, quiet)
	c := startDaemon(t, d)

	var out core.Outcome
	call(t, c, uds.MethodTrimLog, uds.LogRequest{Name: "nope"}, &out)
	if out.OK || !strings.Contains(out.Error, "log file not found") {
		t.Errorf("expected not-found outcome, got %+v", out)
	}
}

func TestClearAllLogs(t *testing.T) {
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", numbered(5))
	missing := filepath.Join(dir, "b.log")
	d := New(testConfig(t,
		registry.Entry{Name: "a", Path: a},
		registry.Entry{Name: "b", Path: missing},
	), Options{}, quiet)
	c := startDaemon(t, d)

	var rep core.Report
	call(t, c, uds.MethodClearAllLogs, nil, &rep)

	if rep.RunID == "" || rep.Action != core.ActionClear {
		t.Errorf("unexpected report header: %+v", rep)
	}
	if len(rep.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(rep.Outcomes))
	}
	if !rep.Outcomes[0].OK || rep.Outcomes[1].OK {
		t.Errorf("expected a ok and b failed: %+v", rep.Outcomes)
	}
	if info, _ := os.Stat(a); info.Size() != 0 {
		t.Errorf("expected a.log empty, got %d bytes", info.Size())
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("clear must not create a missing log")
	}
}

func TestViewLog(t *testing.T) {
	dir := t.TempDir()
	app := writeLog(t, dir, "app.log", "<b>hi</b>\n")
	missing := filepath.Join(dir, "gone.log")
	d := New(testConfig(t,
		registry.Entry{Name: "app", Path: app},
		registry.Entry{Name: "gone", Path: missing},
	), Options{}, quiet)
	c := startDaemon(t, d)

	var v core.LogView
	call(t, c, uds.MethodViewLog, uds.LogRequest{Name: "app"}, &v)
	if !v.Found || v.Content != "<b>hi</b>\n" {
		t.Errorf("unexpected view: %+v", v)
	}

	call(t, c, uds.MethodViewLog, uds.LogRequest{Name: "gone"}, &v)
	if v.Found || v.Message != "Log file not found: "+missing {
		t.Errorf("unexpected missing view: %+v", v)
	}
}

func TestViewLogRequiresName(t *testing.T) {
	d := New(testConfig(t), Options{}, quiet)
	c := startDaemon(t, d)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.Call(ctx, uds.MethodViewLog, uds.LogRequest{}, nil)
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Errorf("expected name error, got %v", err)
	}
}

func TestTestLog(t *testing.T) {
	rec := &recorder{}
	d := New(testConfig(t), Options{Host: rec, System: rec}, quiet)
	c := startDaemon(t, d)

	var resp uds.TestLogResponse
	call(t, c, uds.MethodTestLog, uds.LogRequest{Name: "hostLogFile"}, &resp)
	call(t, c, uds.MethodTestLog, uds.LogRequest{Name: "systemErrorLogFile"}, &resp)

	if !resp.OK {
		t.Error("expected ok")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 7 {
		t.Fatalf("expected 7 diagnostic calls, got %v", rec.calls)
	}
	if rec.calls[6] != "system:TEST system error message" {
		t.Errorf("unexpected system call: %s", rec.calls[6])
	}
}

func TestReloadConfig(t *testing.T) {
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", "x\n")
	b := writeLog(t, dir, "b.log", "y\n")
	cfg := testConfig(t, registry.Entry{Name: "a", Path: a})
	path := filepath.Join(dir, "logkeep.yaml")
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	d := New(cfg, Options{ConfigPath: path}, quiet)
	c := startDaemon(t, d)

	cfg2 := *cfg
	cfg2.LogPaths = logPaths(t, registry.Entry{Name: "a", Path: a}, registry.Entry{Name: "b", Path: b})
	cfg2.Trim.MaxLines = 0
	if err := config.Save(&cfg2, path); err != nil {
		t.Fatal(err)
	}

	var resp uds.ReloadConfigResponse
	call(t, c, uds.MethodReloadConfig, nil, &resp)

	if !resp.OK || resp.Logs != 2 {
		t.Errorf("unexpected reload response: %+v", resp)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "MaxLines") {
		t.Errorf("expected max_lines warning, got %v", resp.Warnings)
	}
	if names := d.Service().Registry().Names(); len(names) != 2 || names[1] != "b" {
		t.Errorf("registry not swapped: %v", names)
	}
}

func TestReloadRebuildsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	path := filepath.Join(dir, "logkeep.yaml")
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	d := New(cfg, Options{ConfigPath: path, Diagnostics: quiet}, quiet)
	c := startDaemon(t, d)

	hostFile := filepath.Join(dir, "host.log")
	cfg2 := *cfg
	cfg2.Diagnostics.HostLogFile = hostFile
	if err := config.Save(&cfg2, path); err != nil {
		t.Fatal(err)
	}

	var reload uds.ReloadConfigResponse
	call(t, c, uds.MethodReloadConfig, nil, &reload)
	var resp uds.TestLogResponse
	call(t, c, uds.MethodTestLog, uds.LogRequest{Name: cfg.Diagnostics.HostLog}, &resp)

	data, err := os.ReadFile(hostFile)
	if err != nil {
		t.Fatalf("host log not written after reload: %v", err)
	}
	if n := strings.Count(string(data), "TEST "); n != 6 {
		t.Errorf("expected 6 test messages in %s, got %d:\n%s", hostFile, n, data)
	}
}

func TestLogsSubscribeForwardsLines(t *testing.T) {
	dir := t.TempDir()
	app := writeLog(t, dir, "app.log", "old\n")
	d := New(testConfig(t, registry.Entry{Name: "app", Path: app}), Options{}, quiet)
	d.tail.SetPollInterval(10 * time.Millisecond)
	c := startDaemon(t, d)

	lines := make(chan core.LogLine, 10)
	c.OnEvent(func(msg uds.Message) {
		if msg.Method != uds.EventLogsLine {
			return
		}
		var l core.LogLine
		if err := msg.UnmarshalData(&l); err == nil {
			lines <- l
		}
	})

	call(t, c, uds.MethodLogsSubscribe, uds.LogRequest{Name: "app"}, nil)

	f, err := os.OpenFile(app, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("fresh entry\n")
	f.Close()

	select {
	case l := <-lines:
		if l.Name != "app" || l.Line != "fresh entry" {
			t.Errorf("unexpected line: %+v", l)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for logs.line")
	}

	call(t, c, uds.MethodLogsUnsubscribe, uds.LogRequest{Name: "app"}, nil)
}

func TestLogsSubscribeUnknownName(t *testing.T) {
	d := New(testConfig(t), Options{}, quiet)
	c := startDaemon(t, d)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Call(ctx, uds.MethodLogsSubscribe, uds.LogRequest{Name: "nope"}, nil); err == nil {
		t.Error("expected error for unknown log")
	}
}

func TestRefreshDelta(t *testing.T) {
	dir := t.TempDir()
	app := writeLog(t, dir, "app.log", "a\n")
	d := New(testConfig(t, registry.Entry{Name: "app", Path: app}), Options{}, quiet)

	if delta := d.refresh(); len(delta.Added) != 1 {
		t.Fatalf("first refresh: expected 1 added, got %+v", delta)
	}
	if delta := d.refresh(); delta.HasChanges() {
		t.Errorf("second refresh: expected no changes, got %+v", delta)
	}

	if err := os.WriteFile(app, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if delta := d.refresh(); len(delta.Updated) != 1 || delta.Updated[0].SizeBytes != 4 {
		t.Errorf("expected size update, got %+v", delta)
	}
}
