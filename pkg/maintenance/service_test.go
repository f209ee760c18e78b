package maintenance

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/registry"
	"github.com/modoterra/logkeep/pkg/trimmer"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func lines(n int) string {
	var s string
	for i := 1; i <= n; i++ {
		s += "line " + string(rune('a'+i%26)) + "\n"
	}
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	ls, err := trimmer.ReadLines(path)
	require.NoError(t, err)
	return len(ls)
}

func TestTrimAllContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "a.log", lines(40))
	missing := filepath.Join(dir, "b.log")

	svc := New(registry.New(
		registry.Entry{Name: "A", Path: missing},
		registry.Entry{Name: "B", Path: valid},
	), Options{Logger: quiet})

	rep := svc.TrimAll()
	require.Len(t, rep.Results, 2)
	_, err := uuid.Parse(rep.RunID)
	assert.NoError(t, err)

	assert.False(t, rep.Results[0].OK())
	assert.True(t, errors.Is(rep.Results[0].Err, trimmer.ErrNotFound))
	assert.True(t, rep.Results[1].OK())
	assert.Equal(t, DefaultMaxLines, countLines(t, valid))

	failed := rep.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "A", failed[0].Name)
}

func TestClearAll(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.log", lines(5))
	b := writeFile(t, dir, "b.log", lines(3))

	svc := New(registry.New(
		registry.Entry{Name: "a", Path: a},
		registry.Entry{Name: "b", Path: b},
	), Options{Logger: quiet})

	rep := svc.ClearAll()
	assert.Empty(t, rep.Failed())
	assert.Equal(t, core.ActionClear, rep.Action)
	for _, p := range []string{a, b} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Empty(t, data)
	}
}

func TestTrimUsesConfiguredMaxLines(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "app.log", lines(10))
	svc := New(registry.New(registry.Entry{Name: "app", Path: p}), Options{MaxLines: 4, Logger: quiet})

	res := svc.Trim("app")
	require.NoError(t, res.Err)
	assert.Equal(t, 4, countLines(t, p))
	assert.Equal(t, "Trimmed: app ("+p+")", res.Summary())
}

func TestClearSummary(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "app.log", lines(10))
	svc := New(registry.New(registry.Entry{Name: "app", Path: p}), Options{Logger: quiet})

	res := svc.Clear("app")
	require.True(t, res.OK())
	assert.Equal(t, "Cleared: app ("+p+")", res.Summary())
}

func TestFailureSummary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.log")
	svc := New(registry.New(registry.Entry{Name: "gone", Path: missing}), Options{Logger: quiet})

	res := svc.Clear("gone")
	require.Error(t, res.Err)
	assert.Equal(t, "Not cleared: gone ("+missing+") => log file does not exist: "+missing, res.Summary())

	o := res.Outcome()
	assert.False(t, o.OK)
	assert.Equal(t, res.Err.Error(), o.Error)
}

func TestUnknownName(t *testing.T) {
	svc := New(registry.Load("{}"), Options{Logger: quiet})

	res := svc.Trim("nope")
	assert.True(t, errors.Is(res.Err, registry.ErrNotFound))

	_, err := svc.View("nope")
	assert.True(t, errors.Is(err, registry.ErrNotFound))
}

func TestUnknownNameIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	svc := New(registry.Load("{}"), Options{Logger: logger})

	svc.Clear("nope")
	out := buf.String()
	assert.Contains(t, out, "log maintenance failed")
	assert.Contains(t, out, "name=nope")
	assert.Contains(t, out, "action=clear")
}

func TestEmptyPathIsSkipped(t *testing.T) {
	svc := New(registry.Load(`{"blank": ""}`), Options{Logger: quiet})

	rep := svc.TrimAll()
	require.Len(t, rep.Results, 1)
	assert.True(t, rep.Results[0].Skipped)
	assert.False(t, rep.Results[0].OK())
	assert.Empty(t, rep.Failed())
	assert.Equal(t, "Skipped: blank (no path configured)", rep.Results[0].Summary())
}

func TestView(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "app.log", "<b>hi</b>\n")
	missing := filepath.Join(dir, "missing.log")
	svc := New(registry.New(
		registry.Entry{Name: "app", Path: p},
		registry.Entry{Name: "missing", Path: missing},
	), Options{Logger: quiet})

	v, err := svc.View("app")
	require.NoError(t, err)
	assert.True(t, v.Found)
	assert.Equal(t, "<b>hi</b>\n", v.Content)
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;\n", Escape(v.Content))

	v, err = svc.View("missing")
	require.NoError(t, err)
	assert.False(t, v.Found)
	assert.Equal(t, "Log file not found: "+missing, v.Message)
}

func TestStatus(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "app.log", "abc\n")
	svc := New(registry.New(
		registry.Entry{Name: "app", Path: p},
		registry.Entry{Name: "none", Path: filepath.Join(dir, "none.log")},
	), Options{Logger: quiet})

	st := svc.Status()
	require.Len(t, st, 2)
	assert.True(t, st[0].Exists)
	assert.Equal(t, int64(4), st[0].SizeBytes)
	assert.False(t, st[1].Exists)
	assert.Empty(t, st[1].Error)
}

func TestReportOutcome(t *testing.T) {
	rep := Report{RunID: "r1", Action: core.ActionTrim, Results: []Result{
		{Action: core.ActionTrim, Name: "a", Path: "/a"},
		{Action: core.ActionTrim, Name: "b", Path: "/b", Err: errors.New("boom")},
	}}
	out := rep.Outcome()
	require.Len(t, out.Outcomes, 2)
	assert.True(t, out.Outcomes[0].OK)
	assert.Equal(t, "Not trimmed: b (/b) => boom", out.Outcomes[1].Summary)
	assert.Len(t, out.Failed(), 1)
}
