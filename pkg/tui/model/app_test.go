package model

import (
	"encoding/json"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/transport/uds"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, a App, msgs ...tea.Msg) App {
	t.Helper()
	for _, msg := range msgs {
		m, _ := a.Update(msg)
		a = m.(App)
	}
	return a
}

func withLogs() App {
	a := New("/tmp/none.sock")
	a.logs = []core.LogFile{
		{Name: "app", Path: "/srv/app.log", Exists: true, SizeBytes: 2048},
		{Name: "worker", Path: "/srv/worker.log"},
		{Name: "nginx-error", Path: "/var/log/nginx/error.log", Exists: true},
	}
	return a
}

func event(t *testing.T, method string, data any) eventMsg {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return eventMsg(uds.Message{Type: uds.MsgTypeEvt, Method: method, Data: raw})
}

func TestNavigation(t *testing.T) {
	a := update(t, withLogs(), key("j"), key("j"), key("j"))
	if a.selectedIdx != 2 {
		t.Errorf("expected selection clamped at 2, got %d", a.selectedIdx)
	}
	a = update(t, a, key("k"))
	if a.selectedLog().Name != "worker" {
		t.Errorf("expected worker selected, got %s", a.selectedLog().Name)
	}
}

func TestTabCyclesPanes(t *testing.T) {
	a := update(t, withLogs(), key("tab"))
	if a.activePane != PaneContent {
		t.Fatalf("expected content pane, got %d", a.activePane)
	}
	a = update(t, a, key("tab"), key("tab"))
	if a.activePane != PaneList {
		t.Errorf("expected wrap to list pane, got %d", a.activePane)
	}
}

func TestSearchFilters(t *testing.T) {
	a := update(t, withLogs(), key("/"), key("n"), key("g"), key("enter"))
	if a.mode != ModeNormal {
		t.Fatalf("expected normal mode after enter, got %d", a.mode)
	}
	logs := a.filteredLogs()
	if len(logs) != 1 || logs[0].Name != "nginx-error" {
		t.Errorf("unexpected filter result: %+v", logs)
	}

	a = update(t, a, key("/"), key("esc"))
	if len(a.filteredLogs()) != 3 {
		t.Error("esc should clear the search")
	}
}

func TestClearAllNeedsConfirmation(t *testing.T) {
	a := update(t, withLogs(), key("C"))
	if a.mode != ModeConfirm || !strings.Contains(a.statusMsg, "Clear all 3 logs") {
		t.Fatalf("expected confirmation prompt, got mode=%d status=%q", a.mode, a.statusMsg)
	}

	m, cmd := a.Update(key("n"))
	a = m.(App)
	if cmd != nil || a.mode != ModeNormal || a.statusMsg != "cancelled" {
		t.Errorf("expected cancellation, got mode=%d status=%q", a.mode, a.statusMsg)
	}
}

func TestActionsNeedConnection(t *testing.T) {
	a := withLogs()
	for _, k := range []string{"t", "c", "x", "f", "T", "r", "enter"} {
		if _, cmd := a.Update(key(k)); cmd != nil {
			t.Errorf("key %q: expected no command while disconnected", k)
		}
	}
}

func TestFollowLinesEvent(t *testing.T) {
	a := withLogs()
	for i := 0; i < maxFollowLines+10; i++ {
		a = update(t, a, event(t, uds.EventLogsLine, core.LogLine{Name: "app", Line: "hello"}))
	}
	if len(a.followLines) != maxFollowLines {
		t.Errorf("expected follow buffer capped at %d, got %d", maxFollowLines, len(a.followLines))
	}
}

func TestDeltaEvent(t *testing.T) {
	a := update(t, withLogs(), event(t, uds.EventLogsDelta, uds.LogsDelta{
		Added:   []core.LogFile{{Name: "queue", Path: "/srv/queue.log"}},
		Updated: []core.LogFile{{Name: "worker", Path: "/srv/worker.log", Exists: true, SizeBytes: 10}},
		Removed: []string{"nginx-error"},
	}))

	names := make([]string, len(a.logs))
	for i, lf := range a.logs {
		names[i] = lf.Name
	}
	if strings.Join(names, ",") != "app,worker,queue" {
		t.Errorf("unexpected order: %v", names)
	}
	if !a.logs[1].Exists || a.logs[1].SizeBytes != 10 {
		t.Errorf("worker not updated: %+v", a.logs[1])
	}
}

func TestViewMessageShownForMissingFile(t *testing.T) {
	a := update(t, withLogs(),
		tea.WindowSizeMsg{Width: 120, Height: 40},
		viewMsg{core.LogView{Name: "worker", Message: "Log file not found: /srv/worker.log"}},
	)
	if a.viewing != "worker" {
		t.Errorf("expected worker viewed, got %q", a.viewing)
	}
	if !strings.Contains(a.content.View(), "Log file not found") {
		t.Errorf("content missing message: %q", a.content.View())
	}
}

func TestNoticeExpires(t *testing.T) {
	a := update(t, withLogs(), noticeMsg{text: "Trimmed: app (/srv/app.log)"})
	if a.statusMsg != "Trimmed: app (/srv/app.log)" {
		t.Fatalf("unexpected status: %q", a.statusMsg)
	}
	stale := update(t, a, noticeMsg{text: "second"}, clearNoticeMsg{seq: 1})
	if stale.statusMsg != "second" {
		t.Errorf("stale clear must not wipe newer notice, got %q", stale.statusMsg)
	}
	a = update(t, a, clearNoticeMsg{seq: a.noticeSeq})
	if a.statusMsg != "" {
		t.Errorf("expected notice cleared, got %q", a.statusMsg)
	}
}

func TestViewRenders(t *testing.T) {
	a := update(t, withLogs(), tea.WindowSizeMsg{Width: 120, Height: 40})
	out := a.View()
	for _, want := range []string{"Logs", "app", "2.0 KB", "Follow"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestReportSummary(t *testing.T) {
	rep := core.Report{Action: core.ActionTrim, Outcomes: []core.Outcome{
		{Name: "a", OK: true},
		{Name: "b", Summary: "Not trimmed: b (/b.log) => log file does not exist"},
	}}
	got := reportSummary(rep)
	want := "Trimmed 1 of 2 logs; 1 failed: Not trimmed: b (/b.log) => log file does not exist"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
