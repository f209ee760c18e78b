package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/transport/uds"
)

// Pane identifies which TUI pane is focused.
type Pane int

const (
	PaneList Pane = iota
	PaneContent
	PaneFollow
)

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeConfirm
)

const maxFollowLines = 500

// App is the root Bubble Tea model.
type App struct {
	// Connection
	client     *uds.Client
	events     chan uds.Message
	socketPath string
	connected  bool

	// State
	logs        []core.LogFile
	selectedIdx int
	viewing     string
	following   map[string]bool
	followLines []core.LogLine

	// UI
	activePane Pane
	mode       Mode
	search     textinput.Model
	content    viewport.Model
	width      int
	height     int

	// Pending confirmation
	confirmMethod string
	confirmPrompt string

	// Status bar
	statusMsg string
	noticeSeq int
}

// New creates a new TUI app model.
func New(socketPath string) App {
	si := textinput.New()
	si.Placeholder = "search..."
	si.CharLimit = 64

	return App{
		socketPath: socketPath,
		search:     si,
		content:    viewport.New(0, 0),
		following:  make(map[string]bool),
		activePane: PaneList,
		mode:       ModeNormal,
	}
}

// Init connects to the daemon.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(a.socketPath),
		tea.SetWindowTitle("logkeep"),
	)
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizeContent()
		return a, nil

	case connectedMsg:
		a.client = msg.client
		a.events = msg.events
		a.connected = true
		a.statusMsg = "connected"
		return a, tea.Batch(tickCmd(), fetchLogsCmd(a.client), waitForEvent(a.events))

	case tickMsg:
		if a.client != nil {
			return a, tea.Batch(tickCmd(), fetchLogsCmd(a.client))
		}
		return a, tickCmd()

	case eventMsg:
		var cmds []tea.Cmd
		if a.events != nil {
			cmds = append(cmds, waitForEvent(a.events))
		}
		switch msg.Method {
		case uds.EventLogsLine:
			var line core.LogLine
			if err := uds.Message(msg).UnmarshalData(&line); err == nil {
				a.appendFollow(line)
			}
		case uds.EventLogsDelta:
			var delta uds.LogsDelta
			if err := uds.Message(msg).UnmarshalData(&delta); err == nil {
				a.applyDelta(delta)
			}
		}
		return a, tea.Batch(cmds...)

	case logsMsg:
		a.logs = msg.logs
		if n := len(a.filteredLogs()); a.selectedIdx >= n {
			a.selectedIdx = max(0, n-1)
		}
		return a, nil

	case viewMsg:
		a.viewing = msg.view.Name
		if msg.view.Message != "" {
			a.content.SetContent(msg.view.Message)
		} else {
			a.content.SetContent(msg.view.Content)
		}
		a.content.GotoBottom()
		return a, nil

	case followMsg:
		if msg.on {
			a.following[msg.name] = true
			a.statusMsg = "following " + msg.name
		} else {
			delete(a.following, msg.name)
			a.statusMsg = "stopped following " + msg.name
		}
		return a, nil

	case noticeMsg:
		return a.notify(msg.text, msg.refresh)

	case clearNoticeMsg:
		if msg.seq == a.noticeSeq {
			a.statusMsg = ""
		}
		return a, nil

	case errorMsg:
		a.statusMsg = "error: " + msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

// notify shows a transient status message and optionally refreshes the
// list and the open view.
func (a App) notify(text string, refresh bool) (tea.Model, tea.Cmd) {
	a.noticeSeq++
	a.statusMsg = text
	cmds := []tea.Cmd{clearNoticeCmd(a.noticeSeq)}
	if refresh && a.client != nil {
		cmds = append(cmds, fetchLogsCmd(a.client))
		if a.viewing != "" {
			cmds = append(cmds, viewLogCmd(a.client, a.viewing))
		}
	}
	return a, tea.Batch(cmds...)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Search mode
	if a.mode == ModeSearch {
		switch msg.String() {
		case "esc":
			a.mode = ModeNormal
			a.search.SetValue("")
			a.search.Blur()
			return a, nil
		case "enter":
			a.mode = ModeNormal
			a.search.Blur()
			return a, nil
		default:
			var cmd tea.Cmd
			a.search, cmd = a.search.Update(msg)
			a.selectedIdx = 0
			return a, cmd
		}
	}

	// Confirmation mode
	if a.mode == ModeConfirm {
		method := a.confirmMethod
		a.mode = ModeNormal
		a.confirmMethod = ""
		a.confirmPrompt = ""
		switch msg.String() {
		case "y", "Y":
			if a.client == nil {
				a.statusMsg = "not connected"
				return a, nil
			}
			a.statusMsg = "working..."
			return a, reportCmd(a.client, method)
		default:
			a.statusMsg = "cancelled"
			return a, nil
		}
	}

	// The content pane scrolls with the viewport's own bindings.
	if a.activePane == PaneContent {
		switch msg.String() {
		case "j", "k", "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			a.content, cmd = a.content.Update(msg)
			return a, cmd
		}
	}

	// Normal mode
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "j", "down":
		if n := len(a.filteredLogs()); a.activePane == PaneList && n > 0 {
			a.selectedIdx = min(a.selectedIdx+1, n-1)
		}
	case "k", "up":
		if a.activePane == PaneList && a.selectedIdx > 0 {
			a.selectedIdx--
		}

	case "tab":
		a.activePane = (a.activePane + 1) % 3

	case "/":
		a.mode = ModeSearch
		a.search.Focus()
		return a, textinput.Blink

	case "enter":
		if lf := a.selectedLog(); lf != nil && a.client != nil {
			a.activePane = PaneContent
			return a, viewLogCmd(a.client, lf.Name)
		}

	case "t":
		return a.onSelected(func(name string) tea.Cmd {
			return outcomeCmd(a.client, uds.MethodTrimLog, name)
		})
	case "c":
		return a.onSelected(func(name string) tea.Cmd {
			return outcomeCmd(a.client, uds.MethodClearLog, name)
		})
	case "x":
		return a.onSelected(func(name string) tea.Cmd {
			return testLogCmd(a.client, name)
		})
	case "f":
		return a.onSelected(func(name string) tea.Cmd {
			return followCmd(a.client, name, !a.following[name])
		})

	case "T":
		if a.client != nil {
			a.statusMsg = "trimming all logs..."
			return a, reportCmd(a.client, uds.MethodTrimAllLogs)
		}
	case "C":
		a.mode = ModeConfirm
		a.confirmMethod = uds.MethodClearAllLogs
		a.confirmPrompt = fmt.Sprintf("Clear all %d logs? (y/n)", len(a.logs))
		a.statusMsg = a.confirmPrompt

	case "r":
		if a.client != nil {
			return a, reloadCmd(a.client)
		}
	}

	return a, nil
}

// onSelected runs build for the selected log when connected.
func (a App) onSelected(build func(name string) tea.Cmd) (tea.Model, tea.Cmd) {
	lf := a.selectedLog()
	if a.client == nil || lf == nil {
		return a, nil
	}
	return a, build(lf.Name)
}

func (a *App) appendFollow(line core.LogLine) {
	a.followLines = append(a.followLines, line)
	if len(a.followLines) > maxFollowLines {
		a.followLines = a.followLines[len(a.followLines)-maxFollowLines:]
	}
}

// applyDelta merges a watch-loop delta into the log list, keeping order.
func (a *App) applyDelta(d uds.LogsDelta) {
	removed := make(map[string]bool, len(d.Removed))
	for _, name := range d.Removed {
		removed[name] = true
	}
	updated := make(map[string]core.LogFile, len(d.Updated))
	for _, lf := range d.Updated {
		updated[lf.Name] = lf
	}

	logs := a.logs[:0:0]
	seen := make(map[string]bool, len(a.logs))
	for _, lf := range a.logs {
		if removed[lf.Name] {
			continue
		}
		if u, ok := updated[lf.Name]; ok {
			lf = u
		}
		seen[lf.Name] = true
		logs = append(logs, lf)
	}
	for _, lf := range d.Added {
		if !seen[lf.Name] {
			logs = append(logs, lf)
		}
	}
	a.logs = logs
	if n := len(a.filteredLogs()); a.selectedIdx >= n {
		a.selectedIdx = max(0, n-1)
	}
}

func (a *App) resizeContent() {
	_, mainH, _, contentW := a.layout()
	a.content.Width = max(contentW-2, 1)
	a.content.Height = max(mainH-2, 1)
}

func (a App) filteredLogs() []core.LogFile {
	q := strings.ToLower(a.search.Value())
	if q == "" {
		return a.logs
	}
	var filtered []core.LogFile
	for _, lf := range a.logs {
		if strings.Contains(strings.ToLower(lf.Name), q) ||
			strings.Contains(strings.ToLower(lf.Path), q) {
			filtered = append(filtered, lf)
		}
	}
	return filtered
}

func (a App) selectedLog() *core.LogFile {
	logs := a.filteredLogs()
	if a.selectedIdx < len(logs) {
		return &logs[a.selectedIdx]
	}
	return nil
}

// reportSummary condenses a bulk report into one status line.
func reportSummary(rep core.Report) string {
	failed := rep.Failed()
	done := 0
	for _, o := range rep.Outcomes {
		if o.OK {
			done++
		}
	}
	text := fmt.Sprintf("%s %d of %d logs", rep.Action.Past(), done, len(rep.Outcomes))
	if len(failed) > 0 {
		text += fmt.Sprintf("; %d failed: %s", len(failed), failed[0].Summary)
	}
	return text
}
