package model

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/transport/uds"
)

const (
	requestTimeout = 2 * time.Second
	actionTimeout  = 30 * time.Second
	noticeTTL      = 4 * time.Second
)

// tickMsg triggers periodic refresh.
type tickMsg time.Time

// connectedMsg indicates successful daemon connection.
type connectedMsg struct {
	client *uds.Client
	events chan uds.Message
}

// logsMsg carries the configured logs from the daemon.
type logsMsg struct{ logs []core.LogFile }

// viewMsg carries a log's contents.
type viewMsg struct{ view core.LogView }

// eventMsg carries a server-pushed event.
type eventMsg uds.Message

// errorMsg carries an error to display.
type errorMsg struct{ err error }

// noticeMsg carries the result of an action for the status bar.
type noticeMsg struct {
	text    string
	refresh bool
}

// clearNoticeMsg expires the notice with the given sequence number.
type clearNoticeMsg struct{ seq int }

// followMsg confirms a follow toggle.
type followMsg struct {
	name string
	on   bool
}

func connectCmd(socketPath string) tea.Cmd {
	return func() tea.Msg {
		client, err := uds.Dial(socketPath)
		if err != nil {
			return errorMsg{err}
		}
		events := make(chan uds.Message, 256)
		client.OnEvent(func(m uds.Message) {
			select {
			case events <- m:
			default:
			}
		})
		return connectedMsg{client: client, events: events}
	}
}

func waitForEvent(events <-chan uds.Message) tea.Cmd {
	return func() tea.Msg {
		m, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(m)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clearNoticeCmd(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func fetchLogsCmd(client *uds.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var resp uds.ListLogsResponse
		if err := client.Call(ctx, uds.MethodListLogs, nil, &resp); err != nil {
			return errorMsg{err}
		}
		return logsMsg{resp.Logs}
	}
}

func viewLogCmd(client *uds.Client, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var v core.LogView
		if err := client.Call(ctx, uds.MethodViewLog, uds.LogRequest{Name: name}, &v); err != nil {
			return errorMsg{err}
		}
		return viewMsg{v}
	}
}

// outcomeCmd runs a single-log trim or clear.
func outcomeCmd(client *uds.Client, method, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		var o core.Outcome
		if err := client.Call(ctx, method, uds.LogRequest{Name: name}, &o); err != nil {
			return errorMsg{err}
		}
		return noticeMsg{text: o.Summary, refresh: true}
	}
}

// reportCmd runs a bulk trim or clear.
func reportCmd(client *uds.Client, method string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		var rep core.Report
		if err := client.Call(ctx, method, nil, &rep); err != nil {
			return errorMsg{err}
		}
		return noticeMsg{text: reportSummary(rep), refresh: true}
	}
}

func testLogCmd(client *uds.Client, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := client.Call(ctx, uds.MethodTestLog, uds.LogRequest{Name: name}, nil); err != nil {
			return errorMsg{err}
		}
		return noticeMsg{text: "Test messages sent: " + name, refresh: true}
	}
}

func reloadCmd(client *uds.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var resp uds.ReloadConfigResponse
		if err := client.Call(ctx, uds.MethodReloadConfig, nil, &resp); err != nil {
			return errorMsg{err}
		}
		text := "config reloaded"
		if len(resp.Warnings) > 0 {
			text += " with warnings: " + resp.Warnings[0]
		}
		return noticeMsg{text: text, refresh: true}
	}
}

func followCmd(client *uds.Client, name string, on bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		method := uds.MethodLogsSubscribe
		if !on {
			method = uds.MethodLogsUnsubscribe
		}
		if err := client.Call(ctx, method, uds.LogRequest{Name: name}, nil); err != nil {
			return errorMsg{err}
		}
		return followMsg{name: name, on: on}
	}
}
