package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/modoterra/logkeep/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	statusPresent = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusMissing = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusLarge   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(lipgloss.Color("205"))

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// largeLogBytes marks logs worth trimming in the list.
const largeLogBytes = 10 * 1024 * 1024

// View renders the TUI.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}

	listW, mainH, followH, contentW := a.layout()

	list := a.renderList(listW, mainH)
	listPane := a.paneBox(PaneList, " Logs ", list, listW, mainH)

	contentPane := a.paneBox(PaneContent, a.contentTitle(), a.content.View(), contentW, mainH)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, listPane, contentPane)

	follow := a.renderFollow(a.width-4, followH)
	followPane := a.paneBox(PaneFollow, a.followTitle(), follow, a.width-4, followH)

	statusBar := a.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, topRow, followPane, statusBar)
}

// layout returns the list width, main row height, follow pane height and
// content width for the current window.
func (a App) layout() (listW, mainH, followH, contentW int) {
	statusBarH := 2
	followH = max(a.height/4, 5)
	mainH = max(a.height-followH-statusBarH-2, 3)
	listW = a.width*2/5 - 2
	contentW = a.width - listW - 4
	return listW, mainH, followH, contentW
}

func (a App) paneBox(pane Pane, title, content string, w, h int) string {
	style := paneStyle
	if a.activePane == pane {
		style = activePaneStyle
	}
	return style.Width(w).Height(h).Render(
		titleStyle.Render(title) + "\n" + content,
	)
}

func (a App) renderList(w, h int) string {
	logs := a.filteredLogs()
	if len(logs) == 0 {
		if !a.connected {
			return dimStyle.Render("not connected")
		}
		return dimStyle.Render("no logs")
	}

	var b strings.Builder
	maxVisible := h - 2
	start := 0
	if a.selectedIdx >= maxVisible {
		start = a.selectedIdx - maxVisible + 1
	}

	sizeW := 9
	nameW := max(w-sizeW-6, 4)
	for i := start; i < len(logs) && i-start < maxVisible; i++ {
		lf := logs[i]
		name := truncate(lf.Name, nameW)
		if a.following[lf.Name] {
			name = truncate(lf.Name, nameW-2) + " ~"
		}
		size := "-"
		if lf.Exists {
			size = formatBytes(lf.SizeBytes)
		}
		line := fmt.Sprintf(" %s %-*s %*s", statusIndicator(lf), nameW, name, sizeW, size)

		if i == a.selectedIdx {
			line = selectedStyle.Width(w).Render(line)
		}
		b.WriteString(line + "\n")
	}

	if a.mode == ModeSearch {
		b.WriteString("\n" + a.search.View())
	}

	return b.String()
}

func (a App) contentTitle() string {
	if a.viewing == "" {
		return " Content "
	}
	title := " " + a.viewing + " "
	if lf := a.logByName(a.viewing); lf != nil {
		title += dimStyle.Render(lf.Path) + " "
	}
	return title
}

func (a App) renderFollow(w, h int) string {
	if len(a.followLines) == 0 {
		if len(a.following) == 0 {
			return dimStyle.Render("press f to follow the selected log")
		}
		return dimStyle.Render("waiting for new lines...")
	}

	start := 0
	if len(a.followLines) > h-1 {
		start = len(a.followLines) - h + 1
	}

	var b strings.Builder
	for i := start; i < len(a.followLines); i++ {
		l := a.followLines[i]
		ts := time.UnixMilli(l.TsUnixMs).Format("15:04:05")
		prefix := dimStyle.Render(ts+" "+l.Name) + " "
		b.WriteString(prefix + truncate(l.Line, max(w-len(ts)-len(l.Name)-2, 8)) + "\n")
	}
	return b.String()
}

func (a App) followTitle() string {
	if len(a.following) == 0 {
		return " Follow "
	}
	return fmt.Sprintf(" Follow (%d) ", len(a.following))
}

func (a App) renderStatusBar() string {
	left := a.statusMsg
	right := "j/k:nav tab:pane /:search enter:view t:trim c:clear T:trim all C:clear all x:test f:follow r:reload q:quit"
	switch a.mode {
	case ModeSearch:
		right = "enter:apply esc:cancel"
	case ModeConfirm:
		right = "y:confirm any other key:cancel"
	}

	gap := a.width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return helpStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (a App) logByName(name string) *core.LogFile {
	for i := range a.logs {
		if a.logs[i].Name == name {
			return &a.logs[i]
		}
	}
	return nil
}

func statusIndicator(lf core.LogFile) string {
	switch {
	case lf.Error != "":
		return statusFailed.Render("✖")
	case !lf.Exists:
		return statusMissing.Render("○")
	case lf.SizeBytes >= largeLogBytes:
		return statusLarge.Render("▲")
	default:
		return statusPresent.Render("●")
	}
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
