package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions
var (
	primaryColor = lipgloss.Color("#3b82f6")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// chromeHeight is the number of lines around the viewport: title, tabs,
// a blank line and the status line.
const chromeHeight = 4

// View renders the model
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("jsxlite preview · "+m.file),
		m.renderTabs(),
		"",
		m.viewport.View(),
		m.renderStatus(),
	)
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.targets))
	for i, t := range m.targets {
		label := t
		if m.failed(t) {
			label += " ✗"
		}
		if i == m.active {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderStatus() string {
	var status string
	switch {
	case m.compiling:
		status = "compiling..."
	case !m.compiledAt.IsZero():
		status = "compiled at " + m.compiledAt.Format("15:04:05")
	}
	keys := DefaultKeyMap
	help := strings.Join([]string{
		keys.Next.Help().Key + " " + keys.Next.Help().Desc,
		keys.Up.Help().Key + " " + keys.Up.Help().Desc,
		keys.Reload.Help().Key + " " + keys.Reload.Help().Desc,
		keys.Quit.Help().Key + " " + keys.Quit.Help().Desc,
	}, " • ")
	if status != "" {
		help = status + " • " + help
	}
	return helpStyle.Render(help)
}

// failed reports whether target has an error to show.
func (m Model) failed(target string) bool {
	if m.err != nil {
		return true
	}
	if m.result == nil {
		return false
	}
	out, ok := m.result.Output(target)
	return ok && out.Err != nil
}

// body is the text shown for the active tab.
func (m Model) body() string {
	if m.err != nil {
		return errorStyle.Render("error") + "\n\n" + m.err.Error()
	}
	if m.result == nil {
		return helpStyle.Render("waiting for source...")
	}
	out, ok := m.result.Output(m.Active())
	switch {
	case !ok:
		return helpStyle.Render(fmt.Sprintf("no output for %s", m.Active()))
	case out.Err != nil:
		return errorStyle.Render(m.Active()+" error") + "\n\n" + out.Err.Error()
	}
	return out.Text
}
