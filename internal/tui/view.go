package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if !m.ready {
		return ""
	}

	header := titleStyle.Render(" mViewer console ") + dimStyle.Render(m.server)
	body := boxStyle.Width(m.width - 2).Render(m.pane.View())

	var prompt string
	if m.commandMode {
		prompt = m.input.View()
	}

	state := "connected"
	if !m.connected {
		state = "offline"
	}
	status := dimStyle.Render(" " + state + " | " + m.status + " ")
	footer := lipgloss.JoinVertical(lipgloss.Left, prompt, lipgloss.JoinHorizontal(lipgloss.Bottom, status, m.renderHelp()))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(m.width).Render(ui)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"↑↓←→ pan",
		"y/u/b/n diagonal",
		"+/- zoom",
		"0 reset",
		"c center",
		"r redraw",
		"h header",
		": command",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
