package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pane.Width = msg.Width - 4
		m.pane.Height = max(3, msg.Height-6)
		m.input.Width = msg.Width - 6
		m.ready = true
		m.refreshPane()
	case replyMsg:
		m.receive(string(msg))
		return m, m.listen()
	case disconnectedMsg:
		m.connected = false
		m.status = "disconnected: " + msg.err.Error()
	case tea.KeyMsg:
		if m.commandMode {
			switch msg.String() {
			case "esc":
				m.commandMode = false
				m.input.Blur()
				m.status = "command cancelled"
				return m, nil
			case "enter":
				line := strings.TrimSpace(m.input.Value())
				m.commandMode = false
				m.input.Blur()
				m.input.SetValue("")
				if line == "" {
					m.status = "command: empty"
					return m, nil
				}
				m.send(line)
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch key := msg.String(); key {
		case "ctrl+c", "q":
			return m, tea.Quit
		case ":":
			m.commandMode = true
			m.status = "command mode"
			return m, m.input.Focus()
		case "?":
			m.helpVisible = !m.helpVisible
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.pane, cmd = m.pane.Update(msg)
			return m, cmd
		default:
			if line, ok := keyCommands[key]; ok {
				m.send(line)
			}
		}
	}
	return m, nil
}

func (m *Model) send(line string) {
	if !m.connected {
		m.status = "not connected"
		return
	}
	if err := m.conn.Send(line); err != nil {
		m.status = "send failed: " + err.Error()
		return
	}
	m.appendLog(sentStyle.Render("> " + line))
	m.status = "sent " + line
}

// receive logs a reply and updates the status line for the known reply kinds
func (m *Model) receive(reply string) {
	switch {
	case strings.HasPrefix(reply, "ERROR:"):
		m.appendLog(errorStyle.Render(reply))
		m.status = "error"
	case strings.HasPrefix(reply, "WARNING:"):
		m.appendLog(warningStyle.Render(reply))
		m.status = "warning"
	case strings.HasPrefix(reply, "image "):
		m.lastImage = strings.TrimPrefix(reply, "image ")
		m.appendLog(reply)
		m.status = "rendered " + m.lastImage
	default:
		m.appendLog(reply)
		m.status = reply
	}
}

func (m *Model) appendLog(line string) {
	m.log = append(m.log, line)
	m.refreshPane()
}

func (m *Model) refreshPane() {
	m.pane.SetContent(strings.Join(m.log, "\n"))
	m.pane.GotoBottom()
}
