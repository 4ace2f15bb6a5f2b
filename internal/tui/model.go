// Package tui is a terminal console for a running viewer server. Keys map to
// wire commands and replies scroll in a log pane.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// keyCommands maps single keys to wire commands
var keyCommands = map[string]string{
	"up":    "panUp",
	"down":  "panDown",
	"left":  "panLeft",
	"right": "panRight",
	"y":     "panUpLeft",
	"u":     "panUpRight",
	"b":     "panDownLeft",
	"n":     "panDownRight",
	"+":     "zoomIn",
	"=":     "zoomIn",
	"-":     "zoomOut",
	"0":     "zoomReset",
	"c":     "center",
	"r":     "update",
	"h":     "header",
}

type replyMsg string

type disconnectedMsg struct{ err error }

type Model struct {
	width  int
	height int

	conn      Conn
	connected bool
	server    string

	log   []string
	pane  viewport.Model
	ready bool

	commandMode bool
	input       textinput.Model

	status      string
	lastImage   string
	helpVisible bool
}

func New(conn Conn, server string) Model {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "wire command, e.g. zoom 100 400 100 400"
	ti.CharLimit = 0

	return Model{
		conn:        conn,
		connected:   true,
		server:      server,
		pane:        viewport.New(80, 20),
		input:       ti,
		status:      "connecting",
		helpVisible: true,
	}
}

func (m Model) Init() tea.Cmd { return m.listen() }

func (m Model) listen() tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		msg, err := conn.Receive()
		if err != nil {
			return disconnectedMsg{err: err}
		}
		return replyMsg(msg)
	}
}

// Run dials the server and blocks until the console exits
func Run(ctx context.Context, url string) error {
	client, err := Dial(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	p := tea.NewProgram(New(client, url), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
