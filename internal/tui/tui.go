// Package tui is an interactive window inspector that talks to the daemon
// over IPC.
package tui

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/shell"
)

const refreshInterval = time.Second

// Daemon is the IPC surface the inspector needs. *ipc.Client satisfies it.
type Daemon interface {
	GetStatus() (*shell.Status, error)
	Invoke(name string, args command.Args) (json.RawMessage, error)
}

// Run starts the inspector on the terminal and blocks until the user quits.
func Run(daemon Daemon) error {
	_, err := tea.NewProgram(newModel(daemon), tea.WithAltScreen()).Run()
	return err
}

type statusMsg struct {
	status *shell.Status
	err    error
}

type invokedMsg struct {
	name string
	err  error
}

type tickMsg time.Time

type model struct {
	daemon Daemon
	list   list.Model
	form   *actionForm

	status    *shell.Status
	connected bool
	lastErr   error
	notice    string

	width  int
	height int
}

func newModel(daemon Daemon) model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("15")).
		BorderForeground(lipgloss.Color("62"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("250")).
		BorderForeground(lipgloss.Color("62"))

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Windows"
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return model{daemon: daemon, list: l}
}

func (m model) refresh() tea.Cmd {
	return func() tea.Msg {
		st, err := m.daemon.GetStatus()
		return statusMsg{status: st, err: err}
	}
}

func (m model) invoke(name string, args command.Args) tea.Cmd {
	return func() tea.Msg {
		_, err := m.daemon.Invoke(name, args)
		return invokedMsg{name: name, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		switch msg.(type) {
		case tickMsg, statusMsg, invokedMsg:
		default:
			return m.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, m.contentHeight())
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case statusMsg:
		if msg.err != nil {
			m.connected = false
			m.lastErr = msg.err
			m.list.SetItems(nil)
			return m, nil
		}
		m.connected = true
		m.lastErr = nil
		m.status = msg.status
		m.list.SetItems(buildItems(msg.status.Windows, msg.status.Kinds))
		return m, nil

	case invokedMsg:
		if msg.err != nil {
			m.notice = msg.name + ": " + msg.err.Error()
		} else {
			m.notice = msg.name + ": ok"
		}
		return m, m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		case "enter":
			if item, ok := m.list.SelectedItem().(windowItem); ok {
				if name, args, ok := item.activate(); ok {
					return m, m.invoke(name, args)
				}
			}
			return m, nil
		case "x":
			if item, ok := m.list.SelectedItem().(windowItem); ok {
				if name, args, ok := item.dismiss(); ok {
					return m, m.invoke(name, args)
				}
			}
			return m, nil
		case "o":
			if m.status == nil || len(m.status.Kinds) == 0 {
				m.notice = "no auxiliary kinds configured"
				return m, nil
			}
			var selected string
			if item, ok := m.list.SelectedItem().(windowItem); ok {
				selected = item.info.Kind
			}
			m.form = newOpenForm(m.status.Kinds, selected, m.width)
			return m, m.form.form.Init()
		case "p":
			m.form = newPopupForm(m.width)
			return m, m.form.form.Init()
		case "Q":
			return m, m.invoke(command.ForceQuit, command.Args{})
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			m.form = nil
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, m.contentHeight())
	}

	form, cmd := m.form.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form.form = f
	}

	switch m.form.form.State {
	case huh.StateCompleted:
		done := m.form
		m.form = nil
		return m, m.invoke(done.name, done.args())
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}
	return m, cmd
}

func (m model) contentHeight() int {
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	body := m.list.View()
	if m.form != nil {
		body = m.form.form.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		renderStatusBar(m.connected, m.status, m.width),
		body,
		renderHelpBar(m.notice, m.form != nil, m.width),
	)
}
