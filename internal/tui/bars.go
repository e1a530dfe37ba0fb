package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/queuelip/internal/exitctl"
	"github.com/1broseidon/queuelip/internal/shell"
)

func renderStatusBar(connected bool, st *shell.Status, width int) string {
	var status string
	if connected && st != nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		if st.State != exitctl.Running.String() {
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")
		}
		parts := []string{dot + " " + st.State, "up " + st.Uptime}
		if len(st.Kinds) > 0 {
			parts = append(parts, "kinds: "+strings.Join(st.Kinds, ","))
		}
		status = strings.Join(parts, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

func renderHelpBar(notice string, editing bool, width int) string {
	help := "enter: show/open  x: hide/close  o: open kind  p: popup  r: refresh  Q: quit app  q: exit"
	if editing {
		help = "esc: cancel"
	}
	if notice != "" {
		help = notice + "  |  " + help
	}
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}
