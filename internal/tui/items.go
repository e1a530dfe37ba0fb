package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/window"
)

// windowItem is a list row: a live window, or a configured auxiliary kind
// that currently has no window.
type windowItem struct {
	info window.Info
	live bool
}

var (
	visibleDot = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	hiddenDot  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("○")
	closedDot  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("·")
)

func (i windowItem) Title() string {
	switch {
	case !i.live:
		return closedDot + " " + i.info.Label
	case i.info.Visibility == window.Visible.String():
		return visibleDot + " " + i.info.Label
	default:
		return hiddenDot + " " + i.info.Label
	}
}

func (i windowItem) Description() string {
	if !i.live {
		return "auxiliary (closed)"
	}
	desc := fmt.Sprintf("%s  %s  gen %d", i.info.Role, i.info.Visibility, i.info.Generation)
	if i.info.Title != "" {
		desc += "  " + i.info.Title
	}
	return desc
}

func (i windowItem) FilterValue() string { return i.info.Label }

// activate returns the command that brings the row's window forward.
func (i windowItem) activate() (string, command.Args, bool) {
	switch {
	case i.info.Role == window.RolePrimary.String():
		return command.ShowPrimary, command.Args{}, true
	case i.info.Role == window.RoleAuxiliary.String() || !i.live:
		return command.OpenAuxiliary, command.Args{Kind: i.info.Kind}, true
	}
	return "", command.Args{}, false
}

// dismiss returns the command that puts the row's window away.
func (i windowItem) dismiss() (string, command.Args, bool) {
	if !i.live {
		return "", command.Args{}, false
	}
	switch i.info.Role {
	case window.RolePrimary.String():
		return command.HidePrimary, command.Args{}, true
	case window.RoleAuxiliary.String():
		return command.CloseAuxiliary, command.Args{Kind: i.info.Kind}, true
	default:
		return command.CloseWindow, command.Args{Label: i.info.Label}, true
	}
}

func buildItems(infos []window.Info, kinds []string) []list.Item {
	live := make(map[string]bool, len(infos))
	items := make([]list.Item, 0, len(infos)+len(kinds))
	for _, info := range infos {
		live[info.Label] = true
		items = append(items, windowItem{info: info, live: true})
	}

	closed := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		if !live[kind] {
			closed = append(closed, kind)
		}
	}
	sort.Strings(closed)
	for _, kind := range closed {
		items = append(items, windowItem{info: window.Info{Label: kind, Role: window.RoleAuxiliary.String(), Kind: kind}})
	}
	return items
}
