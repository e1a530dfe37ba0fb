package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/queuelip/internal/command"
)

// actionForm collects arguments for a command that needs more than the
// selected list item. It is held by pointer because huh binds to its fields.
type actionForm struct {
	name string
	form *huh.Form

	fKind    string
	fContext string
	fLabel   string
	fTitle   string
	fURL     string
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func formWidth(width int) int {
	w := width - 4
	if w < 40 {
		w = 40
	}
	return w
}

func newOpenForm(kinds []string, selected string, width int) *actionForm {
	f := &actionForm{name: command.OpenAuxiliary, fKind: selected}
	if f.fKind == "" && len(kinds) > 0 {
		f.fKind = kinds[0]
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("kind").
				Title("Kind").
				Description("Auxiliary window to open").
				Options(huh.NewOptions(kinds...)...).
				Value(&f.fKind),

			huh.NewInput().
				Key("context").
				Title("Context").
				Description("Delivered to the window as <kind>-context").
				Value(&f.fContext),
		),
	).WithWidth(formWidth(width)).WithShowHelp(true).WithShowErrors(true)
	return f
}

func newPopupForm(width int) *actionForm {
	f := &actionForm{name: command.CreatePopup}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("label").
				Title("Label").
				Description("Unique window label").
				Validate(required("label")).
				Value(&f.fLabel),

			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&f.fTitle),

			huh.NewInput().
				Key("url").
				Title("URL").
				Description("Page loaded into the popup").
				Validate(required("url")).
				Value(&f.fURL),
		),
	).WithWidth(formWidth(width)).WithShowHelp(true).WithShowErrors(true)
	return f
}

func (f *actionForm) args() command.Args {
	switch f.name {
	case command.OpenAuxiliary:
		return command.Args{Kind: strings.TrimSpace(f.fKind), Context: f.fContext}
	case command.CreatePopup:
		return command.Args{
			Label: strings.TrimSpace(f.fLabel),
			Title: strings.TrimSpace(f.fTitle),
			URL:   strings.TrimSpace(f.fURL),
		}
	}
	return command.Args{}
}
