package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/queuelip/internal/command"
)

func invoke(opts *cliOptions, name string, args command.Args) error {
	_, err := opts.client().Invoke(name, args)
	return err
}

func simpleCmd(opts *cliOptions, use, short, name string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return invoke(opts, name, command.Args{})
		},
	}
}

func newWindowCmds(opts *cliOptions) []*cobra.Command {
	var payload string
	open := &cobra.Command{
		Use:   "open <kind>",
		Short: "Show an auxiliary window and hide the primary window",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return invoke(opts, command.OpenAuxiliary, command.Args{Kind: args[0], Context: payload})
		},
	}
	open.Flags().StringVar(&payload, "context", "", "context payload delivered as a <kind>-context event")

	closeAux := &cobra.Command{
		Use:   "close <kind>",
		Short: "Close an auxiliary window and restore the primary window",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return invoke(opts, command.CloseAuxiliary, command.Args{Kind: args[0]})
		},
	}

	var title, url string
	popup := &cobra.Command{
		Use:   "popup <label>",
		Short: "Open a transient popup window",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return invoke(opts, command.CreatePopup, command.Args{Label: args[0], Title: title, URL: url})
		},
	}
	popup.Flags().StringVar(&title, "title", "", "window title")
	popup.Flags().StringVar(&url, "url", "", "content URL")
	_ = popup.MarkFlagRequired("url")

	closeWindow := &cobra.Command{
		Use:   "close-window <label>",
		Short: "Destroy the window with the given label",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return invoke(opts, command.CloseWindow, command.Args{Label: args[0]})
		},
	}

	var caller string
	closeCurrent := &cobra.Command{
		Use:   "close-current",
		Short: "Close the window identified by --as, as if it closed itself",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := opts.client().WithCaller(caller).Invoke(command.CloseCurrentWindow, command.Args{})
			return err
		},
	}
	closeCurrent.Flags().StringVar(&caller, "as", "", "label of the calling window")
	_ = closeCurrent.MarkFlagRequired("as")

	return []*cobra.Command{
		open,
		closeAux,
		simpleCmd(opts, "show", "Show and focus the primary window", command.ShowPrimary),
		simpleCmd(opts, "hide", "Hide the primary window", command.HidePrimary),
		simpleCmd(opts, "ensure", "Show the primary window, creating it if missing", command.CreatePrimaryIfMissing),
		simpleCmd(opts, "reopen", "Rebuild the primary window", command.ReopenPrimary),
		popup,
		closeWindow,
		closeCurrent,
		simpleCmd(opts, "quit", "Exit the application after the grace period", command.ForceQuit),
	}
}
