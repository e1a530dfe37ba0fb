package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/queuelip/internal/tui"
)

func newTUICmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive window inspector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(cmd.OutOrStdout()) {
				return fmt.Errorf("tui requires an interactive terminal")
			}
			return tui.Run(opts.client())
		},
	}
}
