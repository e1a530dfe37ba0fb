package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/queuelip/internal/daemon"
)

func newDaemonCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Start the queuelip daemon (foreground)",
		Long: `Start the daemon in the foreground. It creates the primary window, serves
window commands on the IPC socket and, when bridge.enabled is set, the HTTP
and websocket bridge used by window content.

SIGINT and SIGTERM are treated as an exit request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := opts.logger(res.Config)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			code, err := daemon.Run(ctx, daemon.Options{
				Config:     res.Config,
				Logger:     logger,
				SocketPath: opts.socketPath,
			})
			if err != nil {
				return err
			}
			if code != 0 {
				return &exitCodeError{code: code}
			}
			return nil
		},
	}
}
