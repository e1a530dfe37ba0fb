package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/1broseidon/queuelip/internal/config"
	"github.com/1broseidon/queuelip/internal/ipc"
	"github.com/1broseidon/queuelip/internal/logging"
)

type cliOptions struct {
	configPath string
	socketPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "queuelip",
		Short: "Window lifecycle coordinator for a tray-style desktop app",
		Long: `queuelip keeps one primary window, any number of auxiliary windows and
transient popups in a consistent state. The daemon owns the windows; every
other command talks to it over a unix socket.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (default: ~/.config/queuelip/config.yaml)")
	pf.StringVar(&opts.socketPath, "socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/queuelip.sock)")
	pf.StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newDaemonCmd(opts),
		newStatusCmd(opts),
		newWindowsCmd(opts),
		newConfigCmd(opts),
		newMCPCmd(opts),
		newTUICmd(opts),
	)
	root.AddCommand(newWindowCmds(opts)...)
	return root
}

func (o *cliOptions) load() (*config.LoadResult, error) {
	if o.configPath == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(o.configPath)
}

func (o *cliOptions) client() *ipc.Client {
	if o.socketPath == "" {
		return ipc.NewClient()
	}
	return ipc.NewClientWithSocket(o.socketPath)
}

func (o *cliOptions) logger(cfg *config.Config) (*zap.Logger, error) {
	lc := cfg.LoggerConfig()
	if o.logLevel != "" {
		lc.Level = o.logLevel
	}
	return logging.New(lc)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
