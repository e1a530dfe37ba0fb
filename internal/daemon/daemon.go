// Package daemon wires the coordinator to its window system, transports and
// background workers for one process lifetime.
package daemon

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/bridge"
	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/config"
	"github.com/1broseidon/queuelip/internal/hotkeys"
	"github.com/1broseidon/queuelip/internal/ipc"
	"github.com/1broseidon/queuelip/internal/lifecycle"
	"github.com/1broseidon/queuelip/internal/monitoring"
	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/shell"
)

const shutdownTimeout = 2 * time.Second

type Options struct {
	Config *config.Config
	Logger *zap.Logger
	// SocketPath overrides the runtime-dir IPC socket.
	SocketPath string
	// System overrides the configured backend.
	System platform.WindowSystem
	// Started, when set, receives the running shell once the primary window
	// exists.
	Started func(*shell.Shell)
}

// Run starts the shell with IPC, the UI bridge and the reconciler, and
// blocks until the process should exit. The returned code is the process
// exit status.
func Run(ctx context.Context, opts Options) (int, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	policy, err := lifecycle.New(cfg.PolicyConfig())
	if err != nil {
		return 1, err
	}

	sys := opts.System
	if sys == nil {
		opened, closeSys, err := openSystem(cfg, logger.Named("x11"))
		if err != nil {
			return 1, err
		}
		defer closeSys()
		sys = opened
	}

	metrics := monitoring.NewMetrics()
	sh, err := shell.New(shell.Options{
		Policy:  policy,
		System:  sys,
		Logger:  logger.Named("shell"),
		Metrics: metrics,
	})
	if err != nil {
		return 1, err
	}

	dispatcher := command.NewDispatcher(sh, logger.Named("commands"), metrics)

	if len(cfg.Hotkeys) > 0 {
		if binder, ok := sys.(platform.KeyBinder); ok {
			hotkeys.NewHandler(binder, dispatcher, logger.Named("hotkeys")).RegisterAll(hotkeyBindings(cfg.Hotkeys))
		} else {
			logger.Warn("window system cannot grab keys, hotkeys ignored")
		}
	}

	ipcServer, err := ipc.NewServer(opts.SocketPath, dispatcher, logger.Named("ipc"))
	if err != nil {
		return 1, err
	}
	if err := ipcServer.Start(); err != nil {
		return 1, err
	}
	defer ipcServer.Stop()

	if cfg.Bridge.Enabled {
		br := bridge.New(bridge.Options{
			Listen:      cfg.Bridge.Listen,
			Dispatcher:  dispatcher,
			Metrics:     metrics,
			Logger:      logger.Named("bridge"),
			Development: cfg.Logging.Development,
		})
		sh.AddNotifier(br.Hub())
		if err := br.Start(); err != nil {
			return 1, err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := br.Shutdown(shutdownCtx); err != nil {
				logger.Warn("bridge shutdown", zap.Error(err))
			}
		}()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.ReconcileInterval > 0 {
		rec := NewReconciler(ReconcilerConfig{
			Interval: cfg.ReconcileInterval,
			Logger:   logger.Named("reconciler"),
		}, sh)
		go rec.Run(runCtx)
	}

	if opts.Started != nil {
		go func() {
			select {
			case <-sh.Ready():
				opts.Started(sh)
			case <-sh.Done():
			}
		}()
	}

	logger.Info("daemon starting",
		zap.String("backend", cfg.Backend),
		zap.String("socket", ipcServer.SocketPath()),
		zap.Bool("bridge", cfg.Bridge.Enabled),
	)
	if err := sh.Run(runCtx); err != nil {
		return sh.Exit().Code(), fmt.Errorf("shell: %w", err)
	}
	return sh.Exit().Code(), nil
}

func openSystem(cfg *config.Config, logger *zap.Logger) (platform.WindowSystem, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return platform.NewMemorySystem(), func() {}, nil
	case config.BackendX11:
		return openX11(cfg.Display, logger)
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func hotkeyBindings(keys map[string]config.Hotkey) []hotkeys.Binding {
	out := make([]hotkeys.Binding, 0, len(keys))
	for seq, hk := range keys {
		out = append(out, hotkeys.Binding{
			Keys:    seq,
			Command: command.Normalize(hk.Command),
			Args:    command.Args{Kind: hk.Kind, Label: hk.Label},
		})
	}
	return out
}
