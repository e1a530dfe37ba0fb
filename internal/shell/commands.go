package shell

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/lifecycle"
	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/window"
)

// revealing runs a command that would create or reveal a window. Such
// commands are refused once exit is armed.
func (s *Shell) revealing(ctx context.Context, op string, plan func() ([]lifecycle.Action, error)) error {
	return s.do(ctx, op, func() error {
		if s.exit.Armed() {
			s.logger.Info("command refused while exiting", zap.String("op", op))
			return ErrExiting
		}
		actions, err := plan()
		return s.transition(op, actions, err)
	})
}

// closing runs a command that only hides or destroys windows.
func (s *Shell) closing(ctx context.Context, op string, plan func() ([]lifecycle.Action, error)) error {
	return s.do(ctx, op, func() error {
		actions, err := plan()
		return s.transition(op, actions, err)
	})
}

// OpenAuxiliary shows the auxiliary window of kind, hiding the primary, and
// forwards payload to it as a context notification when non-empty.
func (s *Shell) OpenAuxiliary(ctx context.Context, kind, payload string) error {
	s.logger.Info("open_auxiliary", zap.String("kind", kind), zap.Bool("has_context", payload != ""))
	return s.revealing(ctx, "open_auxiliary", func() ([]lifecycle.Action, error) {
		return s.policy.OpenAuxiliary(s.registry, kind, payload)
	})
}

// CloseAuxiliary hides or destroys the auxiliary window of kind and restores
// the primary.
func (s *Shell) CloseAuxiliary(ctx context.Context, kind string) error {
	s.logger.Info("close_auxiliary", zap.String("kind", kind))
	return s.closing(ctx, "close_auxiliary", func() ([]lifecycle.Action, error) {
		return s.policy.CloseAuxiliary(s.registry, kind)
	})
}

// ShowPrimary shows, unminimizes and focuses the primary window.
func (s *Shell) ShowPrimary(ctx context.Context) error {
	s.logger.Info("show_primary")
	return s.revealing(ctx, "show_primary", func() ([]lifecycle.Action, error) {
		plan, err := s.policy.ShowPrimary(s.registry)
		if errors.Is(err, window.ErrNotFound) {
			s.logger.Warn("primary window not found", zap.Strings("live", s.registry.Labels()))
		}
		return plan, err
	})
}

// HidePrimary hides the primary window.
func (s *Shell) HidePrimary(ctx context.Context) error {
	s.logger.Info("hide_primary")
	return s.closing(ctx, "hide_primary", func() ([]lifecycle.Action, error) {
		return s.policy.HidePrimary(s.registry), nil
	})
}

// CreatePrimaryIfMissing shows the primary window, creating it if needed.
func (s *Shell) CreatePrimaryIfMissing(ctx context.Context) error {
	s.logger.Info("create_primary_if_missing")
	return s.revealing(ctx, "create_primary_if_missing", func() ([]lifecycle.Action, error) {
		return s.policy.CreatePrimaryIfMissing(s.registry), nil
	})
}

// ReopenPrimary rebuilds the primary window after a destroy-recreate kind
// destroyed it.
func (s *Shell) ReopenPrimary(ctx context.Context) error {
	s.logger.Info("reopen_primary")
	return s.revealing(ctx, "reopen_primary", func() ([]lifecycle.Action, error) {
		return s.policy.ReopenPrimary(s.registry)
	})
}

// CreatePopup opens a transient window under label.
func (s *Shell) CreatePopup(ctx context.Context, label, title, url string) error {
	s.logger.Info("create_popup", zap.String("label", label), zap.String("url", url))
	return s.revealing(ctx, "create_popup", func() ([]lifecycle.Action, error) {
		return s.policy.CreatePopup(s.registry, label, title, url)
	})
}

// CloseWindow destroys the window with label immediately.
func (s *Shell) CloseWindow(ctx context.Context, label string) error {
	s.logger.Info("close_window", zap.String("label", label))
	return s.closing(ctx, "close_window", func() ([]lifecycle.Action, error) {
		return s.policy.CloseWindow(s.registry, label)
	})
}

// CloseCurrentWindow destroys the caller's own window.
func (s *Shell) CloseCurrentWindow(ctx context.Context, caller string) error {
	s.logger.Info("close_current_window", zap.String("caller", caller))
	return s.closing(ctx, "close_current_window", func() ([]lifecycle.Action, error) {
		return s.policy.CloseCurrentWindow(s.registry, caller)
	})
}

// ForceQuit arms exit and terminates after the grace delay. It never fails:
// a shell that already stopped has exited.
func (s *Shell) ForceQuit(ctx context.Context) error {
	s.logger.Info("force_quit")
	err := s.closing(ctx, "force_quit", func() ([]lifecycle.Action, error) {
		return s.policy.ForceQuit(), nil
	})
	if errors.Is(err, ErrExiting) {
		return nil
	}
	return err
}

// Status is a point-in-time report of the coordinator.
type Status struct {
	State     string        `json:"state"`
	StartedAt time.Time     `json:"started_at"`
	Uptime    string        `json:"uptime"`
	Kinds     []string      `json:"kinds"`
	Windows   []window.Info `json:"windows"`
}

// Status reports exit state and the live windows.
func (s *Shell) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.do(ctx, "status", func() error {
		st = Status{
			State:     s.exit.State().String(),
			StartedAt: s.started,
			Uptime:    time.Since(s.started).Round(time.Second).String(),
			Kinds:     s.policy.Kinds(),
			Windows:   s.registry.Infos(),
		}
		return nil
	})
	return st, err
}

// Windows lists the live windows ordered by label.
func (s *Shell) Windows(ctx context.Context) ([]window.Info, error) {
	var infos []window.Info
	err := s.do(ctx, "windows", func() error {
		infos = s.registry.Infos()
		return nil
	})
	return infos, err
}

// Reconcile drops registry entries whose OS window disappeared without a
// destroy notification and returns their labels.
func (s *Shell) Reconcile(ctx context.Context) ([]string, error) {
	var dropped []string
	err := s.do(ctx, "reconcile", func() error {
		for label, handle := range s.registry.Handles() {
			if s.sys.Exists(handle) {
				continue
			}
			s.registry.Forget(handle)
			dropped = append(dropped, label)
		}
		if len(dropped) == 0 {
			return nil
		}
		sort.Strings(dropped)
		s.logger.Warn("dropped vanished windows", zap.Strings("labels", dropped))
		s.afterTransition()
		return nil
	})
	return dropped, err
}

// HandleOf returns the platform handle of label. Tests use it to address the
// window system directly.
func (s *Shell) HandleOf(ctx context.Context, label string) (platform.WindowID, bool) {
	var (
		h  platform.WindowID
		ok bool
	)
	_ = s.do(ctx, "handle", func() error {
		var w *window.Window
		if w, ok = s.registry.Lookup(label); ok {
			h = w.Handle
		}
		return nil
	})
	return h, ok
}
