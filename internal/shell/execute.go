package shell

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/lifecycle"
	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/window"
)

// execute runs plan in order. A failing optional action is logged and
// skipped; any other failure stops the plan.
func (s *Shell) execute(plan []lifecycle.Action) error {
	for _, a := range plan {
		err := s.apply(a)
		if err == nil {
			continue
		}
		if a.Optional {
			s.logger.Warn("optional step failed",
				zap.String("step", a.Op.String()),
				zap.String("label", a.Label),
				zap.Error(err),
			)
			s.metrics.RecordOptionalFailure(a.Op.String())
			continue
		}
		return err
	}
	return nil
}

func (s *Shell) apply(a lifecycle.Action) error {
	switch a.Op {
	case lifecycle.OpCreate:
		w, err := s.registry.Create(a.Label, a.Role, a.Kind, a.Chrome)
		if err != nil {
			s.logger.Error("window creation failed", zap.String("label", a.Label), zap.Error(err))
			return err
		}
		s.logger.Info("window created",
			zap.String("label", w.Label),
			zap.Stringer("role", w.Role),
			zap.Int("generation", w.Generation),
		)
		return nil

	case lifecycle.OpDestroy:
		err := s.registry.Destroy(a.Label)
		if errors.Is(err, window.ErrNotFound) {
			return nil
		}
		if err == nil {
			s.logger.Info("window destroyed", zap.String("label", a.Label))
		}
		return err

	case lifecycle.OpShow:
		return s.withWindow(a, func(h platform.WindowID) error {
			if err := s.sys.Show(h); err != nil {
				return err
			}
			s.registry.SetVisibility(a.Label, window.Visible)
			return nil
		})

	case lifecycle.OpHide:
		err := s.withWindow(a, func(h platform.WindowID) error {
			if err := s.sys.Hide(h); err != nil {
				return err
			}
			s.registry.SetVisibility(a.Label, window.Hidden)
			return nil
		})
		if errors.Is(err, window.ErrNotFound) {
			return nil
		}
		return err

	case lifecycle.OpFocus:
		return s.withWindow(a, s.sys.Focus)

	case lifecycle.OpUnminimize:
		return s.withWindow(a, s.sys.Unminimize)

	case lifecycle.OpQueryVisibility:
		return s.withWindow(a, func(h platform.WindowID) error {
			visible, err := s.sys.IsVisible(h)
			if err != nil {
				return err
			}
			s.logger.Info("window visibility", zap.String("label", a.Label), zap.Bool("visible", visible))
			return nil
		})

	case lifecycle.OpNotify:
		return s.withWindow(a, func(h platform.WindowID) error {
			errs := []error{s.sys.Notify(h, a.Event, a.Payload)}
			for _, n := range s.notifiers {
				errs = append(errs, n.Notify(a.Label, a.Event, a.Payload))
			}
			return errors.Join(errs...)
		})

	case lifecycle.OpScheduleClose:
		s.scheduleClose(a)
		return nil

	case lifecycle.OpArmExit:
		if s.exit.Arm() {
			s.logger.Info("exit armed")
		}
		s.metrics.SetExitArmed()
		return nil

	case lifecycle.OpScheduleExit:
		if s.exit.ScheduleExit(a.Delay) {
			s.logger.Info("exit scheduled", zap.Duration("delay", a.Delay))
		}
		s.metrics.SetExitArmed()
		return nil

	case lifecycle.OpTerminate:
		s.exit.Terminate(0)
		return nil

	default:
		return fmt.Errorf("unknown action %v", a.Op)
	}
}

// withWindow resolves the action's label to a live handle. A handle the
// window system no longer knows is dropped from the registry and reported
// as not found.
func (s *Shell) withWindow(a lifecycle.Action, fn func(platform.WindowID) error) error {
	w, ok := s.registry.Lookup(a.Label)
	if !ok {
		return fmt.Errorf("%s %q: %w", a.Op, a.Label, window.ErrNotFound)
	}
	err := fn(w.Handle)
	if platform.IsUnknownWindow(err) {
		s.registry.Forget(w.Handle)
		s.logger.Warn("window vanished", zap.String("label", a.Label))
		return fmt.Errorf("%s %q: %w", a.Op, a.Label, window.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s %q: %w", a.Op, a.Label, err)
	}
	return nil
}

// scheduleClose destroys the window after the delay. The close only applies
// to the generation that asked for it, so a popup recreated under the same
// label in the meantime survives.
func (s *Shell) scheduleClose(a lifecycle.Action) {
	w, ok := s.registry.Lookup(a.Label)
	if !ok {
		return
	}
	label, gen := a.Label, w.Generation
	s.logger.Debug("close scheduled", zap.String("label", label), zap.Duration("delay", a.Delay))

	s.schedule("scheduled_close", a.Delay, func() error {
		cur, ok := s.registry.Lookup(label)
		if !ok || cur.Generation != gen {
			return nil
		}
		return s.transition("scheduled_close", []lifecycle.Action{{Op: lifecycle.OpDestroy, Label: label}}, nil)
	})
}
