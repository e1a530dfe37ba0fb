// Package shell runs the window coordinator.
//
// A Shell owns the window registry on a single goroutine. Commands from any
// transport are closures posted to that goroutine and answered over a reply
// channel; window-system events and one-shot timers re-enter the same loop.
// The policy decides, the shell executes.
package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/exitctl"
	"github.com/1broseidon/queuelip/internal/lifecycle"
	"github.com/1broseidon/queuelip/internal/monitoring"
	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/window"
)

// ErrExiting is returned for commands that would create or reveal windows
// once the process has committed to exiting, and for every command posted
// after the run-loop stopped.
var ErrExiting = errors.New("application is exiting")

// Notifier receives best-effort context notifications in addition to the
// window system. The UI bridge implements it.
type Notifier interface {
	Notify(label, event, payload string) error
}

// Options configures a Shell.
type Options struct {
	Policy    *lifecycle.Policy
	System    platform.WindowSystem
	Exit      *exitctl.Controller
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
	Notifiers []Notifier
}

type request struct {
	op    string
	fn    func() error
	reply chan error
}

// Shell is the coordinator run-loop.
type Shell struct {
	policy    *lifecycle.Policy
	sys       platform.WindowSystem
	registry  *window.Registry
	exit      *exitctl.Controller
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	notifiers []Notifier

	cmds    chan request
	ready   chan struct{}
	stopped chan struct{}
	runOnce sync.Once
	started time.Time

	// Loop-owned. Fired timers remove themselves.
	timers   map[uint64]*time.Timer
	timerSeq uint64
}

// New creates a Shell. Run starts it.
func New(opts Options) (*Shell, error) {
	if opts.Policy == nil {
		return nil, fmt.Errorf("shell: policy is required")
	}
	if opts.System == nil {
		return nil, fmt.Errorf("shell: window system is required")
	}
	if opts.Exit == nil {
		opts.Exit = exitctl.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Shell{
		policy:    opts.Policy,
		sys:       opts.System,
		registry:  window.NewRegistry(opts.System),
		exit:      opts.Exit,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		notifiers: opts.Notifiers,
		cmds:      make(chan request),
		ready:     make(chan struct{}),
		stopped:   make(chan struct{}),
		timers:    make(map[uint64]*time.Timer),
	}, nil
}

// AddNotifier registers an extra notifier. It must be called before Run.
func (s *Shell) AddNotifier(n Notifier) {
	s.notifiers = append(s.notifiers, n)
}

// Ready is closed once the primary window exists and commands are served.
func (s *Shell) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed when the run-loop has stopped.
func (s *Shell) Done() <-chan struct{} {
	return s.stopped
}

// Exit exposes the exit controller.
func (s *Shell) Exit() *exitctl.Controller {
	return s.exit
}

// Run creates the primary window and serves commands and window-system
// events until termination. Cancelling ctx is treated as an exit request.
func (s *Shell) Run(ctx context.Context) error {
	err := fmt.Errorf("shell: already running")
	s.runOnce.Do(func() {
		err = s.run(ctx)
	})
	return err
}

func (s *Shell) run(ctx context.Context) error {
	defer close(s.stopped)
	s.started = time.Now()

	if err := s.execute(s.policy.Bootstrap(s.registry)); err != nil {
		s.logger.Error("failed to create primary window", zap.Error(err))
		s.exit.Terminate(1)
		return err
	}
	s.metrics.SetWindows(s.countByRole())
	close(s.ready)
	s.logger.Info("shell ready", zap.Strings("kinds", s.policy.Kinds()))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("context cancelled, exiting")
			s.runPlan("exit_requested", s.policy.Terminal())
			s.shutdown()
			return nil

		case req := <-s.cmds:
			req.reply <- req.fn()

		case ev := <-s.sys.Events():
			s.handleEvent(ev)

		case <-s.exit.Done():
			s.shutdown()
			return nil
		}
	}
}

func (s *Shell) shutdown() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}

	for _, label := range s.registry.Labels() {
		if err := s.registry.Destroy(label); err != nil {
			s.logger.Debug("destroy on shutdown failed", zap.String("label", label), zap.Error(err))
		}
	}
	s.logger.Info("shell stopped",
		zap.Int("code", s.exit.Code()),
		zap.Duration("uptime", time.Since(s.started)),
	)
}

// do posts fn to the run-loop and waits for its result.
func (s *Shell) do(ctx context.Context, op string, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- request{op: op, fn: fn, reply: reply}:
	case <-s.stopped:
		return ErrExiting
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-s.stopped:
		select {
		case err := <-reply:
			return err
		default:
			return ErrExiting
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// schedule arms a one-shot timer whose callback runs on the loop.
func (s *Shell) schedule(op string, delay time.Duration, fn func() error) {
	s.timerSeq++
	id := s.timerSeq
	s.timers[id] = time.AfterFunc(delay, func() {
		err := s.do(context.Background(), op, func() error {
			delete(s.timers, id)
			return fn()
		})
		if err != nil && !errors.Is(err, ErrExiting) {
			s.logger.Warn("scheduled operation failed", zap.String("op", op), zap.Error(err))
		}
	})
}

func (s *Shell) handleEvent(ev platform.Event) {
	switch ev.Type {
	case platform.EventCloseRequested:
		label, ok := s.registry.LabelFor(ev.Window)
		if !ok {
			s.logger.Debug("close requested for unknown window", zap.Uint32("window", uint32(ev.Window)))
			return
		}
		w, _ := s.registry.Lookup(label)
		if s.exit.Armed() && w.Role != window.RolePrimary {
			s.logger.Debug("ignoring close gesture while exiting", zap.String("label", label))
			return
		}
		s.logger.Info("close requested", zap.String("label", label), zap.Stringer("role", w.Role))
		s.runPlan("close_requested", s.policy.CloseRequested(s.registry, label))

	case platform.EventDestroyed:
		label, ok := s.registry.Forget(ev.Window)
		if !ok {
			return
		}
		s.logger.Warn("window destroyed externally", zap.String("label", label))
		s.afterTransition()

	case platform.EventExitRequested:
		s.logger.Info("exit requested by window system")
		s.runPlan("exit_requested", s.policy.Terminal())
	}
}

// runPlan executes an event-driven plan. Errors have no caller to return to
// and are logged.
func (s *Shell) runPlan(op string, plan []lifecycle.Action) {
	if err := s.transition(op, plan, nil); err != nil {
		s.logger.Error("transition failed", zap.String("op", op), zap.Error(err))
	}
}

// transition executes plan (or reports planErr), records the outcome and
// then applies the all-windows-closed rule.
func (s *Shell) transition(op string, plan []lifecycle.Action, planErr error) error {
	start := time.Now()
	err := planErr
	if err == nil {
		s.logger.Debug("executing plan", zap.String("op", op), zap.Strings("actions", lifecycle.Ops(plan)))
		err = s.execute(plan)
	}
	s.metrics.RecordTransition(op, err, time.Since(start))
	s.afterTransition()
	return err
}

func (s *Shell) afterTransition() {
	s.metrics.SetWindows(s.countByRole())

	if s.registry.Len() > 0 || s.exit.Terminated() {
		return
	}
	s.logger.Info("all windows closed, terminating")
	if err := s.execute(s.policy.Terminal()); err != nil {
		s.exit.Terminate(0)
	}
}

func (s *Shell) countByRole() map[string]int {
	counts := make(map[string]int, 3)
	for _, info := range s.registry.Infos() {
		counts[info.Role]++
	}
	return counts
}
