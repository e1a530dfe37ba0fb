// Package hotkeys binds global key sequences to window commands.
package hotkeys

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/command"
	"github.com/1broseidon/queuelip/internal/platform"
)

// Transport is the command transport name recorded for key presses.
const Transport = "hotkey"

const dispatchTimeout = 5 * time.Second

// Dispatcher runs a command. *command.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, call command.Call) (any, error)
}

// Binding maps one key sequence to a command.
type Binding struct {
	Keys    string
	Command string
	Args    command.Args
}

// Handler registers bindings with a window system and dispatches presses.
type Handler struct {
	binder     platform.KeyBinder
	dispatcher Dispatcher
	logger     *zap.Logger
}

func NewHandler(binder platform.KeyBinder, dispatcher Dispatcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		binder:     binder,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Register grabs b.Keys. Presses dispatch asynchronously so that the window
// system's event loop is never blocked on the coordinator.
func (h *Handler) Register(b Binding) error {
	if b.Keys == "" {
		return fmt.Errorf("empty key sequence")
	}
	if err := h.binder.BindKey(b.Keys, func() { go h.trigger(b) }); err != nil {
		return fmt.Errorf("failed to bind %s: %w", b.Keys, err)
	}
	h.logger.Info("hotkey registered", zap.String("keys", b.Keys), zap.String("command", b.Command))
	return nil
}

// RegisterAll registers every binding in key order. A binding that cannot
// be grabbed (already taken by another client, unknown keysym) is logged and
// skipped. It returns the number registered.
func (h *Handler) RegisterAll(bindings []Binding) int {
	sorted := append([]Binding(nil), bindings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Keys < sorted[j].Keys })

	n := 0
	for _, b := range sorted {
		if err := h.Register(b); err != nil {
			h.logger.Warn("hotkey not registered", zap.String("keys", b.Keys), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

func (h *Handler) trigger(b Binding) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	h.logger.Debug("hotkey triggered", zap.String("keys", b.Keys), zap.String("command", b.Command))
	call := command.Call{
		Transport: Transport,
		Name:      b.Command,
		Args:      b.Args,
	}
	if b.Command == command.CloseCurrentWindow {
		call.Caller = b.Args.Label
	}
	if _, err := h.dispatcher.Dispatch(ctx, call); err != nil {
		h.logger.Warn("hotkey command failed",
			zap.String("keys", b.Keys),
			zap.String("command", b.Command),
			zap.Error(err),
		)
	}
}
