// Package command maps the named command surface onto the coordinator. The
// IPC server and the UI bridge both dispatch through it.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/monitoring"
	"github.com/1broseidon/queuelip/internal/shell"
	"github.com/1broseidon/queuelip/internal/window"
)

// Command names.
const (
	OpenAuxiliary          = "open_auxiliary"
	CloseAuxiliary         = "close_auxiliary"
	ShowPrimary            = "show_primary"
	HidePrimary            = "hide_primary"
	CreatePrimaryIfMissing = "create_primary_if_missing"
	ReopenPrimary          = "reopen_primary"
	CreatePopup            = "create_popup"
	CloseWindow            = "close_window"
	CloseCurrentWindow     = "close_current_window"
	ForceQuit              = "force_quit"
	GetStatus              = "get_status"
	ListWindows            = "list_windows"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingArg     = errors.New("missing argument")
)

// Names lists every command in a stable order.
func Names() []string {
	return []string{
		OpenAuxiliary,
		CloseAuxiliary,
		ShowPrimary,
		HidePrimary,
		CreatePrimaryIfMissing,
		ReopenPrimary,
		CreatePopup,
		CloseWindow,
		CloseCurrentWindow,
		ForceQuit,
		GetStatus,
		ListWindows,
	}
}

// Known reports whether name (already normalized) is a command.
func Known(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Coordinator is the set of shell operations commands dispatch to.
type Coordinator interface {
	OpenAuxiliary(ctx context.Context, kind, payload string) error
	CloseAuxiliary(ctx context.Context, kind string) error
	ShowPrimary(ctx context.Context) error
	HidePrimary(ctx context.Context) error
	CreatePrimaryIfMissing(ctx context.Context) error
	ReopenPrimary(ctx context.Context) error
	CreatePopup(ctx context.Context, label, title, url string) error
	CloseWindow(ctx context.Context, label string) error
	CloseCurrentWindow(ctx context.Context, caller string) error
	ForceQuit(ctx context.Context) error
	Status(ctx context.Context) (shell.Status, error)
	Windows(ctx context.Context) ([]window.Info, error)
}

// Args carries the arguments of every command; each command reads the
// fields it needs.
type Args struct {
	Kind    string `json:"kind,omitempty"`
	Context string `json:"context,omitempty"`
	Label   string `json:"label,omitempty"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Call is one command invocation.
type Call struct {
	Transport string
	Name      string
	Caller    string
	RequestID string
	Args      Args
}

type Dispatcher struct {
	coord   Coordinator
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

func NewDispatcher(coord Coordinator, logger *zap.Logger, metrics *monitoring.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{coord: coord, logger: logger, metrics: metrics}
}

// Normalize maps transport spellings (OPEN_AUXILIARY, open-auxiliary) to a
// command name.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

// Dispatch runs call and returns its result data, which is nil for commands
// that only change window state.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (any, error) {
	name := Normalize(call.Name)
	d.metrics.RecordCommand(call.Transport, name)
	d.logger.Debug("dispatch",
		zap.String("transport", call.Transport),
		zap.String("command", name),
		zap.String("caller", call.Caller),
		zap.String("request_id", call.RequestID),
	)

	data, err := d.dispatch(ctx, name, call)
	if err != nil {
		d.logger.Info("command failed",
			zap.String("command", name),
			zap.String("request_id", call.RequestID),
			zap.Error(err),
		)
	}
	return data, err
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, call Call) (any, error) {
	args := call.Args
	switch name {
	case OpenAuxiliary:
		if args.Kind == "" {
			return nil, fmt.Errorf("%s: %w: kind", name, ErrMissingArg)
		}
		return nil, d.coord.OpenAuxiliary(ctx, args.Kind, args.Context)
	case CloseAuxiliary:
		if args.Kind == "" {
			return nil, fmt.Errorf("%s: %w: kind", name, ErrMissingArg)
		}
		return nil, d.coord.CloseAuxiliary(ctx, args.Kind)
	case ShowPrimary:
		return nil, d.coord.ShowPrimary(ctx)
	case HidePrimary:
		return nil, d.coord.HidePrimary(ctx)
	case CreatePrimaryIfMissing:
		return nil, d.coord.CreatePrimaryIfMissing(ctx)
	case ReopenPrimary:
		return nil, d.coord.ReopenPrimary(ctx)
	case CreatePopup:
		return nil, d.coord.CreatePopup(ctx, args.Label, args.Title, args.URL)
	case CloseWindow:
		if args.Label == "" {
			return nil, fmt.Errorf("%s: %w: label", name, ErrMissingArg)
		}
		return nil, d.coord.CloseWindow(ctx, args.Label)
	case CloseCurrentWindow:
		return nil, d.coord.CloseCurrentWindow(ctx, call.Caller)
	case ForceQuit:
		return nil, d.coord.ForceQuit(ctx)
	case GetStatus:
		st, err := d.coord.Status(ctx)
		if err != nil {
			return nil, err
		}
		return st, nil
	case ListWindows:
		infos, err := d.coord.Windows(ctx)
		if err != nil {
			return nil, err
		}
		return infos, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, call.Name)
	}
}
