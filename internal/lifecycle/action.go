package lifecycle

import (
	"fmt"
	"time"

	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/window"
)

// Op is a single step the run-loop executes against the registry and the
// window system.
type Op int

const (
	OpCreate Op = iota
	OpDestroy
	OpShow
	OpHide
	OpFocus
	OpUnminimize
	OpQueryVisibility
	OpNotify
	OpScheduleClose
	OpArmExit
	OpScheduleExit
	OpTerminate
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpDestroy:
		return "destroy"
	case OpShow:
		return "show"
	case OpHide:
		return "hide"
	case OpFocus:
		return "focus"
	case OpUnminimize:
		return "unminimize"
	case OpQueryVisibility:
		return "query-visibility"
	case OpNotify:
		return "notify"
	case OpScheduleClose:
		return "schedule-close"
	case OpArmExit:
		return "arm-exit"
	case OpScheduleExit:
		return "schedule-exit"
	case OpTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Action is one step of a transition plan. Optional actions degrade to a
// warning when they fail; every other failure aborts the plan.
type Action struct {
	Op       Op
	Label    string
	Role     window.Role
	Kind     string
	Chrome   platform.Chrome
	Event    string
	Payload  string
	Delay    time.Duration
	Optional bool
}

func (a Action) String() string {
	switch a.Op {
	case OpCreate:
		return fmt.Sprintf("create(%s,%s)", a.Label, a.Role)
	case OpNotify:
		return fmt.Sprintf("notify(%s,%s)", a.Label, a.Event)
	case OpScheduleClose:
		return fmt.Sprintf("%s(%s,%s)", a.Op, a.Label, a.Delay)
	case OpScheduleExit:
		return fmt.Sprintf("%s(%s)", a.Op, a.Delay)
	case OpArmExit, OpTerminate:
		return a.Op.String()
	default:
		return fmt.Sprintf("%s(%s)", a.Op, a.Label)
	}
}

func createAction(label string, role window.Role, kind string, chrome platform.Chrome) Action {
	return Action{Op: OpCreate, Label: label, Role: role, Kind: kind, Chrome: chrome}
}

func destroyAction(label string) Action {
	return Action{Op: OpDestroy, Label: label}
}

func showAction(label string) Action {
	return Action{Op: OpShow, Label: label}
}

func hideAction(label string) Action {
	return Action{Op: OpHide, Label: label}
}

func focusAction(label string) Action {
	return Action{Op: OpFocus, Label: label, Optional: true}
}

func unminimizeAction(label string) Action {
	return Action{Op: OpUnminimize, Label: label, Optional: true}
}

func queryVisibilityAction(label string) Action {
	return Action{Op: OpQueryVisibility, Label: label, Optional: true}
}

func notifyAction(label, event, payload string) Action {
	return Action{Op: OpNotify, Label: label, Event: event, Payload: payload, Optional: true}
}

func scheduleCloseAction(label string, delay time.Duration) Action {
	return Action{Op: OpScheduleClose, Label: label, Delay: delay}
}

// Ops returns the op sequence of a plan. Handy for logging and assertions.
func Ops(plan []Action) []string {
	out := make([]string, len(plan))
	for i, a := range plan {
		out[i] = a.String()
	}
	return out
}
