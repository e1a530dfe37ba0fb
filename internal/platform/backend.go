package platform

import "errors"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// CenteredIn returns a width x height rect centered inside r.
func (r Rect) CenteredIn(width, height int) Rect {
	return Rect{
		X:      r.X + (r.Width-width)/2,
		Y:      r.Y + (r.Height-height)/2,
		Width:  width,
		Height: height,
	}
}

// Chrome is the creation-time configuration of a window. It is fixed for the
// lifetime of the OS window.
type Chrome struct {
	Title       string
	URL         string
	Width       int
	Height      int
	Decorations bool
	Resizable   bool
	AlwaysOnTop bool
	Center      bool
}

// EventType identifies a window-system event delivered to the coordinator.
type EventType int

const (
	// EventCloseRequested is a user close gesture. The OS close has already
	// been suppressed by the backend.
	EventCloseRequested EventType = iota
	// EventDestroyed reports that a window is gone. Backends emit it for
	// programmatic destroys too; receivers must ignore unknown windows.
	EventDestroyed
	// EventExitRequested asks the whole process to terminate.
	EventExitRequested
)

func (t EventType) String() string {
	switch t {
	case EventCloseRequested:
		return "close-requested"
	case EventDestroyed:
		return "destroyed"
	case EventExitRequested:
		return "exit-requested"
	default:
		return "unknown"
	}
}

// Event is a window-system event. Window is zero for process-level events.
type Event struct {
	Type   EventType
	Window WindowID
}

// ErrUnknownWindow is returned by backends for ids they do not own.
var ErrUnknownWindow = errors.New("unknown window")

// WindowSystem abstracts window-system operations across platforms.
//
// Close gestures never close a window on their own: backends suppress the
// OS close and report EventCloseRequested instead. Destroy is the only way
// a window goes away, and it never produces EventCloseRequested.
type WindowSystem interface {
	Create(chrome Chrome) (WindowID, error)
	Destroy(id WindowID) error
	Show(id WindowID) error
	Hide(id WindowID) error
	Focus(id WindowID) error
	Unminimize(id WindowID) error
	IsVisible(id WindowID) (bool, error)
	Exists(id WindowID) bool
	// Notify delivers a best-effort event to the window's content.
	Notify(id WindowID, event, payload string) error
	Events() <-chan Event
}

// KeyBinder is implemented by window systems that can grab global key
// sequences.
type KeyBinder interface {
	BindKey(sequence string, fn func()) error
}
