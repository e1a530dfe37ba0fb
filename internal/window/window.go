package window

import (
	"errors"
	"fmt"
	"time"

	"github.com/1broseidon/queuelip/internal/platform"
)

// Well-known labels.
const (
	PrimaryLabel = "main"
)

// Role describes how a window participates in visibility exclusion.
type Role int

const (
	RolePrimary Role = iota
	RoleAuxiliary
	RoleTransient
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleAuxiliary:
		return "auxiliary"
	case RoleTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Visibility is the coordinator's view of whether a window is shown.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "hidden"
}

var (
	// ErrNotFound is returned when no live window has the label.
	ErrNotFound = errors.New("window not found")
	// ErrLabelInUse is returned when a label is already taken by a live window.
	ErrLabelInUse = errors.New("window label already in use")
)

// CreationError reports that the window system refused to allocate a window.
type CreationError struct {
	Label string
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create window %q: %v", e.Label, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// Window is one live OS window.
type Window struct {
	Label      string
	Role       Role
	Kind       string
	Handle     platform.WindowID
	Visibility Visibility
	Chrome     platform.Chrome
	CreatedAt  time.Time
	// Generation counts creations under this label, starting at 1.
	Generation int
}

// Info is a value snapshot of a window for status reporting.
type Info struct {
	Label      string    `json:"label"`
	Role       string    `json:"role"`
	Kind       string    `json:"kind,omitempty"`
	Handle     uint32    `json:"handle"`
	Visibility string    `json:"visibility"`
	Title      string    `json:"title,omitempty"`
	URL        string    `json:"url,omitempty"`
	Generation int       `json:"generation"`
	CreatedAt  time.Time `json:"created_at"`
}

// Info returns a snapshot of w.
func (w *Window) Info() Info {
	return Info{
		Label:      w.Label,
		Role:       w.Role.String(),
		Kind:       w.Kind,
		Handle:     uint32(w.Handle),
		Visibility: w.Visibility.String(),
		Title:      w.Chrome.Title,
		URL:        w.Chrome.URL,
		Generation: w.Generation,
		CreatedAt:  w.CreatedAt,
	}
}
