// Package lifecycle decides what happens to windows on every transition.
//
// The Policy is pure: each operation reads a registry snapshot and returns
// an ordered plan of Actions. It never touches the window system. The shell
// run-loop executes plans, which keeps close interception free of
// callbacks calling callbacks.
package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/1broseidon/queuelip/internal/platform"
	"github.com/1broseidon/queuelip/internal/window"
)

// Idiom selects how an auxiliary kind coordinates with the primary window.
type Idiom string

const (
	// IdiomHideShow keeps both windows alive and toggles visibility. UI
	// state survives every transition.
	IdiomHideShow Idiom = "hide-show"
	// IdiomDestroyRecreate destroys and recreates windows. Kept for legacy
	// kinds; primary UI state is lost across a round trip.
	IdiomDestroyRecreate Idiom = "destroy-recreate"
)

const (
	DefaultPopupCloseDelay = 200 * time.Millisecond
	DefaultExitGrace       = 300 * time.Millisecond
)

var (
	ErrUnknownKind    = errors.New("unknown auxiliary kind")
	ErrReservedLabel  = errors.New("label is reserved")
	ErrNoLegacyIdiom  = errors.New("no auxiliary kind uses the destroy-recreate idiom")
	ErrUnknownCaller  = errors.New("caller window is unknown")
	ErrInvalidProfile = errors.New("invalid auxiliary profile")
)

// Profile is the fixed configuration of one auxiliary kind.
type Profile struct {
	Kind   string
	Chrome platform.Chrome
	Idiom  Idiom
	// RestorePrimary recreates the primary window when a destroy-recreate
	// kind is closed.
	RestorePrimary bool
	// ExitWhenMissing exits the application when a destroy-recreate kind
	// is closed while no window of that kind exists.
	ExitWhenMissing bool
}

// Config is everything the Policy needs to build plans.
type Config struct {
	Primary         platform.Chrome
	Popup           platform.Chrome
	Auxiliary       []Profile
	PopupCloseDelay time.Duration
	ExitGrace       time.Duration
}

// Snapshot is the read-only registry view the Policy decides on.
type Snapshot interface {
	Lookup(label string) (*window.Window, bool)
}

// Policy implements both lifecycle idioms behind one set of transitions.
type Policy struct {
	cfg      Config
	profiles map[string]Profile
	kinds    []string
}

// New validates cfg and builds a Policy.
func New(cfg Config) (*Policy, error) {
	if cfg.PopupCloseDelay <= 0 {
		cfg.PopupCloseDelay = DefaultPopupCloseDelay
	}
	if cfg.ExitGrace <= 0 {
		cfg.ExitGrace = DefaultExitGrace
	}

	p := &Policy{
		cfg:      cfg,
		profiles: make(map[string]Profile, len(cfg.Auxiliary)),
	}
	for _, prof := range cfg.Auxiliary {
		if prof.Kind == "" || prof.Kind == window.PrimaryLabel {
			return nil, fmt.Errorf("%w: kind %q", ErrInvalidProfile, prof.Kind)
		}
		if _, dup := p.profiles[prof.Kind]; dup {
			return nil, fmt.Errorf("%w: duplicate kind %q", ErrInvalidProfile, prof.Kind)
		}
		switch prof.Idiom {
		case "":
			prof.Idiom = IdiomHideShow
		case IdiomHideShow, IdiomDestroyRecreate:
		default:
			return nil, fmt.Errorf("%w: kind %q has unknown idiom %q", ErrInvalidProfile, prof.Kind, prof.Idiom)
		}
		p.profiles[prof.Kind] = prof
		p.kinds = append(p.kinds, prof.Kind)
	}
	sort.Strings(p.kinds)
	return p, nil
}

// Profile returns the profile of kind.
func (p *Policy) Profile(kind string) (Profile, bool) {
	prof, ok := p.profiles[kind]
	return prof, ok
}

// Kinds returns the configured auxiliary kinds in sorted order.
func (p *Policy) Kinds() []string {
	return append([]string(nil), p.kinds...)
}

// ExitGrace is the delay between force quit and termination.
func (p *Policy) ExitGrace() time.Duration {
	return p.cfg.ExitGrace
}

// PopupCloseDelay is the delay before a popup closes after its close gesture.
func (p *Policy) PopupCloseDelay() time.Duration {
	return p.cfg.PopupCloseDelay
}

func (p *Policy) hasLegacyIdiom() bool {
	for _, prof := range p.profiles {
		if prof.Idiom == IdiomDestroyRecreate {
			return true
		}
	}
	return false
}

func (p *Policy) reserved(label string) bool {
	if label == window.PrimaryLabel {
		return true
	}
	_, ok := p.profiles[label]
	return ok
}

func lookupRole(s Snapshot, label string, role window.Role) (*window.Window, bool) {
	w, ok := s.Lookup(label)
	if !ok || w.Role != role {
		return nil, false
	}
	return w, true
}

func contextEvent(kind string) string {
	return kind + "-context"
}
