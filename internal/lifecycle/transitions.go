package lifecycle

import (
	"fmt"
	"strings"

	"github.com/1broseidon/queuelip/internal/window"
)

// Bootstrap creates the primary window at process start.
func (p *Policy) Bootstrap(s Snapshot) []Action {
	if _, ok := s.Lookup(window.PrimaryLabel); ok {
		return nil
	}
	return []Action{createAction(window.PrimaryLabel, window.RolePrimary, "", p.cfg.Primary)}
}

// OpenAuxiliary makes the window of kind the only visible primary surface
// and forwards payload to it as a context notification.
func (p *Policy) OpenAuxiliary(s Snapshot, kind, payload string) ([]Action, error) {
	prof, ok := p.profiles[kind]
	if !ok {
		return nil, fmt.Errorf("open %q: %w", kind, ErrUnknownKind)
	}

	var plan []Action
	switch prof.Idiom {
	case IdiomDestroyRecreate:
		plan = append(plan, p.hideOtherSurfaces(s, kind)...)
		if _, ok := s.Lookup(kind); ok {
			plan = append(plan, destroyAction(kind))
		}
		plan = append(plan, createAction(kind, window.RoleAuxiliary, kind, prof.Chrome))
		if payload != "" {
			plan = append(plan, notifyAction(kind, contextEvent(kind), payload))
		}
		if _, ok := lookupRole(s, window.PrimaryLabel, window.RolePrimary); ok {
			plan = append(plan, destroyAction(window.PrimaryLabel))
		}

	default:
		plan = append(plan, p.hideOtherSurfaces(s, kind)...)
		if _, ok := lookupRole(s, kind, window.RoleAuxiliary); ok {
			plan = append(plan, showAction(kind), unminimizeAction(kind), focusAction(kind))
		} else {
			plan = append(plan, createAction(kind, window.RoleAuxiliary, kind, prof.Chrome), focusAction(kind))
		}
		if payload != "" {
			plan = append(plan, notifyAction(kind, contextEvent(kind), payload))
		}
		if _, ok := lookupRole(s, window.PrimaryLabel, window.RolePrimary); ok {
			plan = append(plan, hideAction(window.PrimaryLabel))
		}
	}
	return plan, nil
}

// CloseAuxiliary reverses OpenAuxiliary. Closing a kind with no live window
// is a no-op, except for destroy-recreate kinds configured to exit.
func (p *Policy) CloseAuxiliary(s Snapshot, kind string) ([]Action, error) {
	prof, ok := p.profiles[kind]
	if !ok {
		return nil, fmt.Errorf("close %q: %w", kind, ErrUnknownKind)
	}

	_, exists := lookupRole(s, kind, window.RoleAuxiliary)

	switch prof.Idiom {
	case IdiomDestroyRecreate:
		if !exists {
			if prof.ExitWhenMissing {
				return []Action{{Op: OpArmExit}, {Op: OpTerminate}}, nil
			}
			return nil, nil
		}
		plan := []Action{destroyAction(kind)}
		if prof.RestorePrimary {
			plan = append(plan, p.restorePrimary(s, kind)...)
		}
		return plan, nil

	default:
		if !exists {
			return nil, nil
		}
		plan := []Action{hideAction(kind)}
		return append(plan, p.restorePrimary(s, kind)...), nil
	}
}

// restorePrimary brings the primary back to visible, focused and
// unminimized, recreating it with default chrome when it is gone. The
// auxiliary window being closed is skipped when hiding other surfaces.
func (p *Policy) restorePrimary(s Snapshot, closing string) []Action {
	plan := p.hideOtherSurfaces(s, closing)
	if _, ok := lookupRole(s, window.PrimaryLabel, window.RolePrimary); ok {
		return append(plan,
			showAction(window.PrimaryLabel),
			unminimizeAction(window.PrimaryLabel),
			focusAction(window.PrimaryLabel),
		)
	}
	return append(plan,
		createAction(window.PrimaryLabel, window.RolePrimary, "", p.cfg.Primary),
		focusAction(window.PrimaryLabel),
	)
}

// hideOtherSurfaces hides every visible auxiliary window except the one of
// kind except, whatever its idiom. Primary surfaces are mutually exclusive.
func (p *Policy) hideOtherSurfaces(s Snapshot, except string) []Action {
	var plan []Action
	for _, kind := range p.kinds {
		if kind == except {
			continue
		}
		if w, ok := lookupRole(s, kind, window.RoleAuxiliary); ok && w.Visibility == window.Visible {
			plan = append(plan, hideAction(kind))
		}
	}
	return plan
}

// ShowPrimary shows an existing primary window and hides any visible
// auxiliary window. A missing primary is a hard failure here;
// CreatePrimaryIfMissing is the recovering variant.
func (p *Policy) ShowPrimary(s Snapshot) ([]Action, error) {
	if _, ok := lookupRole(s, window.PrimaryLabel, window.RolePrimary); !ok {
		return nil, fmt.Errorf("show primary: %w", window.ErrNotFound)
	}
	plan := []Action{queryVisibilityAction(window.PrimaryLabel)}
	plan = append(plan, p.hideOtherSurfaces(s, "")...)
	return append(plan,
		showAction(window.PrimaryLabel),
		unminimizeAction(window.PrimaryLabel),
		focusAction(window.PrimaryLabel),
	), nil
}

// HidePrimary hides the primary window; a missing primary is a no-op.
func (p *Policy) HidePrimary(s Snapshot) []Action {
	if _, ok := lookupRole(s, window.PrimaryLabel, window.RolePrimary); !ok {
		return nil
	}
	return []Action{hideAction(window.PrimaryLabel)}
}

// CreatePrimaryIfMissing shows the primary when present, creates it otherwise.
func (p *Policy) CreatePrimaryIfMissing(s Snapshot) []Action {
	plan := p.hideOtherSurfaces(s, "")
	if _, ok := lookupRole(s, window.PrimaryLabel, window.RolePrimary); ok {
		return append(plan, showAction(window.PrimaryLabel))
	}
	return append(plan, createAction(window.PrimaryLabel, window.RolePrimary, "", p.cfg.Primary))
}

// ReopenPrimary rebuilds a destroyed primary under its original label. It is
// only meaningful when some kind uses the destroy-recreate idiom.
func (p *Policy) ReopenPrimary(s Snapshot) ([]Action, error) {
	if !p.hasLegacyIdiom() {
		return nil, fmt.Errorf("reopen primary: %w", ErrNoLegacyIdiom)
	}
	return p.restorePrimary(s, ""), nil
}

// CreatePopup opens a transient window. Labels are strict: a label held by a
// live window, or reserved for the primary or an auxiliary kind, is refused.
func (p *Policy) CreatePopup(s Snapshot, label, title, url string) ([]Action, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("create popup: label is required")
	}
	if p.reserved(label) {
		return nil, fmt.Errorf("create popup %q: %w: %w", label, window.ErrLabelInUse, ErrReservedLabel)
	}
	if _, ok := s.Lookup(label); ok {
		return nil, fmt.Errorf("create popup %q: %w", label, window.ErrLabelInUse)
	}

	chrome := p.cfg.Popup
	chrome.Title = title
	chrome.URL = url
	return []Action{createAction(label, window.RoleTransient, "popup", chrome)}, nil
}

// CloseWindow destroys a window by label without going through close
// interception.
func (p *Policy) CloseWindow(s Snapshot, label string) ([]Action, error) {
	if _, ok := s.Lookup(label); !ok {
		return nil, fmt.Errorf("close window %q: %w", label, window.ErrNotFound)
	}
	return []Action{destroyAction(label)}, nil
}

// CloseCurrentWindow destroys the caller's own window. A caller whose window
// is already gone gets success.
func (p *Policy) CloseCurrentWindow(s Snapshot, caller string) ([]Action, error) {
	if caller == "" {
		return nil, fmt.Errorf("close current window: %w", ErrUnknownCaller)
	}
	if _, ok := s.Lookup(caller); !ok {
		return nil, nil
	}
	return []Action{destroyAction(caller)}, nil
}

// ForceQuit arms exit and schedules termination after the grace delay.
func (p *Policy) ForceQuit() []Action {
	return []Action{
		{Op: OpArmExit},
		{Op: OpScheduleExit, Delay: p.cfg.ExitGrace},
	}
}

// CloseRequested is the close-intercept transition. The OS close has
// already been suppressed; this decides what the gesture means for the
// window's role. Unknown labels produce no actions.
func (p *Policy) CloseRequested(s Snapshot, label string) []Action {
	w, ok := s.Lookup(label)
	if !ok {
		return nil
	}

	switch w.Role {
	case window.RolePrimary:
		return []Action{{Op: OpArmExit}, {Op: OpTerminate}}

	case window.RoleAuxiliary:
		if plan, err := p.CloseAuxiliary(s, w.Kind); err == nil {
			return plan
		}
		// Kind dropped from the profiles: fall back to hide-show semantics.
		return append([]Action{hideAction(label)}, p.restorePrimary(s, label)...)

	default:
		var plan []Action
		if _, ok := lookupRole(s, window.PrimaryLabel, window.RolePrimary); ok {
			plan = append(plan, p.hideOtherSurfaces(s, "")...)
			plan = append(plan, showAction(window.PrimaryLabel), focusAction(window.PrimaryLabel))
		}
		return append(plan, scheduleCloseAction(label, p.cfg.PopupCloseDelay))
	}
}

// Terminal is the plan for "all windows closed" and "exit requested": exit
// unconditionally.
func (p *Policy) Terminal() []Action {
	return []Action{{Op: OpArmExit}, {Op: OpTerminate}}
}
