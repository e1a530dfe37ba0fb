package window

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/1broseidon/queuelip/internal/platform"
)

// Registry maps labels to live windows. It is the only source of truth for
// whether a window with a given identity exists.
//
// A Registry is not safe for concurrent use. The shell run-loop owns it and
// every read and write happens on that goroutine.
type Registry struct {
	sys         platform.WindowSystem
	windows     map[string]*Window
	byHandle    map[platform.WindowID]string
	generations map[string]int
	now         func() time.Time
}

// NewRegistry creates an empty registry backed by sys.
func NewRegistry(sys platform.WindowSystem) *Registry {
	return &Registry{
		sys:         sys,
		windows:     make(map[string]*Window),
		byHandle:    make(map[platform.WindowID]string),
		generations: make(map[string]int),
		now:         time.Now,
	}
}

// Lookup returns the live window registered under label.
func (r *Registry) Lookup(label string) (*Window, bool) {
	w, ok := r.windows[label]
	return w, ok
}

// LabelFor maps a platform handle back to its label.
func (r *Registry) LabelFor(handle platform.WindowID) (string, bool) {
	label, ok := r.byHandle[handle]
	return label, ok
}

// Create allocates an OS window and registers it under label, replacing any
// stale entry. The replaced OS window, if still alive, is released so that
// at most one window exists per label. If it cannot be released the new
// window is rolled back and the stale entry kept.
func (r *Registry) Create(label string, role Role, kind string, chrome platform.Chrome) (*Window, error) {
	if label == "" {
		return nil, &CreationError{Label: label, Err: fmt.Errorf("empty label")}
	}

	handle, err := r.sys.Create(chrome)
	if err != nil {
		return nil, &CreationError{Label: label, Err: err}
	}

	if stale, ok := r.windows[label]; ok {
		if err := r.sys.Destroy(stale.Handle); err != nil && !platform.IsUnknownWindow(err) {
			err = fmt.Errorf("release replaced window: %w", err)
			return nil, &CreationError{Label: label, Err: errors.Join(err, r.sys.Destroy(handle))}
		}
		delete(r.byHandle, stale.Handle)
	}

	r.generations[label]++
	w := &Window{
		Label:      label,
		Role:       role,
		Kind:       kind,
		Handle:     handle,
		Visibility: Visible,
		Chrome:     chrome,
		CreatedAt:  r.now(),
		Generation: r.generations[label],
	}
	r.windows[label] = w
	r.byHandle[handle] = label
	return w, nil
}

// Destroy removes the entry and releases the OS window. The entry is removed
// even if the window system fails to release the window.
func (r *Registry) Destroy(label string) error {
	w, ok := r.windows[label]
	if !ok {
		return fmt.Errorf("destroy %q: %w", label, ErrNotFound)
	}

	delete(r.windows, label)
	delete(r.byHandle, w.Handle)

	if err := r.sys.Destroy(w.Handle); err != nil && !platform.IsUnknownWindow(err) {
		return fmt.Errorf("destroy %q: %w", label, err)
	}
	return nil
}

// Forget drops the entry for a handle whose OS window is already gone.
func (r *Registry) Forget(handle platform.WindowID) (string, bool) {
	label, ok := r.byHandle[handle]
	if !ok {
		return "", false
	}
	delete(r.byHandle, handle)
	delete(r.windows, label)
	return label, true
}

// SetVisibility records the coordinator's view of a window's visibility.
func (r *Registry) SetVisibility(label string, v Visibility) {
	if w, ok := r.windows[label]; ok {
		w.Visibility = v
	}
}

// Len returns the number of live windows.
func (r *Registry) Len() int {
	return len(r.windows)
}

// Labels returns all live labels in sorted order.
func (r *Registry) Labels() []string {
	labels := make([]string, 0, len(r.windows))
	for label := range r.windows {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Infos returns snapshots of all live windows ordered by label.
func (r *Registry) Infos() []Info {
	labels := r.Labels()
	out := make([]Info, 0, len(labels))
	for _, label := range labels {
		out = append(out, r.windows[label].Info())
	}
	return out
}

// Handles returns the handle of every live window keyed by label.
func (r *Registry) Handles() map[string]platform.WindowID {
	out := make(map[string]platform.WindowID, len(r.windows))
	for label, w := range r.windows {
		out[label] = w.Handle
	}
	return out
}
