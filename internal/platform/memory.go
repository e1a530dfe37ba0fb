package platform

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Notification is a context notification recorded by MemorySystem.
type Notification struct {
	Event   string
	Payload string
}

// MemoryWindow is the observable state of a window owned by MemorySystem.
type MemoryWindow struct {
	ID            WindowID
	Chrome        Chrome
	Bounds        Rect
	Visible       bool
	Minimized     bool
	Focused       bool
	Notifications []Notification
}

// MemorySystem is a headless WindowSystem. The daemon uses it when no
// display is available and tests use it to drive the coordinator.
type MemorySystem struct {
	mu      sync.Mutex
	nextID  WindowID
	windows map[WindowID]*MemoryWindow
	screen  Rect
	events  chan Event

	// Failure injection, keyed by operation name ("create", "show",
	// "focus", "unminimize", "visible", "notify", "destroy").
	failures map[string]error

	keys map[string][]func()
}

var (
	_ WindowSystem = (*MemorySystem)(nil)
	_ KeyBinder    = (*MemorySystem)(nil)
)

// NewMemorySystem creates an empty in-memory window system.
func NewMemorySystem() *MemorySystem {
	return &MemorySystem{
		nextID:   1,
		windows:  make(map[WindowID]*MemoryWindow),
		screen:   Rect{Width: 1920, Height: 1080},
		events:   make(chan Event, 64),
		failures: make(map[string]error),
		keys:     make(map[string][]func()),
	}
}

// FailNext makes every subsequent call of op fail with err until cleared
// with a nil error.
func (m *MemorySystem) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *MemorySystem) failure(op string) error {
	if err, ok := m.failures[op]; ok {
		return err
	}
	return nil
}

func (m *MemorySystem) Create(chrome Chrome) (WindowID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("create"); err != nil {
		return 0, err
	}
	if chrome.Width <= 0 || chrome.Height <= 0 {
		return 0, fmt.Errorf("invalid window size %dx%d", chrome.Width, chrome.Height)
	}

	id := m.nextID
	m.nextID++

	bounds := Rect{Width: chrome.Width, Height: chrome.Height}
	if chrome.Center {
		bounds = m.screen.CenteredIn(chrome.Width, chrome.Height)
	}

	for _, w := range m.windows {
		w.Focused = false
	}
	m.windows[id] = &MemoryWindow{
		ID:      id,
		Chrome:  chrome,
		Bounds:  bounds,
		Visible: true,
		Focused: true,
	}
	return id, nil
}

func (m *MemorySystem) Destroy(id WindowID) error {
	m.mu.Lock()
	if err := m.failure("destroy"); err != nil {
		m.mu.Unlock()
		return err
	}
	if _, ok := m.windows[id]; !ok {
		m.mu.Unlock()
		return ErrUnknownWindow
	}
	delete(m.windows, id)
	m.mu.Unlock()

	m.emit(Event{Type: EventDestroyed, Window: id})
	return nil
}

func (m *MemorySystem) Show(id WindowID) error {
	return m.update(id, "show", func(w *MemoryWindow) { w.Visible = true })
}

func (m *MemorySystem) Hide(id WindowID) error {
	return m.update(id, "hide", func(w *MemoryWindow) {
		w.Visible = false
		w.Focused = false
	})
}

func (m *MemorySystem) Focus(id WindowID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("focus"); err != nil {
		return err
	}
	target, ok := m.windows[id]
	if !ok {
		return ErrUnknownWindow
	}
	for _, w := range m.windows {
		w.Focused = false
	}
	target.Focused = true
	return nil
}

func (m *MemorySystem) Unminimize(id WindowID) error {
	return m.update(id, "unminimize", func(w *MemoryWindow) { w.Minimized = false })
}

// Minimize iconifies a window, as a user would from the title bar.
func (m *MemorySystem) Minimize(id WindowID) error {
	return m.update(id, "minimize", func(w *MemoryWindow) { w.Minimized = true })
}

func (m *MemorySystem) IsVisible(id WindowID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("visible"); err != nil {
		return false, err
	}
	w, ok := m.windows[id]
	if !ok {
		return false, ErrUnknownWindow
	}
	return w.Visible, nil
}

func (m *MemorySystem) Exists(id WindowID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.windows[id]
	return ok
}

func (m *MemorySystem) Notify(id WindowID, event, payload string) error {
	return m.update(id, "notify", func(w *MemoryWindow) {
		w.Notifications = append(w.Notifications, Notification{Event: event, Payload: payload})
	})
}

func (m *MemorySystem) Events() <-chan Event {
	return m.events
}

// RequestClose simulates a user close gesture. The window stays open; only
// the event is delivered.
func (m *MemorySystem) RequestClose(id WindowID) error {
	if !m.Exists(id) {
		return ErrUnknownWindow
	}
	m.emit(Event{Type: EventCloseRequested, Window: id})
	return nil
}

// RequestExit simulates the desktop session asking the process to quit.
func (m *MemorySystem) RequestExit() {
	m.emit(Event{Type: EventExitRequested})
}

// Vanish removes a window without emitting any event, as when an external
// window manager kills it behind our back.
func (m *MemorySystem) Vanish(id WindowID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, id)
}

// BindKey records fn under sequence; PressKey fires it.
func (m *MemorySystem) BindKey(sequence string, fn func()) error {
	if sequence == "" {
		return fmt.Errorf("empty key sequence")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[sequence] = append(m.keys[sequence], fn)
	return nil
}

// PressKey simulates a key press and reports whether anything was bound.
func (m *MemorySystem) PressKey(sequence string) bool {
	m.mu.Lock()
	fns := append([]func(){}, m.keys[sequence]...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns) > 0
}

// Window returns a copy of the window state.
func (m *MemorySystem) Window(id WindowID) (MemoryWindow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[id]
	if !ok {
		return MemoryWindow{}, false
	}
	cp := *w
	cp.Notifications = append([]Notification(nil), w.Notifications...)
	return cp, true
}

// Windows returns copies of all live windows ordered by id.
func (m *MemorySystem) Windows() []MemoryWindow {
	m.mu.Lock()
	ids := make([]WindowID, 0, len(m.windows))
	for id := range m.windows {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]MemoryWindow, 0, len(ids))
	for _, id := range ids {
		if w, ok := m.Window(id); ok {
			out = append(out, w)
		}
	}
	return out
}

func (m *MemorySystem) update(id WindowID, op string, fn func(*MemoryWindow)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(op); err != nil {
		return err
	}
	w, ok := m.windows[id]
	if !ok {
		return ErrUnknownWindow
	}
	fn(w)
	return nil
}

// emit never blocks; the buffer is large enough for tests and the headless
// daemon, and a dropped destroy event is repaired by the reconciler.
func (m *MemorySystem) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

// IsUnknownWindow reports whether err came from addressing a window the
// backend does not own.
func IsUnknownWindow(err error) bool {
	return errors.Is(err, ErrUnknownWindow)
}
