//go:build linux

package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/queuelip/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"go.uber.org/zap"
)

// X11System implements WindowSystem on top of an X11 connection.
type X11System struct {
	conn   *x11.Connection
	logger *zap.Logger
	events chan Event
	quit   chan struct{}

	wmProtocols xproto.Atom
	wmDeleteWin xproto.Atom
	closeOnce   sync.Once
}

var (
	_ WindowSystem = (*X11System)(nil)
	_ KeyBinder    = (*X11System)(nil)
)

// NewX11System opens a fresh X11 connection to display ("" for $DISPLAY).
func NewX11System(display string, logger *zap.Logger) (*X11System, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	protocols, err := conn.Atom("WM_PROTOCOLS")
	if err != nil {
		conn.Close()
		return nil, err
	}
	deleteWin, err := conn.Atom("WM_DELETE_WINDOW")
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &X11System{
		conn:        conn,
		logger:      logger,
		events:      make(chan Event, 64),
		quit:        make(chan struct{}),
		wmProtocols: protocols,
		wmDeleteWin: deleteWin,
	}, nil
}

// EventLoop runs the X11 event loop (blocking). When the connection is lost
// the process is asked to exit.
func (b *X11System) EventLoop() {
	b.conn.EventLoop()
	b.emit(Event{Type: EventExitRequested})
}

// BindKey grabs a global key sequence. fn runs on the event loop goroutine
// and must not block.
func (b *X11System) BindKey(sequence string, fn func()) error {
	return b.conn.BindKey(sequence, fn)
}

// Disconnect closes the underlying X11 connection.
func (b *X11System) Disconnect() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.conn.Close()
	})
}

func (b *X11System) Create(chrome Chrome) (WindowID, error) {
	spec := x11.WindowSpec{
		Title:       chrome.Title,
		URL:         chrome.URL,
		Width:       chrome.Width,
		Height:      chrome.Height,
		Decorations: chrome.Decorations,
		Resizable:   chrome.Resizable,
		AlwaysOnTop: chrome.AlwaysOnTop,
	}
	if chrome.Center {
		m := b.conn.PlacementMonitor()
		r := Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}.CenteredIn(chrome.Width, chrome.Height)
		spec.X, spec.Y = r.X, r.Y
	}

	wid, err := b.conn.CreateWindow(spec)
	if err != nil {
		return 0, err
	}
	b.attach(wid)

	if err := b.conn.MapWindow(wid); err != nil {
		xevent.Detach(b.conn.XUtil, wid)
		b.conn.DestroyWindow(wid)
		return 0, fmt.Errorf("failed to map window: %w", err)
	}
	return WindowID(wid), nil
}

// attach wires close interception and destroy tracking for a window we own.
func (b *X11System) attach(wid xproto.Window) {
	xevent.ClientMessageFun(func(_ *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		if ev.Type != b.wmProtocols || ev.Format != 32 {
			return
		}
		if xproto.Atom(ev.Data.Data32[0]) != b.wmDeleteWin {
			return
		}
		// Not destroying here is what suppresses the OS-level close.
		b.logger.Debug("close requested", zap.Uint32("window", uint32(wid)))
		b.emit(Event{Type: EventCloseRequested, Window: WindowID(wid)})
	}).Connect(b.conn.XUtil, wid)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		xevent.Detach(xu, ev.Window)
		b.emit(Event{Type: EventDestroyed, Window: WindowID(ev.Window)})
	}).Connect(b.conn.XUtil, wid)
}

func (b *X11System) Destroy(id WindowID) error {
	return b.conn.DestroyWindow(xproto.Window(id))
}

func (b *X11System) Show(id WindowID) error {
	return b.conn.MapWindow(xproto.Window(id))
}

func (b *X11System) Hide(id WindowID) error {
	return b.conn.UnmapWindow(xproto.Window(id))
}

func (b *X11System) Focus(id WindowID) error {
	return b.conn.FocusWindow(xproto.Window(id))
}

func (b *X11System) Unminimize(id WindowID) error {
	return b.conn.Unminimize(xproto.Window(id))
}

func (b *X11System) IsVisible(id WindowID) (bool, error) {
	return b.conn.IsViewable(xproto.Window(id))
}

func (b *X11System) Exists(id WindowID) bool {
	return b.conn.WindowExists(xproto.Window(id))
}

func (b *X11System) Notify(id WindowID, event, payload string) error {
	return b.conn.SetEventProperty(xproto.Window(id), event, payload)
}

func (b *X11System) Events() <-chan Event {
	return b.events
}

// emit runs on the X event goroutine. It blocks rather than dropping close
// requests; the coordinator drains the channel until Disconnect.
func (b *X11System) emit(ev Event) {
	select {
	case b.events <- ev:
	case <-b.quit:
	}
}
