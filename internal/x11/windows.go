package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xprop"
)

const (
	wmClassInstance = "queuelip"
	wmClassName     = "Queuelip"

	// URLProperty carries the opaque content reference of a window for the
	// content process that renders into it.
	URLProperty = "_QUEUELIP_URL"
	// EventProperty carries the latest context notification as
	// "<event>\n<payload>". Content processes watch it via PropertyNotify.
	EventProperty = "_QUEUELIP_EVENT"

	netWMStateRemove = 0
)

// WindowSpec describes a top-level window to create.
type WindowSpec struct {
	Title       string
	URL         string
	X, Y        int
	Width       int
	Height      int
	Decorations bool
	Resizable   bool
	AlwaysOnTop bool
}

// CreateWindow creates and configures a top-level window. The window is not
// mapped yet. Close requests are routed to us through WM_DELETE_WINDOW so the
// window manager never destroys it on its own.
func (c *Connection) CreateWindow(spec WindowSpec) (xproto.Window, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return 0, fmt.Errorf("invalid window size %dx%d", spec.Width, spec.Height)
	}

	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}

	// Value list order follows the bit positions of the mask (low to high).
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		int16(spec.X), int16(spec.Y),
		uint16(spec.Width), uint16(spec.Height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			screen.WhitePixel,
			xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange,
		},
	).Check()
	if err != nil {
		return 0, err
	}

	if err := c.configureWindow(wid, spec); err != nil {
		xproto.DestroyWindow(conn, wid)
		return 0, err
	}
	return wid, nil
}

func (c *Connection) configureWindow(wid xproto.Window, spec WindowSpec) error {
	if err := icccm.WmProtocolsSet(c.XUtil, wid, []string{"WM_DELETE_WINDOW"}); err != nil {
		return fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}
	if err := icccm.WmClassSet(c.XUtil, wid, &icccm.WmClass{
		Instance: wmClassInstance,
		Class:    wmClassName,
	}); err != nil {
		return fmt.Errorf("failed to set WM_CLASS: %w", err)
	}
	if spec.Title != "" {
		if err := ewmh.WmNameSet(c.XUtil, wid, spec.Title); err != nil {
			return fmt.Errorf("failed to set title: %w", err)
		}
		// Older window managers only read WM_NAME.
		icccm.WmNameSet(c.XUtil, wid, spec.Title)
	}

	hints := &icccm.NormalHints{
		Flags:  icccm.SizeHintPPosition | icccm.SizeHintPSize,
		X:      spec.X,
		Y:      spec.Y,
		Width:  uint(spec.Width),
		Height: uint(spec.Height),
	}
	if !spec.Resizable {
		hints.Flags |= icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize
		hints.MinWidth, hints.MaxWidth = uint(spec.Width), uint(spec.Width)
		hints.MinHeight, hints.MaxHeight = uint(spec.Height), uint(spec.Height)
	}
	if err := icccm.WmNormalHintsSet(c.XUtil, wid, hints); err != nil {
		return fmt.Errorf("failed to set size hints: %w", err)
	}

	if !spec.Decorations {
		if err := motif.WmHintsSet(c.XUtil, wid, &motif.Hints{
			Flags:      motif.HintDecorations,
			Decoration: motif.DecorationNone,
		}); err != nil {
			return fmt.Errorf("failed to disable decorations: %w", err)
		}
	}

	if spec.AlwaysOnTop {
		// Initial state is read by the window manager when the window is mapped.
		if err := ewmh.WmStateSet(c.XUtil, wid, []string{"_NET_WM_STATE_ABOVE"}); err != nil {
			return fmt.Errorf("failed to set always-on-top: %w", err)
		}
	}

	if spec.URL != "" {
		if err := xprop.ChangeProp(c.XUtil, wid, 8, URLProperty, "UTF8_STRING", []byte(spec.URL)); err != nil {
			return fmt.Errorf("failed to set content url: %w", err)
		}
	}
	return nil
}

// MapWindow makes a window visible.
func (c *Connection) MapWindow(wid xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), wid).Check()
}

// UnmapWindow hides a window without destroying it.
func (c *Connection) UnmapWindow(wid xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), wid).Check()
}

// DestroyWindow releases the window.
func (c *Connection) DestroyWindow(wid xproto.Window) error {
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), wid).Check()
}

// IsViewable reports whether the window is mapped and all its ancestors are.
func (c *Connection) IsViewable(wid xproto.Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), wid).Reply()
	if err != nil {
		return false, err
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// WindowExists reports whether the server still knows the window.
func (c *Connection) WindowExists(wid xproto.Window) bool {
	_, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(wid)).Reply()
	return err == nil
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// The message is built manually because the xgbutil ewmh request helpers
// panic on this library version.
func (c *Connection) FocusWindow(wid xproto.Window) error {
	const sourceIndication = 2 // pager/direct action
	return c.sendRootMessage(wid, "_NET_ACTIVE_WINDOW", []uint32{sourceIndication})
}

// Unminimize clears _NET_WM_STATE_HIDDEN and remaps the window, which takes
// an iconic window back to the normal state.
func (c *Connection) Unminimize(wid xproto.Window) error {
	hidden, err := c.Atom("_NET_WM_STATE_HIDDEN")
	if err != nil {
		return err
	}
	const sourceIndication = 2
	if err := c.sendRootMessage(wid, "_NET_WM_STATE", []uint32{netWMStateRemove, uint32(hidden), 0, sourceIndication}); err != nil {
		return err
	}
	return c.MapWindow(wid)
}

// SetEventProperty publishes a context notification on the window.
func (c *Connection) SetEventProperty(wid xproto.Window, event, payload string) error {
	return xprop.ChangeProp(c.XUtil, wid, 8, EventProperty, "UTF8_STRING", []byte(event+"\n"+payload))
}
