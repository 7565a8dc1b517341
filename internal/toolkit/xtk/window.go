package xtk

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/xconform/internal/event"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width, Height int
}

// Icon is an RGBA window icon.
type Icon struct {
	Width, Height int
	RGBA          []byte
}

// Attributes describe a window at creation time.
type Attributes struct {
	Title       string
	Width       int
	Height      int
	Visible     bool
	Decorations bool
	Resizable   bool
	AlwaysOnTop bool
	Maximized   bool
	MinSize     *Size
	MaxSize     *Size
	Class       string
	Instance    string
	// Protocols are the WM_PROTOCOLS the window advertises.
	Protocols []string
	// IgnorePings leaves _NET_WM_PING unanswered.
	IgnorePings bool
}

// DefaultAttributes returns a visible, decorated, resizable 800x600 window.
func DefaultAttributes() Attributes {
	return Attributes{
		Title:       "xconform window",
		Width:       800,
		Height:      600,
		Visible:     true,
		Decorations: true,
		Resizable:   true,
		Class:       "Xconform",
		Instance:    "xconform",
		Protocols:   []string{"WM_DELETE_WINDOW", "_NET_WM_PING"},
	}
}

// Window is a toolkit top-level window.
type Window struct {
	app *App
	id  xproto.Window

	mu          sync.Mutex
	width       int
	height      int
	x, y        int
	placed      bool
	mapped      bool
	focused     bool
	resizable   bool
	minSize     *Size
	maxSize     *Size
	alwaysOnTop bool
	maximized   bool
	urgent      bool
	ignorePings bool
}

// CreateWindow creates a top-level window and maps it when attrs.Visible.
func (a *App) CreateWindow(attrs Attributes) (*Window, error) {
	c := a.conn.Conn()
	id, err := xproto.NewWindowId(c)
	if err != nil {
		return nil, fmt.Errorf("allocate window id: %w", err)
	}
	mask := uint32(xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease |
		xproto.EventMaskFocusChange | xproto.EventMaskStructureNotify |
		xproto.EventMaskPropertyChange | xproto.EventMaskExposure)
	err = a.conn.Check("CreateWindow", xproto.CreateWindowChecked(c,
		xproto.WindowClassCopyFromParent, id, a.conn.Root,
		0, 0, uint16(attrs.Width), uint16(attrs.Height), 0,
		xproto.WindowClassInputOutput, xproto.WindowClassCopyFromParent,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{a.conn.Screen.WhitePixel, mask}))
	if err != nil {
		return nil, err
	}

	w := &Window{
		app:         a,
		id:          id,
		width:       attrs.Width,
		height:      attrs.Height,
		resizable:   attrs.Resizable,
		minSize:     attrs.MinSize,
		maxSize:     attrs.MaxSize,
		alwaysOnTop: attrs.AlwaysOnTop,
		maximized:   attrs.Maximized,
		ignorePings: attrs.IgnorePings,
	}
	a.mu.Lock()
	a.windows[id] = w
	a.mu.Unlock()
	a.connect(w)

	xu := a.xu
	if len(attrs.Protocols) > 0 {
		if err := icccm.WmProtocolsSet(xu, id, attrs.Protocols); err != nil {
			return nil, fmt.Errorf("set WM_PROTOCOLS: %w", err)
		}
	}
	if err := icccm.WmClassSet(xu, id, &icccm.WmClass{Instance: attrs.Instance, Class: attrs.Class}); err != nil {
		return nil, fmt.Errorf("set WM_CLASS: %w", err)
	}
	if err := icccm.WmHintsSet(xu, id, &icccm.Hints{Flags: icccm.HintInput, Input: 1}); err != nil {
		return nil, fmt.Errorf("set WM_HINTS: %w", err)
	}
	if err := w.SetTitle(attrs.Title); err != nil {
		return nil, err
	}
	if !attrs.Decorations {
		if err := w.SetDecorations(false); err != nil {
			return nil, err
		}
	}
	if err := w.writeNormalHints(); err != nil {
		return nil, err
	}
	if err := w.writeInitialState(); err != nil {
		return nil, err
	}
	if attrs.Visible {
		if err := w.SetVisible(true); err != nil {
			return nil, err
		}
	}
	a.log.Debug("window created", "window", id)
	return w, nil
}

// ID returns the X window id.
func (w *Window) ID() xproto.Window {
	return w.id
}

// EventID returns the id used in events addressed to this window.
func (w *Window) EventID() event.WindowID {
	return event.WindowID(w.id)
}

// Size returns the last inner size the toolkit learned of.
func (w *Window) Size() Size {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Size{Width: w.width, Height: w.height}
}

// Position returns the last outer position the toolkit learned of. ok is
// false until the first ConfigureNotify.
func (w *Window) Position() (x, y int, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y, w.placed
}

// Mapped reports whether the toolkit has seen the window mapped.
func (w *Window) Mapped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mapped
}

// SetVisible maps or unmaps the window.
func (w *Window) SetVisible(visible bool) error {
	c := w.app.conn.Conn()
	if visible {
		return w.app.conn.Check("MapWindow", xproto.MapWindowChecked(c, w.id))
	}
	return w.app.conn.Check("UnmapWindow", xproto.UnmapWindowChecked(c, w.id))
}

// SetTitle sets both WM_NAME and _NET_WM_NAME.
func (w *Window) SetTitle(title string) error {
	if err := icccm.WmNameSet(w.app.xu, w.id, title); err != nil {
		return fmt.Errorf("set WM_NAME: %w", err)
	}
	if err := ewmh.WmNameSet(w.app.xu, w.id, title); err != nil {
		return fmt.Errorf("set _NET_WM_NAME: %w", err)
	}
	return nil
}

// SetDecorations asks the window manager to draw or drop decorations via
// _MOTIF_WM_HINTS.
func (w *Window) SetDecorations(on bool) error {
	decor := uint(motif.DecorationNone)
	if on {
		decor = motif.DecorationAll
	}
	err := motif.WmHintsSet(w.app.xu, w.id, &motif.Hints{
		Flags:      motif.HintDecorations,
		Decoration: decor,
	})
	if err != nil {
		return fmt.Errorf("set _MOTIF_WM_HINTS: %w", err)
	}
	return nil
}

// SetInnerSize requests a new client size.
func (w *Window) SetInnerSize(width, height int) error {
	w.mu.Lock()
	resizable := w.resizable
	w.mu.Unlock()
	if !resizable {
		// A fixed-size window keeps its bounds pinned to the new size.
		w.mu.Lock()
		w.width, w.height = width, height
		w.mu.Unlock()
		if err := w.writeNormalHints(); err != nil {
			return err
		}
	}
	return w.app.conn.Check("ConfigureWindow", xproto.ConfigureWindowChecked(w.app.conn.Conn(), w.id,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight, []uint32{uint32(width), uint32(height)}))
}

// SetOuterPosition requests a new position for the window's outer frame.
func (w *Window) SetOuterPosition(x, y int) error {
	return w.app.conn.Check("ConfigureWindow", xproto.ConfigureWindowChecked(w.app.conn.Conn(), w.id,
		xproto.ConfigWindowX|xproto.ConfigWindowY, []uint32{uint32(int32(x)), uint32(int32(y))}))
}

// SetMinimized iconifies the window, or maps it again to restore it.
func (w *Window) SetMinimized(minimized bool) error {
	if minimized {
		return w.app.conn.RequestIconify(w.id)
	}
	return w.SetVisible(true)
}

// SetMaximized toggles both maximized states.
func (w *Window) SetMaximized(maximized bool) error {
	w.mu.Lock()
	w.maximized = maximized
	w.mu.Unlock()
	a := w.app.conn.Atoms
	return w.changeState(maximized, a.NetWmStateMaxHorz, a.NetWmStateMaxVert)
}

// SetAlwaysOnTop toggles _NET_WM_STATE_ABOVE.
func (w *Window) SetAlwaysOnTop(on bool) error {
	w.mu.Lock()
	w.alwaysOnTop = on
	w.mu.Unlock()
	return w.changeState(on, w.app.conn.Atoms.NetWmStateAbove, 0)
}

// changeState asks the window manager for a state change once the window is
// mapped; before that the initial state property is rewritten instead.
func (w *Window) changeState(on bool, first, second xproto.Atom) error {
	w.mu.Lock()
	mapped := w.mapped
	w.mu.Unlock()
	if !mapped {
		return w.writeInitialState()
	}
	action := uint32(0)
	if on {
		action = 1
	}
	return w.app.conn.RequestState(w.id, action, first, second)
}

func (w *Window) writeInitialState() error {
	w.mu.Lock()
	var names []string
	if w.maximized {
		names = append(names, "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT")
	}
	if w.alwaysOnTop {
		names = append(names, "_NET_WM_STATE_ABOVE")
	}
	w.mu.Unlock()
	if err := ewmh.WmStateSet(w.app.xu, w.id, names); err != nil {
		return fmt.Errorf("set _NET_WM_STATE: %w", err)
	}
	return nil
}

// SetMinSize sets or clears the minimum inner size.
func (w *Window) SetMinSize(size *Size) error {
	w.mu.Lock()
	w.minSize = size
	w.mu.Unlock()
	return w.writeNormalHints()
}

// SetMaxSize sets or clears the maximum inner size.
func (w *Window) SetMaxSize(size *Size) error {
	w.mu.Lock()
	w.maxSize = size
	w.mu.Unlock()
	return w.writeNormalHints()
}

// SetResizable pins the size bounds to the current size when false.
func (w *Window) SetResizable(resizable bool) error {
	w.mu.Lock()
	w.resizable = resizable
	w.mu.Unlock()
	return w.writeNormalHints()
}

func (w *Window) writeNormalHints() error {
	w.mu.Lock()
	hints := normalHints(w.resizable, Size{Width: w.width, Height: w.height}, w.minSize, w.maxSize)
	w.mu.Unlock()
	if err := icccm.WmNormalHintsSet(w.app.xu, w.id, hints); err != nil {
		return fmt.Errorf("set WM_NORMAL_HINTS: %w", err)
	}
	return nil
}

// normalHints builds WM_NORMAL_HINTS. A non-resizable window advertises its
// current size as both bounds.
func normalHints(resizable bool, current Size, minSize, maxSize *Size) *icccm.NormalHints {
	if !resizable {
		minSize, maxSize = &current, &current
	}
	hints := &icccm.NormalHints{}
	if minSize != nil {
		hints.Flags |= icccm.SizeHintPMinSize
		hints.MinWidth, hints.MinHeight = uint(minSize.Width), uint(minSize.Height)
	}
	if maxSize != nil {
		hints.Flags |= icccm.SizeHintPMaxSize
		hints.MaxWidth, hints.MaxHeight = uint(maxSize.Width), uint(maxSize.Height)
	}
	return hints
}

// RequestAttention sets or clears the WM_HINTS urgency flag.
func (w *Window) RequestAttention(urgent bool) error {
	w.mu.Lock()
	w.urgent = urgent
	w.mu.Unlock()
	hints := &icccm.Hints{Flags: icccm.HintInput, Input: 1}
	if urgent {
		hints.Flags |= icccm.HintUrgency
	}
	if err := icccm.WmHintsSet(w.app.xu, w.id, hints); err != nil {
		return fmt.Errorf("set WM_HINTS: %w", err)
	}
	return nil
}

// SetIcon sets _NET_WM_ICON, or removes it when icon is nil.
func (w *Window) SetIcon(icon *Icon) error {
	if icon == nil {
		err := w.app.conn.Check("DeleteProperty", xproto.DeletePropertyChecked(
			w.app.conn.Conn(), w.id, w.app.conn.Atoms.NetWmIcon))
		return err
	}
	if err := ewmh.WmIconSet(w.app.xu, w.id, []ewmh.WmIcon{toWmIcon(icon)}); err != nil {
		return fmt.Errorf("set _NET_WM_ICON: %w", err)
	}
	return nil
}

// toWmIcon converts RGBA bytes to the ARGB cardinals of _NET_WM_ICON.
func toWmIcon(icon *Icon) ewmh.WmIcon {
	n := icon.Width * icon.Height
	data := make([]uint, n)
	for i := 0; i < n && 4*i+3 < len(icon.RGBA); i++ {
		r, g, b, a := uint(icon.RGBA[4*i]), uint(icon.RGBA[4*i+1]), uint(icon.RGBA[4*i+2]), uint(icon.RGBA[4*i+3])
		data[i] = a<<24 | r<<16 | g<<8 | b
	}
	return ewmh.WmIcon{Width: uint(icon.Width), Height: uint(icon.Height), Data: data}
}

// Destroy destroys the window. Errors are logged; the window may already be
// gone.
func (w *Window) Destroy() {
	w.app.conn.CheckQuiet("DestroyWindow", xproto.DestroyWindowChecked(w.app.conn.Conn(), w.id))
}

func (a *App) forget(id xproto.Window) {
	a.mu.Lock()
	delete(a.windows, id)
	a.mu.Unlock()
	xevent.Detach(a.xu, id)
}
