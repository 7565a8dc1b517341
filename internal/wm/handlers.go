package wm

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/xconform/internal/x11"
)

// handle applies one event to the window table and reports whether any record
// changed.
func (w *WM) handle(ev xgb.Event) bool {
	switch e := ev.(type) {
	case xproto.CreateNotifyEvent:
		return w.onCreate(e)
	case xproto.MapRequestEvent:
		return w.onMapRequest(e)
	case xproto.ConfigureRequestEvent:
		return w.onConfigureRequest(e)
	case xproto.ConfigureNotifyEvent:
		return w.onConfigureNotify(e)
	case xproto.MapNotifyEvent:
		return w.onMapNotify(e)
	case xproto.UnmapNotifyEvent:
		return w.onUnmapNotify(e)
	case xproto.DestroyNotifyEvent:
		return w.onDestroy(e)
	case xproto.PropertyNotifyEvent:
		return w.onProperty(e)
	case xproto.ClientMessageEvent:
		return w.onClientMessage(e)
	}
	return false
}

// expect checks a request the reactor depends on. BadWindow means the client
// destroyed the window first; its DestroyNotify is already queued. Any other
// rejection means the table no longer matches the server and stops the
// reactor.
func (w *WM) expect(op string, cookie interface{ Check() error }) bool {
	return w.conn.MustCheck(op, cookie, x11.BadWindow, x11.BadDrawable)
}

func (w *WM) touch(win *Window) {
	win.Generation++
}

func (w *WM) onCreate(e xproto.CreateNotifyEvent) bool {
	if e.Parent != w.conn.Root || e.OverrideRedirect || e.Window == w.check {
		return false
	}
	w.mu.Lock()
	_, isFrame := w.frames[e.Window]
	w.mu.Unlock()
	if isFrame {
		return false
	}

	win := newWindow(e.Window)
	win.X, win.Y = int(e.X), int(e.Y)
	win.Width, win.Height = int(e.Width), int(e.Height)
	win.Border = int(e.BorderWidth)

	if !w.expect("ChangeWindowAttributes", xproto.ChangeWindowAttributesChecked(
		w.conn.Conn(), e.Window, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange})) {
		return false
	}
	if geom, err := w.conn.Geometry(e.Window); err == nil {
		win.Depth = int(geom.Depth)
	}
	for _, atom := range w.trackedAtoms() {
		w.readProperty(win, atom)
	}

	w.mu.Lock()
	w.touch(win)
	w.windows[e.Window] = win
	w.mu.Unlock()
	w.log.Debug("window created", "window", e.Window)
	return true
}

func (w *WM) onMapRequest(e xproto.MapRequestEvent) bool {
	w.mu.Lock()
	win := w.windows[e.Window]
	w.mu.Unlock()
	if win == nil {
		// Not a top-level we track; honour the request anyway.
		w.expect("MapWindow", xproto.MapWindowChecked(w.conn.Conn(), e.Window))
		return false
	}

	if win.Frame == 0 && !w.frame(win) {
		return false
	}
	if !w.expect("MapWindow", xproto.MapWindowChecked(w.conn.Conn(), win.ID)) {
		return false
	}
	w.expect("MapWindow", xproto.MapWindowChecked(w.conn.Conn(), win.Frame))
	return false
}

// frame creates the decoration container for win and reparents the client
// into it at the frame's inner offset.
func (w *WM) frame(win *Window) bool {
	c := w.conn.Conn()
	ext := win.FrameExtents(w.cfg)

	id, err := xproto.NewWindowId(c)
	if err != nil {
		panic(err)
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	if !w.expect("CreateWindow", xproto.CreateWindowChecked(c,
		xproto.WindowClassCopyFromParent, id, w.conn.Root,
		int16(win.X), int16(win.Y),
		uint16(win.Width+ext.Left+ext.Right), uint16(win.Height+ext.Top+ext.Bottom), 0,
		xproto.WindowClassInputOutput, xproto.WindowClassCopyFromParent,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{w.conn.Screen.BlackPixel, mask})) {
		return false
	}

	w.mu.Lock()
	w.frames[id] = win.ID
	win.Frame = id
	w.mu.Unlock()

	if !w.expect("ChangeSaveSet", xproto.ChangeSaveSetChecked(c, xproto.SetModeInsert, win.ID)) {
		return false
	}
	if !w.expect("ReparentWindow", xproto.ReparentWindowChecked(c, win.ID, id, int16(ext.Left), int16(ext.Top))) {
		return false
	}
	w.publishExtents(win)
	return true
}

// relayout resizes the frame around the client after the client's size or
// decorations changed, and tells the client where it now is.
func (w *WM) relayout(win *Window) {
	ext := win.FrameExtents(w.cfg)
	c := w.conn.Conn()
	if win.Frame != 0 {
		w.expect("ConfigureWindow", xproto.ConfigureWindowChecked(c, win.Frame,
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
			[]uint32{uint32(win.Width + ext.Left + ext.Right), uint32(win.Height + ext.Top + ext.Bottom)}))
		w.expect("ConfigureWindow", xproto.ConfigureWindowChecked(c, win.ID,
			xproto.ConfigWindowX|xproto.ConfigWindowY,
			[]uint32{uint32(ext.Left), uint32(ext.Top)}))
	}
	w.publishExtents(win)
	w.sendSyntheticConfigure(win)
}

func (w *WM) publishExtents(win *Window) {
	ext := win.FrameExtents(w.cfg)
	err := ewmh.FrameExtentsSet(w.conn.XUtil, win.ID, &ewmh.FrameExtents{
		Left: ext.Left, Right: ext.Right, Top: ext.Top, Bottom: ext.Bottom,
	})
	if err != nil {
		w.log.Debug("set frame extents", "window", win.ID, "error", err)
	}
}

// sendSyntheticConfigure tells a framed client its root-relative position,
// which it cannot learn from the real ConfigureNotify once reparented.
func (w *WM) sendSyntheticConfigure(win *Window) {
	x, y := win.InnerOffset(w.cfg)
	ev := xproto.ConfigureNotifyEvent{
		Event:            win.ID,
		Window:           win.ID,
		AboveSibling:     0,
		X:                int16(win.X + x),
		Y:                int16(win.Y + y),
		Width:            uint16(win.Width),
		Height:           uint16(win.Height),
		BorderWidth:      uint16(win.Border),
		OverrideRedirect: false,
	}
	w.conn.CheckQuiet("SendEvent", xproto.SendEventChecked(w.conn.Conn(), false, win.ID,
		xproto.EventMaskStructureNotify, string(ev.Bytes())))
}

func (w *WM) onConfigureRequest(e xproto.ConfigureRequestEvent) bool {
	w.mu.Lock()
	win := w.windows[e.Window]
	w.mu.Unlock()
	c := w.conn.Conn()

	if win == nil || win.Frame == 0 {
		v := configureValues(e, w.stackSibling)
		w.expect("ConfigureWindow", xproto.ConfigureWindowChecked(c, e.Window, v.mask, v.values))
		return false
	}

	client, frame := splitConfigure(e, win.FrameExtents(w.cfg), Size{Width: win.Width, Height: win.Height}, w.stackSibling)
	if client.mask != 0 {
		w.expect("ConfigureWindow", xproto.ConfigureWindowChecked(c, win.ID, client.mask, client.values))
	}
	if frame.mask != 0 {
		w.expect("ConfigureWindow", xproto.ConfigureWindowChecked(c, win.Frame, frame.mask, frame.values))
	}
	if client.mask == 0 {
		// ICCCM: a request that changes nothing on the client still gets a
		// ConfigureNotify.
		w.sendSyntheticConfigure(win)
	}
	return false
}

// stackSibling maps a client named as a stacking sibling to the window that
// actually sits under the root: its frame once it is framed. Windows the WM
// does not track are dropped, since the server rejects siblings that do not
// share a parent.
func (w *WM) stackSibling(id xproto.Window) (xproto.Window, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if win := w.windows[id]; win != nil {
		if win.Frame != 0 {
			return win.Frame, true
		}
		return id, true
	}
	if _, ok := w.frames[id]; ok {
		return id, true
	}
	return 0, false
}

func (w *WM) onConfigureNotify(e xproto.ConfigureNotifyEvent) bool {
	w.mu.Lock()
	if client, ok := w.frames[e.Window]; ok {
		win := w.windows[client]
		if win == nil {
			w.mu.Unlock()
			return false
		}
		win.X, win.Y = int(e.X), int(e.Y)
		w.touch(win)
		w.mu.Unlock()
		w.sendSyntheticConfigure(win)
		return true
	}

	win := w.windows[e.Window]
	if win == nil {
		w.mu.Unlock()
		return false
	}
	resized := win.Width != int(e.Width) || win.Height != int(e.Height)
	win.Width, win.Height = int(e.Width), int(e.Height)
	win.Border = int(e.BorderWidth)
	if win.Frame == 0 {
		win.X, win.Y = int(e.X), int(e.Y)
	}
	w.touch(win)
	framed := win.Frame != 0
	w.mu.Unlock()

	if resized && framed {
		w.relayout(win)
	}
	return true
}

func (w *WM) onMapNotify(e xproto.MapNotifyEvent) bool {
	w.mu.Lock()
	win := w.windows[e.Window]
	if win == nil {
		w.mu.Unlock()
		return false
	}
	win.Mapped = true
	win.State = StateNormal
	win.iconify = false
	w.touch(win)
	w.mu.Unlock()

	w.writeState(win, StateNormal)
	w.writeNetState(win)
	w.publishClientList()
	return true
}

func (w *WM) onUnmapNotify(e xproto.UnmapNotifyEvent) bool {
	w.mu.Lock()
	win := w.windows[e.Window]
	if win == nil {
		w.mu.Unlock()
		return false
	}
	win.Mapped = false
	state := StateWithdrawn
	if win.iconify {
		state = StateIconic
	}
	win.State = state
	win.iconify = false
	frame := win.Frame
	w.touch(win)
	w.mu.Unlock()

	if frame != 0 {
		w.conn.CheckQuiet("UnmapWindow", xproto.UnmapWindowChecked(w.conn.Conn(), frame))
	}
	w.writeState(win, state)
	w.writeNetState(win)
	w.publishClientList()
	return true
}

func (w *WM) onDestroy(e xproto.DestroyNotifyEvent) bool {
	w.mu.Lock()
	win := w.windows[e.Window]
	if win == nil {
		w.mu.Unlock()
		return false
	}
	delete(w.windows, e.Window)
	delete(w.pongs, e.Window)
	frame := win.Frame
	if frame != 0 {
		delete(w.frames, frame)
	}
	w.mu.Unlock()

	if frame != 0 {
		w.conn.CheckQuiet("DestroyWindow", xproto.DestroyWindowChecked(w.conn.Conn(), frame))
	}
	w.publishClientList()
	w.log.Debug("window destroyed", "window", e.Window)
	return true
}

func (w *WM) onProperty(e xproto.PropertyNotifyEvent) bool {
	w.mu.Lock()
	win := w.windows[e.Window]
	w.mu.Unlock()
	if win == nil {
		return false
	}

	decorated := win.Decorations
	if !w.readProperty(win, e.Atom) {
		return false
	}
	w.mu.Lock()
	w.touch(win)
	w.mu.Unlock()
	if win.Decorations != decorated {
		w.relayout(win)
	}
	return true
}

// onClientMessage handles pongs and the EWMH/ICCCM state requests clients
// send to the root window.
func (w *WM) onClientMessage(e xproto.ClientMessageEvent) bool {
	a := w.conn.Atoms
	data := e.Data.Data32
	if e.Format != 32 || len(data) < 5 {
		return false
	}

	switch e.Type {
	case a.WmProtocols:
		if xproto.Atom(data[0]) != a.NetWmPing {
			return false
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		win := w.windows[xproto.Window(data[2])]
		if win == nil {
			return false
		}
		w.pongs[win.ID] = struct{}{}
		w.touch(win)
		return true

	case a.NetWmState:
		id := xproto.Window(e.Window)
		if xproto.Atom(data[1]) == a.NetWmStateHidden || xproto.Atom(data[2]) == a.NetWmStateHidden {
			w.changeHidden(id, data[0])
		}
		return w.changeNetState(id, data[0], xproto.Atom(data[1]), xproto.Atom(data[2]))

	case a.WmChangeState:
		if data[0] != icccm.StateIconic {
			return false
		}
		return w.iconify(xproto.Window(e.Window))

	case a.NetActiveWindow:
		return w.activate(xproto.Window(e.Window))
	}
	return false
}

// changeHidden maps _NET_WM_STATE_HIDDEN requests onto iconify and
// activate; the hidden flag itself is derived from the WM_STATE.
func (w *WM) changeHidden(id xproto.Window, action uint32) {
	w.mu.Lock()
	win := w.windows[id]
	w.mu.Unlock()
	if win == nil {
		return
	}
	hidden := win.State == StateIconic
	switch next := applyAction(action, hidden); {
	case next && !hidden:
		w.iconify(id)
	case !next && hidden:
		w.activate(id)
	}
}

func (w *WM) iconify(id xproto.Window) bool {
	w.mu.Lock()
	win := w.windows[id]
	if win == nil || !win.Mapped {
		w.mu.Unlock()
		return false
	}
	win.iconify = true
	w.mu.Unlock()
	w.expect("UnmapWindow", xproto.UnmapWindowChecked(w.conn.Conn(), id))
	return false
}

// activate maps an iconic window and gives it focus.
func (w *WM) activate(id xproto.Window) bool {
	w.mu.Lock()
	win := w.windows[id]
	w.mu.Unlock()
	if win == nil {
		return false
	}
	c := w.conn.Conn()
	if !win.Mapped {
		if win.Frame == 0 && !w.frame(win) {
			return false
		}
		w.expect("MapWindow", xproto.MapWindowChecked(c, win.ID))
		w.expect("MapWindow", xproto.MapWindowChecked(c, win.Frame))
	}
	target := win.ID
	if win.Frame != 0 {
		target = win.Frame
	}
	w.expect("ConfigureWindow", xproto.ConfigureWindowChecked(c, target,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove}))
	w.conn.CheckQuiet("SetInputFocus", xproto.SetInputFocusChecked(c,
		xproto.InputFocusPointerRoot, win.ID, xproto.TimeCurrentTime))
	if err := ewmh.ActiveWindowSet(w.conn.XUtil, win.ID); err != nil {
		w.log.Debug("set active window", "error", err)
	}
	return false
}

// EWMH _NET_WM_STATE actions.
const (
	stateRemove = 0
	stateAdd    = 1
	stateToggle = 2
)

func applyAction(action uint32, current bool) bool {
	switch action {
	case stateRemove:
		return false
	case stateAdd:
		return true
	case stateToggle:
		return !current
	}
	return current
}

func (w *WM) changeNetState(id xproto.Window, action uint32, first, second xproto.Atom) bool {
	a := w.conn.Atoms
	w.mu.Lock()
	win := w.windows[id]
	if win == nil {
		w.mu.Unlock()
		return false
	}
	changed := false
	for _, atom := range []xproto.Atom{first, second} {
		var flag *bool
		switch atom {
		case a.NetWmStateMaxHorz:
			flag = &win.MaximizedHorz
		case a.NetWmStateMaxVert:
			flag = &win.MaximizedVert
		case a.NetWmStateAbove:
			flag = &win.AlwaysOnTop
		default:
			continue
		}
		next := applyAction(action, *flag)
		if next != *flag {
			*flag = next
			changed = true
		}
	}
	if changed {
		w.touch(win)
	}
	w.mu.Unlock()

	if changed {
		w.writeNetState(win)
	}
	return changed
}

func (w *WM) writeState(win *Window, state State) {
	err := icccm.WmStateSet(w.conn.XUtil, win.ID, &icccm.WmState{State: uint(state)})
	if err != nil {
		w.log.Debug("set WM_STATE", "window", win.ID, "error", err)
	}
}

// writeNetState mirrors the record's flags into _NET_WM_STATE.
func (w *WM) writeNetState(win *Window) {
	w.mu.Lock()
	names := netStateNames(win)
	w.mu.Unlock()
	if err := ewmh.WmStateSet(w.conn.XUtil, win.ID, names); err != nil {
		w.log.Debug("set _NET_WM_STATE", "window", win.ID, "error", err)
	}
}

func netStateNames(win *Window) []string {
	names := []string{}
	if win.MaximizedHorz {
		names = append(names, "_NET_WM_STATE_MAXIMIZED_HORZ")
	}
	if win.MaximizedVert {
		names = append(names, "_NET_WM_STATE_MAXIMIZED_VERT")
	}
	if win.AlwaysOnTop {
		names = append(names, "_NET_WM_STATE_ABOVE")
	}
	if win.State == StateIconic {
		names = append(names, "_NET_WM_STATE_HIDDEN")
	}
	if win.Urgent {
		names = append(names, "_NET_WM_STATE_DEMANDS_ATTENTION")
	}
	return names
}

func (w *WM) publishClientList() {
	w.mu.Lock()
	var ids []xproto.Window
	for id, win := range w.windows {
		if win.Mapped {
			ids = append(ids, id)
		}
	}
	w.mu.Unlock()
	sortWindows(ids)
	if err := ewmh.ClientListSet(w.conn.XUtil, ids); err != nil {
		w.log.Debug("set client list", "error", err)
	}
}
