package xtk

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/keyboard"
)

// connect attaches the per-window event callbacks.
func (a *App) connect(w *Window) {
	xu := a.xu
	id := w.id

	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, e xevent.ConfigureNotifyEvent) {
		a.onConfigure(w, e.ConfigureNotifyEvent)
	}).Connect(xu, id)
	xevent.MapNotifyFun(func(_ *xgbutil.XUtil, _ xevent.MapNotifyEvent) {
		w.mu.Lock()
		w.mapped = true
		w.mu.Unlock()
	}).Connect(xu, id)
	xevent.UnmapNotifyFun(func(_ *xgbutil.XUtil, _ xevent.UnmapNotifyEvent) {
		w.mu.Lock()
		w.mapped = false
		w.mu.Unlock()
	}).Connect(xu, id)
	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, e xevent.DestroyNotifyEvent) {
		if e.Window != id {
			return
		}
		a.forget(id)
		a.emit(event.Destroyed{Window: w.EventID()})
	}).Connect(xu, id)
	xevent.ClientMessageFun(func(_ *xgbutil.XUtil, e xevent.ClientMessageEvent) {
		a.onClientMessage(w, e.ClientMessageEvent)
	}).Connect(xu, id)
	xevent.FocusInFun(func(_ *xgbutil.XUtil, e xevent.FocusInEvent) {
		a.onFocus(w, e.Detail, true)
	}).Connect(xu, id)
	xevent.FocusOutFun(func(_ *xgbutil.XUtil, e xevent.FocusOutEvent) {
		a.onFocus(w, e.Detail, false)
	}).Connect(xu, id)
	xevent.KeyPressFun(func(_ *xgbutil.XUtil, e xevent.KeyPressEvent) {
		a.onKey(w, e.Detail, e.State, event.Pressed)
	}).Connect(xu, id)
	xevent.KeyReleaseFun(func(_ *xgbutil.XUtil, e xevent.KeyReleaseEvent) {
		a.onKey(w, e.Detail, e.State, event.Released)
	}).Connect(xu, id)
}

// onConfigure reports size and outer position changes. Once the window
// manager has reparented the window, the event coordinates are relative to
// the frame, so the position is always taken from the server.
func (a *App) onConfigure(w *Window, e *xproto.ConfigureNotifyEvent) {
	w.mu.Lock()
	x, y := w.x, w.y
	w.mu.Unlock()
	if reply, err := xproto.TranslateCoordinates(a.conn.Conn(), w.id, a.conn.Root, 0, 0).Reply(); err == nil {
		x, y = int(reply.DstX)-int(e.BorderWidth), int(reply.DstY)-int(e.BorderWidth)
		if ext, err := ewmh.FrameExtentsGet(a.xu, w.id); err == nil {
			x, y = x-ext.Left, y-ext.Top
		}
	}

	w.mu.Lock()
	resized := w.width != int(e.Width) || w.height != int(e.Height)
	moved := !w.placed || w.x != x || w.y != y
	w.width, w.height = int(e.Width), int(e.Height)
	w.x, w.y, w.placed = x, y, true
	w.mu.Unlock()

	if resized {
		a.emit(event.Resized{Window: w.EventID(), Width: int(e.Width), Height: int(e.Height)})
	}
	if moved {
		a.emit(event.Moved{Window: w.EventID(), X: x, Y: y})
	}
}

func (a *App) onClientMessage(w *Window, e *xproto.ClientMessageEvent) {
	atoms := a.conn.Atoms
	if e.Type != atoms.WmProtocols || e.Format != 32 {
		return
	}
	data := e.Data.Data32
	switch xproto.Atom(data[0]) {
	case atoms.WmDeleteWindow:
		a.emit(event.CloseRequested{Window: w.EventID()})
	case atoms.NetWmPing:
		if w.ignorePings {
			a.log.Debug("ignoring ping", "window", w.id)
			return
		}
		// The pong goes back to the root window with the window field
		// rewritten; data[2] keeps naming the pinged client.
		err := a.conn.SendClientMessage(a.conn.Root, a.conn.Root, atoms.WmProtocols,
			xproto.EventMaskSubstructureNotify|xproto.EventMaskSubstructureRedirect, data...)
		if err != nil {
			a.log.Warn("answer ping", "window", w.id, "error", err)
		}
	}
}

func (a *App) onFocus(w *Window, detail byte, focused bool) {
	if detail == xproto.NotifyDetailPointer || detail == xproto.NotifyDetailInferior {
		return
	}
	w.mu.Lock()
	changed := w.focused != focused
	w.focused = focused
	w.mu.Unlock()
	if !changed {
		return
	}
	a.emit(event.Focused{Window: w.EventID(), Focused: focused})

	if !focused {
		a.mu.Lock()
		modsChanged := a.keys.reset()
		a.mu.Unlock()
		if modsChanged {
			a.emit(event.ModifiersChanged{Window: w.EventID()})
		}
	}
}

func (a *App) columns(kc xproto.Keycode) [keyboard.Columns]keyboard.Keysym {
	var syms [keyboard.Columns]keyboard.Keysym
	keyMap := keybind.KeyMapGet(a.xu)
	if keyMap == nil {
		return syms
	}
	for col := range syms {
		if col >= int(keyMap.KeysymsPerKeycode) {
			break
		}
		syms[col] = keyboard.Keysym(keybind.KeysymGetWithMap(a.xu, keyMap, kc, byte(col)))
	}
	return syms
}

// onKey emits the KeyboardInput for a core key event, followed by a
// ModifiersChanged when the key changed the active modifiers.
func (a *App) onKey(w *Window, kc xproto.Keycode, state uint16, st event.State) {
	ks, base := translateKey(a.columns(kc), state)
	physical := keyboard.FromKeycode(uint8(kc))

	a.mu.Lock()
	var repeat, changed bool
	if st == event.Pressed {
		repeat, changed = a.keys.press(kc, modifierOf(base))
	} else {
		changed = a.keys.release(kc)
	}
	mods := a.keys.mods
	a.mu.Unlock()

	a.emit(event.KeyboardInput{
		Window:              w.EventID(),
		Physical:            physical,
		Logical:             logicalKey(ks),
		Text:                keyText(ks),
		Location:            physical.Location(),
		State:               st,
		Repeat:              repeat,
		KeyWithoutModifiers: logicalKey(base),
	})
	if changed {
		a.emit(event.ModifiersChanged{Window: w.EventID(), Modifiers: mods})
	}
}
