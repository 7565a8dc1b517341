package x11

import (
	"github.com/BurntSushi/xgb/xproto"
)

// Client message source indication for EWMH requests.
const sourceIndication = 1

// SendClientMessage delivers a 32-bit format ClientMessage of type typ to
// target, addressed as window. The message is built by hand rather than with
// the ewmh request helpers because several of them type-assert their
// arguments incorrectly on this xgbutil version.
func (c *Connection) SendClientMessage(target, window xproto.Window, typ xproto.Atom, mask uint32, data ...uint32) error {
	words := make([]uint32, 5)
	copy(words, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: window,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(words),
	}
	return c.Check("SendEvent", xproto.SendEventChecked(
		c.Conn(),
		false,
		target,
		mask,
		string(ev.Bytes()),
	))
}

// SendProtocol sends a WM_PROTOCOLS message carrying protocol to the client
// window itself, as ICCCM requires for WM_DELETE_WINDOW and _NET_WM_PING.
func (c *Connection) SendProtocol(win xproto.Window, protocol xproto.Atom, extra ...uint32) error {
	data := append([]uint32{uint32(protocol), uint32(xproto.TimeCurrentTime)}, extra...)
	return c.SendClientMessage(win, win, c.Atoms.WmProtocols, xproto.EventMaskNoEvent, data...)
}

// SendRootRequest sends a client message to the root window on behalf of win,
// the way pagers request state changes from the window manager.
func (c *Connection) SendRootRequest(win xproto.Window, typ xproto.Atom, data ...uint32) error {
	return c.SendClientMessage(c.Root, win, typ,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify, data...)
}

// RequestActivate asks the window manager to focus and raise win.
func (c *Connection) RequestActivate(win xproto.Window) error {
	return c.SendRootRequest(win, c.Atoms.NetActiveWindow, sourceIndication, uint32(xproto.TimeCurrentTime))
}

// RequestState asks the window manager to add (1), remove (0) or toggle (2)
// up to two _NET_WM_STATE atoms on win.
func (c *Connection) RequestState(win xproto.Window, action uint32, first, second xproto.Atom) error {
	return c.SendRootRequest(win, c.Atoms.NetWmState, action, uint32(first), uint32(second), sourceIndication)
}

// RequestIconify asks the window manager to iconify win via WM_CHANGE_STATE.
func (c *Connection) RequestIconify(win xproto.Window) error {
	return c.SendRootRequest(win, c.Atoms.WmChangeState, 3)
}
