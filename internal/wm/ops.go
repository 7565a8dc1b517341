package wm

import (
	"context"
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xconform/internal/notify"
)

// Snapshot returns a copy of the record for id.
func (w *WM) Snapshot(id xproto.Window) (Window, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	win, ok := w.windows[id]
	if !ok {
		return Window{}, false
	}
	return win.clone(), true
}

// Windows returns copies of every record, ordered by id.
func (w *WM) Windows() []Window {
	w.mu.Lock()
	ids := make([]xproto.Window, 0, len(w.windows))
	for id := range w.windows {
		ids = append(ids, id)
	}
	sortWindows(ids)
	out := make([]Window, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.windows[id].clone())
	}
	w.mu.Unlock()
	return out
}

// Await blocks until cond holds for the record of id. A missing record is
// passed to cond as nil so callers can wait for creation or destruction.
func (w *WM) Await(ctx context.Context, id xproto.Window, cond func(*Window) bool) error {
	err := notify.Await(ctx, &w.changed, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		if win, ok := w.windows[id]; ok {
			cp := win.clone()
			return cond(&cp)
		}
		return cond(nil)
	})
	return w.waitErr(err)
}

func (w *WM) waitErr(err error) error {
	if errors.Is(err, notify.ErrClosed) {
		if stopped := w.Err(); stopped != nil {
			return fmt.Errorf("window manager stopped: %w", stopped)
		}
	}
	return err
}

// Delete asks the client to close id through WM_DELETE_WINDOW when it
// advertises the protocol, and destroys the window otherwise.
func (w *WM) Delete(id xproto.Window) error {
	win, ok := w.Snapshot(id)
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownWindow, uint32(id))
	}
	if win.Protocols&ProtoDeleteWindow != 0 {
		return w.conn.SendProtocol(id, w.conn.Atoms.WmDeleteWindow)
	}
	return w.conn.Check("DestroyWindow", xproto.DestroyWindowChecked(w.conn.Conn(), id))
}

// Ping sends _NET_WM_PING to id and waits for the pong. Each pong satisfies
// exactly one Ping.
func (w *WM) Ping(ctx context.Context, id xproto.Window) error {
	w.mu.Lock()
	delete(w.pongs, id)
	w.mu.Unlock()
	if err := w.conn.SendProtocol(id, w.conn.Atoms.NetWmPing, uint32(id)); err != nil {
		return err
	}
	err := notify.Await(ctx, &w.changed, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		if _, ok := w.pongs[id]; ok {
			delete(w.pongs, id)
			return true
		}
		return false
	})
	return w.waitErr(err)
}

// MoveFrame sets the outer position of id.
func (w *WM) MoveFrame(id xproto.Window, x, y int) error {
	win, ok := w.Snapshot(id)
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownWindow, uint32(id))
	}
	target := win.ID
	if win.Frame != 0 {
		target = win.Frame
	}
	return w.conn.Check("ConfigureWindow", xproto.ConfigureWindowChecked(w.conn.Conn(), target,
		xproto.ConfigWindowX|xproto.ConfigWindowY, []uint32{uint32(int32(x)), uint32(int32(y))}))
}

// Forget drops the record for id and destroys its frame. The client window
// itself is left alone; it is reparented back to the root through the save
// set.
func (w *WM) Forget(id xproto.Window) {
	w.mu.Lock()
	win, ok := w.windows[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	delete(w.windows, id)
	delete(w.pongs, id)
	frame := win.Frame
	if frame != 0 {
		delete(w.frames, frame)
	}
	w.mu.Unlock()

	if frame != 0 {
		w.conn.CheckQuiet("DestroyWindow", xproto.DestroyWindowChecked(w.conn.Conn(), frame))
	}
}
