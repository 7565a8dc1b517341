package x11backend

import (
	"context"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/toolkit/xtk"
	"github.com/1broseidon/xconform/internal/wm"
)

// window pairs a toolkit window with the window manager record of the same
// X window. It holds only the id; the record lives in the WM's table.
type window struct {
	loop *eventLoop
	tk   *xtk.Window
}

var (
	_ backend.Window        = (*window)(nil)
	_ backend.ToolkitWindow = (*xtk.Window)(nil)
)

func (w *window) xid() xproto.Window {
	return w.tk.ID()
}

func (w *window) manager() *wm.WM {
	return w.loop.inst.wm
}

func (w *window) ID() event.WindowID {
	return w.tk.EventID()
}

func (w *window) Toolkit() backend.ToolkitWindow {
	return w.tk
}

func (w *window) EventLoop() backend.EventLoop {
	return w.loop
}

func (w *window) Properties() backend.Properties {
	rec, ok := w.manager().Snapshot(w.xid())
	if !ok {
		return backend.Properties{}
	}
	return properties(&rec)
}

func (w *window) Await(ctx context.Context, cond func(backend.Properties) bool) error {
	return w.manager().Await(ctx, w.xid(), func(rec *wm.Window) bool {
		if rec == nil {
			return cond(backend.Properties{})
		}
		return cond(properties(rec))
	})
}

// SetBackgroundColor fills the client window through the harness
// connection, independent of the toolkit.
func (w *window) SetBackgroundColor(r, g, b uint8) error {
	conn := w.loop.inst.conn
	pixel := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if err := conn.Check("ChangeWindowAttributes", xproto.ChangeWindowAttributesChecked(
		conn.Conn(), w.xid(), xproto.CwBackPixel, []uint32{pixel})); err != nil {
		return err
	}
	return conn.Check("ClearArea", xproto.ClearAreaChecked(conn.Conn(), false, w.xid(), 0, 0, 0, 0))
}

func (w *window) Delete() error {
	w.loop.log.Info("deleting window", "window", w.xid())
	return w.manager().Delete(w.xid())
}

func (w *window) FrameExtents() backend.Extents {
	rec, ok := w.manager().Snapshot(w.xid())
	if !ok {
		return backend.Extents{}
	}
	return extents(rec.FrameExtents(w.manager().Config()))
}

func (w *window) SetOuterPosition(x, y int) error {
	w.loop.log.Info("setting outer position", "window", w.xid(), "x", x, "y", y)
	return w.manager().MoveFrame(w.xid(), x, y)
}

// SetInnerSize resizes the client the way a user dragging the frame would.
func (w *window) SetInnerSize(width, height int) error {
	w.loop.log.Info("setting inner size", "window", w.xid(), "width", width, "height", height)
	conn := w.loop.inst.conn
	return conn.Check("ConfigureWindow", xproto.ConfigureWindowChecked(conn.Conn(), w.xid(),
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight, []uint32{uint32(width), uint32(height)}))
}

func (w *window) Ping(ctx context.Context) error {
	w.loop.log.Info("pinging window", "window", w.xid())
	return w.manager().Ping(ctx, w.xid())
}

func (w *window) WmState() (backend.WmState, error) {
	st, err := icccm.WmStateGet(w.loop.inst.conn.XUtil, w.xid())
	if err != nil {
		return 0, fmt.Errorf("read WM_STATE: %w", err)
	}
	return backend.WmState(st.State), nil
}

// Close destroys the toolkit window and drops the WM record along with its
// frame.
func (w *window) Close() error {
	w.tk.Destroy()
	w.manager().Forget(w.xid())
	return nil
}

func properties(rec *wm.Window) backend.Properties {
	p := backend.Properties{
		Exists:               true,
		Mapped:               rec.Mapped,
		AlwaysOnTop:          rec.AlwaysOnTop,
		Decorations:          rec.Decorations,
		Attention:            rec.Urgent,
		X:                    rec.X,
		Y:                    rec.Y,
		Width:                rec.Width,
		Height:               rec.Height,
		MinSize:              size(rec.MinSize),
		MaxSize:              size(rec.MaxSize),
		Class:                rec.Class,
		Instance:             rec.Instance,
		SupportsTransparency: rec.SupportsTransparency(),
		Minimized:            rec.Minimized(),
		MinimizedOK:          true,
		Resizable:            rec.Resizable(),
		ResizableOK:          true,
	}
	p.Title, p.TitleOK = rec.Title()
	p.Maximized, p.MaximizedOK = rec.Maximized()
	if rec.Icon != nil {
		p.Icon = &backend.Icon{Width: rec.Icon.Width, Height: rec.Icon.Height, ARGB: rec.Icon.ARGB}
	}
	return p
}

func size(s *wm.Size) *backend.Size {
	if s == nil {
		return nil
	}
	return &backend.Size{Width: s.Width, Height: s.Height}
}

func extents(e wm.Extents) backend.Extents {
	return backend.Extents{Left: e.Left, Right: e.Right, Top: e.Top, Bottom: e.Bottom}
}
