package conformance

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/backend"
	"github.com/1broseidon/xconform/internal/runner"
	"github.com/1broseidon/xconform/internal/toolkit/xtk"
)

func deleteWindow(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)

	t.NoError(w.Delete(), "delete")
	ev, err := backend.WindowCloseRequested(ctx, el)
	t.NoError(err, "await close request")
	assert.Equal(t, w.ID(), ev.Window)
	assert.True(t, w.Properties().Exists, "a close request leaves the window in place")
}

func deleteDestroys(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	attrs := xtk.DefaultAttributes()
	attrs.Protocols = []string{"_NET_WM_PING"}
	w := newWindow(t, el, attrs)
	t.NoError(backend.Mapped(ctx, w, true), "await mapped")

	t.NoError(w.Delete(), "delete")
	t.NoError(backend.Gone(ctx, w), "await window gone")
	assert.False(t, w.Properties().Exists)
}

func destroyed(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)
	id := w.ID()
	t.NoError(w.Close(), "close window")

	ev, err := backend.WindowDestroyed(ctx, el)
	t.NoError(err, "await destroyed")
	assert.Equal(t, id, ev.Window)
	t.NoError(backend.Gone(ctx, w), "await window gone")
}

func ping(t *runner.T) {
	el := newEventLoop(t)
	w := mappedWindow(t, el)
	t.NoError(w.Ping(t.Context()), "ping")
	// A second ping must not be satisfied by the first pong.
	t.NoError(w.Ping(t.Context()), "second ping")
}

// unansweredPingWait bounds the wait for a pong that never comes.
const unansweredPingWait = 500 * time.Millisecond

func pingUnanswered(t *runner.T) {
	el := newEventLoop(t)
	attrs := xtk.DefaultAttributes()
	attrs.IgnorePings = true
	w := newWindow(t, el, attrs)
	t.NoError(backend.Mapped(t.Context(), w, true), "await mapped")

	ctx, cancel := context.WithTimeout(t.Context(), unansweredPingWait)
	defer cancel()
	err := w.Ping(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, w.Properties().Exists, "the window is still managed")
}

func wmState(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)
	tk := w.Toolkit()

	p := w.Properties()
	require.True(t, p.MinimizedOK)
	assert.False(t, p.Minimized)
	assertWmState(t, w, backend.WmStateNormal)

	t.NoError(tk.SetMinimized(true), "iconify")
	t.NoError(backend.Minimized(ctx, w, true), "await iconic")
	assert.False(t, w.Properties().Mapped, "iconic windows are unmapped")
	assertWmState(t, w, backend.WmStateIconic)

	t.NoError(tk.SetMinimized(false), "restore")
	t.NoError(backend.Mapped(ctx, w, true), "await normal")
	assert.False(t, w.Properties().Minimized)
	assertWmState(t, w, backend.WmStateNormal)

	t.NoError(tk.SetVisible(false), "withdraw")
	t.NoError(backend.Mapped(ctx, w, false), "await withdrawn")
	assert.False(t, w.Properties().Minimized, "withdrawn is not iconic")
	assertWmState(t, w, backend.WmStateWithdrawn)

	t.NoError(tk.SetVisible(true), "map again")
	t.NoError(backend.Mapped(ctx, w, true), "await remapped")
	assertWmState(t, w, backend.WmStateNormal)
}

func assertWmState(t *runner.T, w backend.Window, want backend.WmState) {
	got, err := w.WmState()
	t.NoError(err, "read WM_STATE")
	assert.Equal(t, want, got, "WM_STATE")
}

func minimize(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := newWindow(t, el, xtk.DefaultAttributes())
	tk := w.Toolkit()

	t.NoError(backend.Minimized(ctx, w, false), "await not minimized")
	t.NoError(tk.SetMinimized(true), "minimize")
	t.NoError(backend.Minimized(ctx, w, true), "await minimized")
	t.NoError(tk.SetMinimized(false), "unminimize")
	t.NoError(backend.Minimized(ctx, w, false), "await restored")
}

func maximized(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)
	tk := w.Toolkit()

	t.NoError(backend.Maximized(ctx, w, false), "await not maximized")
	t.NoError(tk.SetMaximized(true), "maximize")
	t.NoError(backend.Maximized(ctx, w, true), "await maximized")
	t.NoError(tk.SetMaximized(false), "unmaximize")
	t.NoError(backend.Maximized(ctx, w, false), "await restored")
}

func decorations(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)
	t.NoError(w.SetBackgroundColor(0x88, 0xc0, 0xd0), "background")

	t.NoError(backend.Decorations(ctx, w, true), "await decorated")
	ext := w.FrameExtents()
	assert.Positive(t, ext.Top)
	assert.GreaterOrEqual(t, ext.Top, ext.Bottom, "the title bar is on top")
	t.NoError(t.Instance().Screenshot("decorated"), "screenshot")

	t.NoError(w.Toolkit().SetDecorations(false), "undecorate")
	t.NoError(backend.Decorations(ctx, w, false), "await undecorated")
	assert.Equal(t, backend.Extents{}, w.FrameExtents())
	t.NoError(t.Instance().Screenshot("undecorated"), "screenshot")

	t.NoError(w.Toolkit().SetDecorations(true), "decorate")
	t.NoError(backend.Decorations(ctx, w, true), "await decorated again")
	assert.Equal(t, ext, w.FrameExtents())
}

// awaitResized pops events until a resize of w to width x height arrives.
func awaitResized(ctx context.Context, el backend.EventLoop, w backend.Window, width, height int) error {
	for {
		ev, err := backend.WindowResized(ctx, el)
		if err != nil {
			return err
		}
		if ev.Window == w.ID() && ev.Width == width && ev.Height == height {
			return nil
		}
	}
}

func resize(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)

	// Driven by the window manager.
	t.NoError(w.SetInnerSize(400, 300), "set inner size")
	t.NoError(backend.InnerSize(ctx, w, 400, 300), "await wm inner size")
	t.NoError(backend.ToolkitInnerSize(ctx, w, 400, 300), "await toolkit inner size")
	t.NoError(awaitResized(ctx, el, w, 400, 300), "await resized event")

	// Driven by the toolkit.
	t.NoError(w.Toolkit().SetInnerSize(500, 350), "toolkit set inner size")
	t.NoError(backend.InnerSize(ctx, w, 500, 350), "await wm inner size")
	t.NoError(awaitResized(ctx, el, w, 500, 350), "await resized event")
	assert.Equal(t, xtk.Size{Width: 500, Height: 350}, w.Toolkit().Size())
}

func outerPosition(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)

	t.NoError(w.SetOuterPosition(100, 100), "move frame")
	t.NoError(backend.OuterPosition(ctx, w, 100, 100), "await wm position")
	t.NoError(backend.ToolkitOuterPosition(ctx, w, 100, 100), "await toolkit position")

	t.NoError(w.Toolkit().SetOuterPosition(200, 150), "toolkit move")
	t.NoError(backend.OuterPosition(ctx, w, 200, 150), "await wm position")
	t.NoError(backend.ToolkitOuterPosition(ctx, w, 200, 150), "await toolkit position")

	dx, dy := w.FrameExtents().InnerOffset()
	t.Logf("client area at %d,%d", 200+dx, 150+dy)
}

func title(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	attrs := xtk.DefaultAttributes()
	attrs.Title = "first"
	w := newWindow(t, el, attrs)

	t.NoError(backend.Title(ctx, w, "first"), "await initial title")
	t.NoError(w.Toolkit().SetTitle("zweiter Titel ✓"), "set title")
	t.NoError(backend.Title(ctx, w, "zweiter Titel ✓"), "await utf-8 title")
	t.NoError(backend.Class(ctx, w, attrs.Class), "await class")
	t.NoError(backend.InstanceName(ctx, w, attrs.Instance), "await instance")
}

func alwaysOnTop(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)
	tk := w.Toolkit()

	t.NoError(backend.AlwaysOnTop(ctx, w, false), "await normal stacking")
	t.NoError(tk.SetAlwaysOnTop(true), "set always on top")
	t.NoError(backend.AlwaysOnTop(ctx, w, true), "await above")
	t.NoError(tk.SetAlwaysOnTop(false), "clear always on top")
	t.NoError(backend.AlwaysOnTop(ctx, w, false), "await normal stacking")
}

func sizeBounds(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)
	tk := w.Toolkit()

	t.NoError(tk.SetMinSize(&xtk.Size{Width: 200, Height: 100}), "set min size")
	t.NoError(backend.MinSize(ctx, w, &backend.Size{Width: 200, Height: 100}), "await min size")
	t.NoError(tk.SetMaxSize(&xtk.Size{Width: 1000, Height: 700}), "set max size")
	t.NoError(backend.MaxSize(ctx, w, &backend.Size{Width: 1000, Height: 700}), "await max size")
	t.NoError(backend.Resizable(ctx, w, true), "await resizable")

	t.NoError(tk.SetMinSize(nil), "clear min size")
	t.NoError(backend.MinSize(ctx, w, nil), "await no min size")
	t.NoError(tk.SetMaxSize(nil), "clear max size")
	t.NoError(backend.MaxSize(ctx, w, nil), "await no max size")

	t.NoError(tk.SetResizable(false), "fix size")
	t.NoError(backend.Resizable(ctx, w, false), "await fixed")
	t.NoError(tk.SetResizable(true), "unfix size")
	t.NoError(backend.Resizable(ctx, w, true), "await resizable")
}

func attention(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)

	t.NoError(w.Toolkit().RequestAttention(true), "request attention")
	t.NoError(backend.Attention(ctx, w, true), "await urgent")
	t.NoError(w.Toolkit().RequestAttention(false), "clear attention")
	t.NoError(backend.Attention(ctx, w, false), "await not urgent")
}

func icon(t *runner.T) {
	ctx := t.Context()
	el := newEventLoop(t)
	w := mappedWindow(t, el)

	// Red, green, blue and half-transparent white.
	rgba := []byte{
		0xff, 0x00, 0x00, 0xff,
		0x00, 0xff, 0x00, 0xff,
		0x00, 0x00, 0xff, 0xff,
		0xff, 0xff, 0xff, 0x80,
	}
	want := &backend.Icon{Width: 2, Height: 2, ARGB: []uint32{0xffff0000, 0xff00ff00, 0xff0000ff, 0x80ffffff}}

	t.NoError(w.Toolkit().SetIcon(&xtk.Icon{Width: 2, Height: 2, RGBA: rgba}), "set icon")
	t.NoError(backend.WindowIcon(ctx, w, want), "await icon")
	t.NoError(w.Toolkit().SetIcon(nil), "clear icon")
	t.NoError(backend.WindowIcon(ctx, w, nil), "await no icon")
}

// waitFocus pops events until w gains focus.
func waitFocus(t *runner.T, el backend.EventLoop, w backend.Window) {
	ev, err := backend.WindowFocusFor(t.Context(), el, w.ID())
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("window %d never gained focus", w.ID())
	}
	t.NoError(err, "await focus")
	require.True(t, ev.Focused)
}
