package wm

import (
	"log/slog"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/x11"
)

func strp(s string) *string { return &s }

func TestWindowTitle(t *testing.T) {
	tests := []struct {
		name    string
		wmName  *string
		netName *string
		want    string
		ok      bool
	}{
		{"both equal", strp("hello"), strp("hello"), "hello", true},
		{"differ", strp("hello"), strp("world"), "", false},
		{"missing net name", strp("hello"), nil, "", false},
		{"missing wm name", nil, strp("hello"), "", false},
		{"empty but present", strp(""), strp(""), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Window{WmName: tt.wmName, NetWmName: tt.netName}
			got, ok := w.Title()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowMaximized(t *testing.T) {
	w := &Window{}
	m, ok := w.Maximized()
	assert.True(t, ok)
	assert.False(t, m)

	w.MaximizedHorz = true
	_, ok = w.Maximized()
	assert.False(t, ok, "disagreeing flags are unknown")

	w.MaximizedVert = true
	m, ok = w.Maximized()
	assert.True(t, ok)
	assert.True(t, m)
}

func TestWindowResizable(t *testing.T) {
	fixed := &Size{Width: 200, Height: 100}
	tests := []struct {
		name string
		min  *Size
		max  *Size
		w, h int
		want bool
	}{
		{"no hints", nil, nil, 200, 100, true},
		{"only max", nil, fixed, 200, 100, true},
		{"min equals max equals size", fixed, fixed, 200, 100, false},
		{"min equals max, size differs", fixed, fixed, 300, 100, true},
		{"min differs from max", &Size{Width: 10, Height: 10}, fixed, 200, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Window{MinSize: tt.min, MaxSize: tt.max, Width: tt.w, Height: tt.h}
			assert.Equal(t, tt.want, w.Resizable())
		})
	}
}

func TestWindowStateDefaults(t *testing.T) {
	w := newWindow(42)
	assert.Equal(t, StateWithdrawn, w.State)
	assert.True(t, w.Decorations)
	assert.False(t, w.Minimized())

	w.State = StateIconic
	assert.True(t, w.Minimized())
	assert.Equal(t, "iconic", w.State.String())
}

func TestFrameExtents(t *testing.T) {
	cfg := Config{BorderWidth: 5, TitleHeight: 20}
	w := newWindow(1)
	assert.Equal(t, Extents{Left: 5, Right: 5, Top: 25, Bottom: 5}, w.FrameExtents(cfg))

	x, y := w.InnerOffset(cfg)
	assert.Equal(t, 5, x)
	assert.Equal(t, 25, y)

	w.Decorations = false
	assert.Equal(t, Extents{}, w.FrameExtents(cfg))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultBorderWidth, cfg.BorderWidth)
	assert.Equal(t, DefaultTitleHeight, cfg.TitleHeight)
	assert.NotNil(t, cfg.Logger)

	cfg = Config{BorderWidth: 2, TitleHeight: 3}.withDefaults()
	assert.Equal(t, 2, cfg.BorderWidth)
	assert.Equal(t, 3, cfg.TitleHeight)
}

func keepSibling(id xproto.Window) (xproto.Window, bool) { return id, true }

func TestConfigureValues(t *testing.T) {
	ev := xproto.ConfigureRequestEvent{
		ValueMask: xproto.ConfigWindowX | xproto.ConfigWindowHeight | xproto.ConfigWindowStackMode,
		X:         -10,
		Y:         99,
		Width:     123,
		Height:    45,
		StackMode: xproto.StackModeAbove,
	}
	v := configureValues(ev, keepSibling)
	assert.Equal(t, uint16(xproto.ConfigWindowX|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode), v.mask)
	require.Len(t, v.values, 3)
	assert.Equal(t, uint32(0xfffffff6), v.values[0], "negative positions are sign extended")
	assert.Equal(t, uint32(45), v.values[1])
	assert.Equal(t, uint32(xproto.StackModeAbove), v.values[2])
}

func TestConfigureValuesAllFields(t *testing.T) {
	ev := xproto.ConfigureRequestEvent{
		ValueMask: xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth |
			xproto.ConfigWindowHeight | xproto.ConfigWindowBorderWidth |
			xproto.ConfigWindowSibling | xproto.ConfigWindowStackMode,
		X: 1, Y: 2, Width: 3, Height: 4, BorderWidth: 5, Sibling: 6, StackMode: 1,
	}
	v := configureValues(ev, keepSibling)
	assert.Equal(t, []uint32{1, 2, 3, 4, 5, 6, 1}, v.values)
}

func TestSplitConfigure(t *testing.T) {
	ext := Extents{Left: 5, Right: 5, Top: 25, Bottom: 5}
	cur := Size{Width: 100, Height: 50}

	t.Run("position goes to frame", func(t *testing.T) {
		ev := xproto.ConfigureRequestEvent{ValueMask: xproto.ConfigWindowX | xproto.ConfigWindowY, X: 10, Y: 20}
		client, frame := splitConfigure(ev, ext, cur, keepSibling)
		assert.Zero(t, client.mask)
		assert.Equal(t, []uint32{10, 20}, frame.values)
	})

	t.Run("width grows frame by extents", func(t *testing.T) {
		ev := xproto.ConfigureRequestEvent{ValueMask: xproto.ConfigWindowWidth, Width: 300}
		client, frame := splitConfigure(ev, ext, cur, keepSibling)
		assert.Equal(t, uint16(xproto.ConfigWindowWidth), client.mask)
		assert.Equal(t, []uint32{300}, client.values)
		assert.Equal(t, uint16(xproto.ConfigWindowWidth|xproto.ConfigWindowHeight), frame.mask)
		assert.Equal(t, []uint32{310, 80}, frame.values)
	})

	t.Run("border and stacking split", func(t *testing.T) {
		ev := xproto.ConfigureRequestEvent{
			ValueMask:   xproto.ConfigWindowBorderWidth | xproto.ConfigWindowStackMode,
			BorderWidth: 2,
			StackMode:   xproto.StackModeBelow,
		}
		client, frame := splitConfigure(ev, ext, cur, keepSibling)
		assert.Equal(t, []uint32{2}, client.values)
		assert.Equal(t, []uint32{uint32(xproto.StackModeBelow)}, frame.values)
	})
}

func TestApplyAction(t *testing.T) {
	assert.False(t, applyAction(stateRemove, true))
	assert.True(t, applyAction(stateAdd, false))
	assert.True(t, applyAction(stateToggle, false))
	assert.False(t, applyAction(stateToggle, true))
	assert.True(t, applyAction(7, true), "unknown actions keep the flag")
}

func TestNetStateNames(t *testing.T) {
	w := &Window{MaximizedHorz: true, MaximizedVert: true, AlwaysOnTop: true, State: StateIconic}
	assert.Equal(t, []string{
		"_NET_WM_STATE_MAXIMIZED_HORZ",
		"_NET_WM_STATE_MAXIMIZED_VERT",
		"_NET_WM_STATE_ABOVE",
		"_NET_WM_STATE_HIDDEN",
	}, netStateNames(w))
	assert.Empty(t, netStateNames(&Window{}))
}

func TestParseProtocols(t *testing.T) {
	p := parseProtocols([]string{"WM_TAKE_FOCUS", "WM_DELETE_WINDOW", "_NET_WM_PING"})
	assert.Equal(t, ProtoDeleteWindow|ProtoPing, p)
	assert.Zero(t, parseProtocols(nil))
}

func TestSizeLimits(t *testing.T) {
	minSize, maxSize := sizeLimits(&icccm.NormalHints{
		Flags:    icccm.SizeHintPMaxSize,
		MinWidth: 1, MinHeight: 1,
		MaxWidth: 640, MaxHeight: 480,
	})
	assert.Nil(t, minSize)
	assert.Equal(t, &Size{Width: 640, Height: 480}, maxSize)
}

func TestPickIcon(t *testing.T) {
	assert.Nil(t, pickIcon(nil))
	icon := pickIcon([]ewmh.WmIcon{
		{Width: 1, Height: 1, Data: []uint{0xff000000}},
		{Width: 2, Height: 1, Data: []uint{0xffff0000, 0xff00ff00}},
	})
	require.NotNil(t, icon)
	assert.Equal(t, 2, icon.Width)
	assert.Equal(t, []uint32{0xffff0000, 0xff00ff00}, icon.ARGB)
}

func newTestWM() *WM {
	return &WM{
		conn:    &x11.Connection{Atoms: &x11.Atoms{WmProtocols: 40, NetWmPing: 41}},
		cfg:     Config{}.withDefaults(),
		log:     slog.Default(),
		windows: map[xproto.Window]*Window{},
		frames:  map[xproto.Window]xproto.Window{},
		pongs:   map[xproto.Window]struct{}{},
	}
}

func TestSplitConfigureMapsSiblingToFrame(t *testing.T) {
	w := newTestWM()
	other := newWindow(0x200009)
	other.Frame = 0x400001
	w.windows[other.ID] = other
	w.frames[other.Frame] = other.ID

	ev := xproto.ConfigureRequestEvent{
		ValueMask: xproto.ConfigWindowSibling | xproto.ConfigWindowStackMode,
		Sibling:   0x200009,
		StackMode: xproto.StackModeAbove,
	}
	_, frame := splitConfigure(ev, Extents{}, Size{}, w.stackSibling)
	assert.Equal(t, uint16(xproto.ConfigWindowSibling|xproto.ConfigWindowStackMode), frame.mask)
	assert.Equal(t, []uint32{0x400001, uint32(xproto.StackModeAbove)}, frame.values)

	ev.Sibling = 0x300005
	_, frame = splitConfigure(ev, Extents{}, Size{}, w.stackSibling)
	assert.Equal(t, uint16(xproto.ConfigWindowStackMode), frame.mask, "untracked sibling is dropped")
	assert.Equal(t, []uint32{uint32(xproto.StackModeAbove)}, frame.values)

	ev.ValueMask = xproto.ConfigWindowSibling
	ev.Sibling = 0x200009
	_, frame = splitConfigure(ev, Extents{}, Size{}, w.stackSibling)
	assert.Zero(t, frame.mask, "a sibling without a stack mode is invalid")
}

func TestStackSibling(t *testing.T) {
	w := newTestWM()
	unframed := newWindow(0x200002)
	w.windows[unframed.ID] = unframed
	w.frames[0x400003] = 0x200004

	id, ok := w.stackSibling(0x200002)
	assert.True(t, ok)
	assert.Equal(t, xproto.Window(0x200002), id)

	id, ok = w.stackSibling(0x400003)
	assert.True(t, ok)
	assert.Equal(t, xproto.Window(0x400003), id)

	_, ok = w.stackSibling(0x200099)
	assert.False(t, ok)

	v := configureValues(xproto.ConfigureRequestEvent{
		ValueMask: xproto.ConfigWindowSibling | xproto.ConfigWindowStackMode,
		Sibling:   0x200099,
		StackMode: xproto.StackModeBelow,
	}, w.stackSibling)
	assert.Equal(t, uint16(xproto.ConfigWindowStackMode), v.mask)
}

func TestDrainKeepsArrivalOrder(t *testing.T) {
	events := make(chan xgb.Event, 8)
	events <- xproto.MapRequestEvent{Window: 1}
	events <- xproto.DestroyNotifyEvent{Window: 1}

	var seen []string
	dirty := drain(xproto.CreateNotifyEvent{Window: 1}, events, func(ev xgb.Event) bool {
		switch ev.(type) {
		case xproto.CreateNotifyEvent:
			seen = append(seen, "create")
		case xproto.MapRequestEvent:
			seen = append(seen, "map")
		case xproto.DestroyNotifyEvent:
			seen = append(seen, "destroy")
			return true
		}
		return false
	})
	assert.True(t, dirty)
	assert.Equal(t, []string{"create", "map", "destroy"}, seen)
	assert.Empty(t, events)
}

func TestDrainStopsWhenEmpty(t *testing.T) {
	events := make(chan xgb.Event, 1)
	calls := 0
	dirty := drain(xproto.MapNotifyEvent{Window: 1}, events, func(xgb.Event) bool {
		calls++
		return false
	})
	assert.False(t, dirty)
	assert.Equal(t, 1, calls)
}

func TestConfigureNotifyTouchesOnce(t *testing.T) {
	w := newTestWM()
	win := newWindow(0x200001)
	win.Width, win.Height = 100, 50
	w.windows[win.ID] = win

	assert.True(t, w.handle(xproto.ConfigureNotifyEvent{Window: win.ID, X: 3, Y: 4, Width: 100, Height: 50}))
	assert.Equal(t, uint64(1), win.Generation)
	assert.Equal(t, 3, win.X)
	assert.Equal(t, 4, win.Y)
}

func pingReply(w *WM, id xproto.Window) xproto.ClientMessageEvent {
	a := w.conn.Atoms
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: w.conn.Root,
		Type:   a.WmProtocols,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(a.NetWmPing), 0, uint32(id), 0, 0}),
	}
}

func TestPongRecordedForTrackedWindowsOnly(t *testing.T) {
	w := newTestWM()
	win := newWindow(0x200001)
	w.windows[win.ID] = win

	assert.False(t, w.handle(pingReply(w, 0x200077)))
	assert.Empty(t, w.pongs)

	assert.True(t, w.handle(pingReply(w, win.ID)))
	assert.Contains(t, w.pongs, win.ID)
	assert.Equal(t, uint64(1), win.Generation)
}
