package xtk

import (
	"log/slog"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xconform/internal/event"
	"github.com/1broseidon/xconform/internal/keyboard"
	"github.com/1broseidon/xconform/internal/x11"
	"github.com/1broseidon/xconform/internal/x11/xinput"
)

func TestTranslateKey(t *testing.T) {
	q := [keyboard.Columns]keyboard.Keysym{'q', 'Q', 'a', 'A'}

	tests := []struct {
		name     string
		state    uint16
		wantKs   keyboard.Keysym
		wantBase keyboard.Keysym
	}{
		{"plain", 0, 'q', 'q'},
		{"shift", xproto.ModMaskShift, 'Q', 'q'},
		{"group 2", 1 << 13, 'a', 'a'},
		{"group 2 shift", 1<<13 | xproto.ModMaskShift, 'A', 'a'},
		{"control does not change level", xproto.ModMaskControl, 'q', 'q'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks, base := translateKey(q, tt.state)
			assert.Equal(t, tt.wantKs, ks)
			assert.Equal(t, tt.wantBase, base)
		})
	}
}

func TestStateGroup(t *testing.T) {
	assert.Equal(t, uint8(0), stateGroup(xproto.ModMaskShift))
	assert.Equal(t, uint8(1), stateGroup(1<<13))
	assert.Equal(t, uint8(3), stateGroup(3<<13|xproto.ModMaskControl))
}

func TestLogicalKeyAndText(t *testing.T) {
	assert.Equal(t, event.Character("l"), logicalKey('l'))
	assert.Equal(t, "l", keyText('l'))

	assert.Equal(t, event.Named(keyboard.NamedShift), logicalKey(keyboard.XKShiftL))
	assert.Empty(t, keyText(keyboard.XKShiftL))

	assert.Equal(t, event.Named("Enter"), logicalKey(keyboard.XKReturn))
	assert.Equal(t, "\r", keyText(keyboard.XKReturn))
	assert.Empty(t, keyText(keyboard.XKLeft))
}

func TestModifierOf(t *testing.T) {
	assert.Equal(t, event.ModShift, modifierOf(keyboard.XKShiftR))
	assert.Equal(t, event.ModControl, modifierOf(keyboard.XKControlR))
	assert.Equal(t, event.ModAlt, modifierOf(keyboard.XKAltR))
	assert.Equal(t, event.Modifiers(0), modifierOf('l'))
}

func TestKeyStateNested(t *testing.T) {
	s := newKeyState()

	repeat, changed := s.press(50, event.ModShift)
	assert.False(t, repeat)
	assert.True(t, changed)
	assert.Equal(t, event.ModShift, s.mods)

	repeat, changed = s.press(46, 0)
	assert.False(t, repeat)
	assert.False(t, changed)

	assert.False(t, s.release(46))
	assert.True(t, s.release(50))
	assert.Equal(t, event.Modifiers(0), s.mods)
}

func TestKeyStateOverlapping(t *testing.T) {
	s := newKeyState()
	s.press(105, event.ModControl)
	_, changed := s.press(50, event.ModShift)
	assert.True(t, changed)
	assert.Equal(t, event.ModControl|event.ModShift, s.mods)

	assert.True(t, s.release(105))
	assert.Equal(t, event.ModShift, s.mods)
}

func TestKeyStateRepeatAndReset(t *testing.T) {
	s := newKeyState()
	s.press(46, 0)
	repeat, _ := s.press(46, 0)
	assert.True(t, repeat)

	s.press(50, event.ModShift)
	assert.True(t, s.reset())
	assert.Empty(t, s.held)
	assert.False(t, s.reset())
}

func TestNormalHints(t *testing.T) {
	cur := Size{Width: 300, Height: 200}

	h := normalHints(true, cur, nil, nil)
	assert.Zero(t, h.Flags)

	h = normalHints(false, cur, nil, nil)
	assert.Equal(t, uint(icccm.SizeHintPMinSize|icccm.SizeHintPMaxSize), h.Flags)
	assert.Equal(t, uint(300), h.MinWidth)
	assert.Equal(t, uint(200), h.MaxHeight)

	h = normalHints(true, cur, &Size{Width: 10, Height: 20}, nil)
	assert.Equal(t, uint(icccm.SizeHintPMinSize), h.Flags)
	assert.Equal(t, uint(20), h.MinHeight)
}

func TestToWmIcon(t *testing.T) {
	icon := toWmIcon(&Icon{Width: 2, Height: 1, RGBA: []byte{
		0x11, 0x22, 0x33, 0xff,
		0xaa, 0xbb, 0xcc, 0x80,
	}})
	require.Len(t, icon.Data, 2)
	assert.Equal(t, uint(0xff112233), icon.Data[0])
	assert.Equal(t, uint(0x80aabbcc), icon.Data[1])
	assert.Equal(t, uint(2), icon.Width)
}

func TestDefaultAttributes(t *testing.T) {
	attrs := DefaultAttributes()
	assert.True(t, attrs.Visible)
	assert.True(t, attrs.Decorations)
	assert.True(t, attrs.Resizable)
	assert.Equal(t, 800, attrs.Width)
	assert.Equal(t, []string{"WM_DELETE_WINDOW", "_NET_WM_PING"}, attrs.Protocols)
	assert.False(t, attrs.IgnorePings)
}

func protocolMessage(a *App, w *Window, proto xproto.Atom) *xproto.ClientMessageEvent {
	return &xproto.ClientMessageEvent{
		Format: 32,
		Window: w.id,
		Type:   a.conn.Atoms.WmProtocols,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(proto), 0, uint32(w.id), 0, 0}),
	}
}

func TestClientMessages(t *testing.T) {
	var got []event.Event
	a := &App{
		conn: &x11.Connection{Atoms: &x11.Atoms{WmProtocols: 40, WmDeleteWindow: 41, NetWmPing: 42}},
		log:  slog.Default(),
		sink: func(ev event.Event) { got = append(got, ev) },
	}
	w := &Window{app: a, id: 0x200001, ignorePings: true}

	a.onClientMessage(w, protocolMessage(a, w, 41))
	assert.Equal(t, []event.Event{event.CloseRequested{Window: w.EventID()}}, got)

	assert.NotPanics(t, func() {
		a.onClientMessage(w, protocolMessage(a, w, 42))
	}, "an ignored ping sends nothing")
	assert.Len(t, got, 1)
}

func TestPresenceEvent(t *testing.T) {
	ev, ok := presenceEvent(xinput.DevicePresenceNotifyEvent{Change: xinput.PresenceAdded, DeviceID: 12})
	require.True(t, ok)
	assert.Equal(t, event.DeviceAdded{Device: 12}, ev)

	ev, ok = presenceEvent(xinput.DevicePresenceNotifyEvent{Change: xinput.PresenceRemoved, DeviceID: 12})
	require.True(t, ok)
	assert.Equal(t, event.DeviceRemoved{Device: 12}, ev)

	_, ok = presenceEvent(xinput.DevicePresenceNotifyEvent{Change: xinput.PresenceEnabled, DeviceID: 12})
	assert.False(t, ok)
}
